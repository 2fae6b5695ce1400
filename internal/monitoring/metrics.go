package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 提交管道指标
	SubmissionsTotal *prometheus.CounterVec // 按处理结果分类

	// 邮件投递指标
	EmailsSent        prometheus.Counter
	EmailSendDuration prometheus.Histogram

	// 错误指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
//
// 每个实例持有独立的 registry，避免重复注册冲突。
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactform_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactform_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactform_submissions_total",
			Help: "Form submissions processed, by pipeline outcome",
		}, []string{"outcome"}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactform_emails_sent_total",
			Help: "Lead emails successfully handed to the SMTP relay",
		}),
		EmailSendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactform_email_send_duration_seconds",
			Help:    "Duration of SMTP delivery attempts",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		PanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactform_panics_total",
			Help: "Panics recovered by the HTTP recovery middleware",
		}),
	}
}

// RecordSubmission 记录一次提交管道的处理结果
func (m *Metrics) RecordSubmission(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordEmailSent 记录一次成功的邮件投递及其耗时
func (m *Metrics) RecordEmailSent(d time.Duration) {
	m.EmailsSent.Inc()
	m.EmailSendDuration.Observe(d.Seconds())
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordPanic 记录一次被恢复的 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 /metrics 端点的处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
