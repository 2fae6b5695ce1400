package health

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"contactform/backend/internal/mail"
)

// Checker 健康检查器
//
// liveness 检查 goroutine 数量是否失控；
// readiness 检查 SMTP 中继是否可达（配置缺失时视为就绪，
// 因为邮件投递被刻意降级为静默空操作，服务本身仍可用）。
type Checker struct {
	health   healthcheck.Handler
	resolver *mail.Resolver
	log      *zap.Logger
}

// NewChecker 创建健康检查器
func NewChecker(resolver *mail.Resolver, log *zap.Logger) *Checker {
	c := &Checker{
		health:   healthcheck.NewHandler(),
		resolver: resolver,
		log:      log,
	}
	c.addChecks()
	return c
}

// addChecks 注册健康检查项
func (c *Checker) addChecks() {
	c.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(200))

	c.health.AddReadinessCheck("smtp-relay", func() error {
		cfg := c.resolver.Load()
		if cfg == nil {
			// 邮件已禁用，不算就绪失败
			return nil
		}
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		return healthcheck.TCPDialCheck(addr, 5*time.Second)()
	})
}

// LiveEndpoint 返回 liveness 检查的 HTTP 处理函数
func (c *Checker) LiveEndpoint() http.HandlerFunc {
	return c.health.LiveEndpoint
}

// ReadyEndpoint 返回 readiness 检查的 HTTP 处理函数
func (c *Checker) ReadyEndpoint() http.HandlerFunc {
	return c.health.ReadyEndpoint
}
