package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"contactform/backend/internal/domain"
	"contactform/backend/internal/monitoring"
)

// transportTimeout SMTP 连接、单条命令和整次投递共用的超时上界
const transportTimeout = 20 * time.Second

// Mailer 通过 SMTP 中继投递线索邮件
type Mailer struct {
	resolver    *Resolver
	log         *zap.Logger
	metrics     *monitoring.Metrics
	endpointTag string

	// transmit 可在测试中替换，避免真实网络连接
	transmit func(cfg *Config, msg []byte) error
}

// NewMailer 创建邮件投递器
func NewMailer(resolver *Resolver, log *zap.Logger, metrics *monitoring.Metrics, endpointTag string) *Mailer {
	m := &Mailer{
		resolver:    resolver,
		log:         log,
		metrics:     metrics,
		endpointTag: endpointTag,
	}
	m.transmit = m.deliver
	return m
}

// Send 组装并投递一封线索邮件
//
// 配置缺失时是静默空操作并返回 nil（缺失已由 Resolver 记录过一次），
// 传输层的任何失败统一包装为一个错误返回，不做重试。
func (m *Mailer) Send(sub domain.Submission) error {
	cfg := m.resolver.Load()
	if cfg == nil {
		return nil
	}

	msg := BuildMessage(cfg, sub, m.endpointTag)
	start := time.Now()
	if err := m.transmit(cfg, msg); err != nil {
		return fmt.Errorf("smtp delivery: %w", err)
	}
	m.metrics.RecordEmailSent(time.Since(start))

	m.log.Info("lead email sent", zap.Strings("to", cfg.To))
	return nil
}

// deliver 建立 SMTP 连接并发送已组装好的报文
//
// 端口 465 走隐式 TLS 直连，其余端口先明文连接再 STARTTLS 升级，
// 之后才进行 AUTH PLAIN 认证。连接在所有退出路径上都会关闭。
func (m *Mailer) deliver(cfg *Config, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	client, err := dialClient(addr, cfg.Port, tlsConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	client.CommandTimeout = transportTimeout
	client.SubmissionTimeout = transportTimeout

	if err := client.Auth(sasl.NewPlainClient("", cfg.User, cfg.Password)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := client.SendMail(cfg.From, cfg.To, bytes.NewReader(msg)); err != nil {
		return err
	}

	return client.Quit()
}

// dialClient 按端口选择连接策略：465 隐式 TLS，其余 STARTTLS 升级
func dialClient(addr string, port int, tlsConfig *tls.Config) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: transportTimeout}

	if port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("dial tls: %w", err)
		}
		return smtp.NewClient(conn), nil
	}

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	// 升级握手（问候 / EHLO / STARTTLS）也受传输超时约束，
	// 防止只接受 TCP 却不发问候的中继把连接拖住数分钟
	_ = conn.SetDeadline(time.Now().Add(transportTimeout))
	client, err := smtp.NewClientStartTLS(conn, tlsConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("starttls: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	return client, nil
}
