package mail

import (
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultHost  = "smtp.gmail.com"
	defaultPort  = "587"
	fallbackFrom = "no-reply@localhost"
)

// Config SMTP 投递配置，解析成功后不可变
//
// 不变量：所有字段非空、端口为合法整数、收件人列表非空；
// 任一条件不满足时整个配置视为缺失（Resolver 返回 nil）。
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	To       []string // 有序收件人列表
	From     string
}

// Resolver 惰性解析并缓存 SMTP 配置
//
// 进程内最多解析一次（含解析失败的情况），之后所有调用者拿到
// 同一个结果；配置缺失只在首次解析时记录一条错误日志。
// 不作为全局环境状态访问，由构造方显式传递给需要的组件。
type Resolver struct {
	once sync.Once
	cfg  *Config // nil 表示缺失
	log  *zap.Logger
}

// NewResolver 创建 SMTP 配置解析器
func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{log: log}
}

// Load 返回缓存的 SMTP 配置，首次调用时从环境解析
//
// 返回 nil 表示配置缺失或不合法，调用方应把投递降级为静默空操作。
func (r *Resolver) Load() *Config {
	r.once.Do(func() {
		r.cfg = resolve()
		if r.cfg == nil {
			r.log.Error("email disabled: missing or invalid SMTP configuration")
		}
	})
	return r.cfg
}

// resolve 读取 MAIL_* 环境变量并校验
//
// 读取的变量：MAIL_SMTP_HOST、MAIL_SMTP_PORT、MAIL_SMTP_USER、
// MAIL_SMTP_PASS、MAIL_TO（逗号分隔）、MAIL_FROM。
func resolve() *Config {
	v := viper.New()
	v.SetEnvPrefix("mail")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	host := stringOr(v.GetString("smtp.host"), defaultHost)
	portRaw := stringOr(v.GetString("smtp.port"), defaultPort)
	user := v.GetString("smtp.user")
	password := v.GetString("smtp.pass")
	to := parseAddresses(v.GetString("to"))
	from := stringOr(v.GetString("from"), stringOr(user, fallbackFrom))

	if host == "" || user == "" || password == "" || len(to) == 0 || from == "" {
		return nil
	}

	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return nil
	}

	return &Config{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		To:       to,
		From:     from,
	}
}

// parseAddresses 解析逗号分隔的地址列表，去除空白项
func parseAddresses(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	addrs := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	return addrs
}

// stringOr 空字符串视为未设置，返回默认值
func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
