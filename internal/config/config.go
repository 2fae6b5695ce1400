package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// FormConfig 定义表单提交管道的核心业务配置
type FormConfig struct {
	BaseURL        string        // 服务自身的 scheme+host，用于 Origin/Referer 同源校验
	MaxSubmissions int           // 滑动窗口内单个客户端最多允许的提交次数
	Window         time.Duration // 滑动窗口长度，默认 1 小时
	EndpointTag    string        // 出站邮件 X-Form-Endpoint 头的标识值
	StaticDir      string        // 静态页面目录（index.html / thanks.html / assets）
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
//
// 注意：SMTP 投递配置（MAIL_* 环境变量）不在这里加载，
// 由 internal/mail 的 Resolver 按需惰性解析并缓存。
type Config struct {
	Server ServerConfig
	Form   FormConfig
	CORS   CORSConfig
	Log    LogConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: CONTACTFORM_
// 例如: CONTACTFORM_SERVER_PORT, CONTACTFORM_FORM_MAX_SUBMISSIONS
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("contactform")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("form.base_url", "http://localhost:8080")
	viper.SetDefault("form.max_submissions", 5)
	viper.SetDefault("form.window", "1h")
	viper.SetDefault("form.endpoint_tag", "contact-form/send")
	viper.SetDefault("static.dir", "./web/static")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)

	windowStr := viper.GetString("form.window")
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		return nil, fmt.Errorf("invalid form.window: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("form.window must be positive, got %s", window)
	}

	maxSubmissions := viper.GetInt("form.max_submissions")
	if maxSubmissions <= 0 {
		maxSubmissions = 5
	}

	baseURL := strings.TrimRight(viper.GetString("form.base_url"), "/")
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid form.base_url: %q", baseURL)
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Form: FormConfig{
			BaseURL:        baseURL,
			MaxSubmissions: maxSubmissions,
			Window:         window,
			EndpointTag:    viper.GetString("form.endpoint_tag"),
			StaticDir:      viper.GetString("static.dir"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白项
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从子目录运行时）
//
// 如果文件不存在，静默失败；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
