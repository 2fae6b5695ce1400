package httptransport

import (
	"path/filepath"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"contactform/backend/internal/config"
	"contactform/backend/internal/health"
	"contactform/backend/internal/middleware"
	"contactform/backend/internal/monitoring"
	"contactform/backend/internal/service"
)

// 全局令牌桶参数：静态站点 + 单个表单端点，流量很小
const (
	globalThrottleRate  = 25 // 每秒补充的令牌数
	globalThrottleBurst = 50
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config      *config.Config
	Submissions *service.SubmissionService
	Health      *health.Checker
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.Instrument(deps.Metrics))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.FormBodyLimit))
	router.Use(middleware.Throttle(rate.NewLimiter(globalThrottleRate, globalThrottleBurst)))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := NewFormHandler(deps.Submissions)
	router.POST("/send", handler.HandleSend)

	// 静态页面
	staticDir := deps.Config.Form.StaticDir
	router.StaticFile("/", filepath.Join(staticDir, "index.html"))
	router.StaticFile("/thanks", filepath.Join(staticDir, "thanks.html"))

	assets := router.Group("/assets", middleware.StaticCache(24*time.Hour))
	assets.Static("/", filepath.Join(staticDir, "assets"))

	// 健康检查（用于 Kubernetes 等）
	router.GET("/health/live", gin.WrapF(deps.Health.LiveEndpoint()))
	router.GET("/health/ready", gin.WrapF(deps.Health.ReadyEndpoint()))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))

	return router
}
