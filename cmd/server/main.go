package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contactform/backend/internal/config"
	"contactform/backend/internal/health"
	"contactform/backend/internal/logger"
	"contactform/backend/internal/mail"
	"contactform/backend/internal/middleware"
	"contactform/backend/internal/monitoring"
	"contactform/backend/internal/security"
	"contactform/backend/internal/service"
	httptransport "contactform/backend/internal/transport/http"
)

// main 启动对外的线索表单服务
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting contact form server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.Int("max_submissions", cfg.Form.MaxSubmissions),
		zap.Duration("window", cfg.Form.Window),
	)

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// SMTP 配置在首次投递（或就绪检查）时才解析并缓存
	resolver := mail.NewResolver(log)
	mailer := mail.NewMailer(resolver, log, metrics, cfg.Form.EndpointTag)

	// 按客户端的滑动窗口限流器，进程内共享
	limiter := security.NewSlidingWindow(cfg.Form.MaxSubmissions, cfg.Form.Window)

	submissions := service.NewSubmissionService(cfg.Form.BaseURL, limiter, mailer, metrics, log)

	// 初始化健康检查
	healthChecker := health.NewChecker(resolver, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:      cfg,
		Submissions: submissions,
		Health:      healthChecker,
		Metrics:     metrics,
		Logger:      log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// SMTP 投递最多阻塞 20 秒，写超时必须大于它
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: middleware.FormBodyLimit,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理限流表中空闲客户端键的 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(cfg.Form.Window)
		defer ticker.Stop()

		log.Info("starting rate limit sweep task", zap.Duration("interval", cfg.Form.Window))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("rate limit sweep task stopped")
				return nil
			case <-ticker.C:
				removed := limiter.Sweep(time.Now())
				if removed > 0 {
					log.Info("idle rate limit entries swept",
						zap.Int("removed", removed),
						zap.Int("remaining", limiter.Size()),
					)
				}
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
