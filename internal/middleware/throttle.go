package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle 全局令牌桶限流中间件
//
// 与提交管道内按客户端的滑动窗口限流互补：这里是整个服务的
// 入口兜底，不区分客户端，防止单纯的请求洪水打穿后面的逻辑。
func Throttle(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.String(http.StatusTooManyRequests, "too many requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

// StaticCache 为静态资源添加缓存响应头
func StaticCache(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d, immutable", int(maxAge.Seconds()))

	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
