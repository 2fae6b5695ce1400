package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FormBodyLimit 表单提交端点的请求体上限，保持很小即可
const FormBodyLimit = 16 * 1024 // 16KB

// BodySizeLimit 限制请求体大小的中间件
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Content-Length 已声明超限的请求直接拒绝
		if c.Request.ContentLength > maxBytes {
			c.String(http.StatusRequestEntityTooLarge, "request body too large")
			c.Abort()
			return
		}

		// 限制实际读取量，防止 Content-Length 造假
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		c.Next()
	}
}
