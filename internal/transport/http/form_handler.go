package httptransport

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contactform/backend/internal/domain"
	"contactform/backend/internal/service"
)

// 对提交者只给出笼统的错误描述，不暴露字段级细节
const (
	msgInvalidOrigin   = "invalid origin"
	msgMissingFields   = "missing required fields"
	msgTooManyRequests = "too many submissions, try again later"
)

// FormHandler 处理表单提交端点
type FormHandler struct {
	submissions *service.SubmissionService
}

// NewFormHandler 创建表单处理器
func NewFormHandler(submissions *service.SubmissionService) *FormHandler {
	return &FormHandler{submissions: submissions}
}

// HandleSend 处理 POST /send
//
// 蜜罐命中、投递成功和投递失败都以 303 重定向到 /thanks 收尾
// （对机器人不暴露任何区别）；同源校验失败和字段校验失败返回 400，
// 限流返回 429。303 保证浏览器用 GET 跟随重定向。
func (h *FormHandler) HandleSend(c *gin.Context) {
	in := service.FormInput{
		Company: c.PostForm("company"),
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Phone:   c.PostForm("phone"),
		Message: c.PostForm("message"),
	}
	meta := service.RequestMeta{
		ClientID: clientIdentity(c),
		Origin:   c.GetHeader("Origin"),
		Referer:  c.GetHeader("Referer"),
	}

	switch h.submissions.Process(in, meta) {
	case domain.OutcomeAccepted, domain.OutcomeRejectedHoneypot, domain.OutcomeDeliveryFailed:
		c.Redirect(http.StatusSeeOther, "/thanks")
	case domain.OutcomeRejectedOrigin:
		c.String(http.StatusBadRequest, msgInvalidOrigin)
	case domain.OutcomeRejectedRateLimit:
		c.String(http.StatusTooManyRequests, msgTooManyRequests)
	default:
		c.String(http.StatusBadRequest, msgMissingFields)
	}
}

// clientIdentity 解析客户端标识
//
// 优先取 X-Forwarded-For 的第一项，其次是直连地址，最后退到 "unknown"。
func clientIdentity(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
		return host
	}
	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}
	return "unknown"
}
