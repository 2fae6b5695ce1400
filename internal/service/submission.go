package service

import (
	"time"

	"go.uber.org/zap"

	"contactform/backend/internal/domain"
	"contactform/backend/internal/monitoring"
	"contactform/backend/internal/security"
)

// Sender 出站邮件投递，由 mail.Mailer 实现
type Sender interface {
	Send(sub domain.Submission) error
}

// FormInput 外部 HTTP 层收集到的原始表单字段，未经任何清洗
type FormInput struct {
	Company string // 蜜罐字段，正常用户永远不会填写
	Name    string
	Email   string
	Phone   string
	Message string
}

// RequestMeta 随表单一起传入的请求元数据
type RequestMeta struct {
	ClientID string // 客户端标识（XFF 首项或直连地址），空串按 "unknown" 处理
	Origin   string // Origin 头，可为空
	Referer  string // Referer 头，可为空
}

// SubmissionService 提交处理管道
//
// 按固定顺序执行 蜜罐 → 同源校验 → 限流 → 字段校验 → 邮件投递，
// 任一阶段拒绝即短路，产出单一的 Outcome 交给外部 HTTP 层决定响应。
type SubmissionService struct {
	baseURL string
	limiter *security.SlidingWindow
	sender  Sender
	metrics *monitoring.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewSubmissionService 创建提交处理管道
func NewSubmissionService(baseURL string, limiter *security.SlidingWindow, sender Sender, metrics *monitoring.Metrics, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		baseURL: baseURL,
		limiter: limiter,
		sender:  sender,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Process 处理一次表单提交，返回最终结果
func (s *SubmissionService) Process(in FormInput, meta RequestMeta) domain.Outcome {
	outcome := s.run(in, meta)
	s.metrics.RecordSubmission(outcome.String())
	return outcome
}

func (s *SubmissionService) run(in FormInput, meta RequestMeta) domain.Outcome {
	honeypot, err := domain.CleanHeaderField(in.Company, domain.HeaderFieldLimit)
	if err != nil {
		s.log.Warn("invalid submission (oversized field)", zap.Error(err))
		return domain.OutcomeRejectedValidation
	}
	if honeypot != "" {
		s.log.Info("honeypot triggered; dropping submission")
		return domain.OutcomeRejectedHoneypot
	}

	headerURL := meta.Origin
	if headerURL == "" {
		headerURL = meta.Referer
	}
	if !security.SameOrigin(headerURL, s.baseURL) {
		s.log.Warn("rejected submission: origin mismatch", zap.String("header_url", headerURL))
		return domain.OutcomeRejectedOrigin
	}

	clientID := meta.ClientID
	if clientID == "" {
		clientID = "unknown"
	}
	if !s.limiter.Allow(clientID, s.now()) {
		s.log.Warn("rate limit exceeded", zap.String("client_id", clientID))
		return domain.OutcomeRejectedRateLimit
	}

	sub, ok := s.sanitize(in)
	if !ok {
		s.log.Warn("invalid submission (missing required fields)")
		return domain.OutcomeRejectedValidation
	}

	if err := s.sender.Send(sub); err != nil {
		// 对提交者伪装为成功，避免给探测工具反馈；完整原因只记服务端日志
		s.log.Error("failed to send lead email", zap.Error(err))
		return domain.OutcomeDeliveryFailed
	}

	return domain.OutcomeAccepted
}

// sanitize 清洗各字段并校验必填项，任何超长或必填为空都判为无效
func (s *SubmissionService) sanitize(in FormInput) (domain.Submission, bool) {
	name, err := domain.CleanHeaderField(in.Name, domain.HeaderFieldLimit)
	if err != nil {
		return domain.Submission{}, false
	}
	email, err := domain.CleanHeaderField(in.Email, domain.HeaderFieldLimit)
	if err != nil {
		return domain.Submission{}, false
	}
	phone, err := domain.CleanHeaderField(in.Phone, domain.HeaderFieldLimit)
	if err != nil {
		return domain.Submission{}, false
	}
	message, err := domain.CleanBody(in.Message, domain.BodyLimit)
	if err != nil {
		return domain.Submission{}, false
	}

	if name == "" || email == "" || message == "" {
		return domain.Submission{}, false
	}

	return domain.Submission{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Message: message,
	}, true
}
