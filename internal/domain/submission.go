package domain

// Submission 表示一次已通过清洗的表单提交
//
// 仅在单次请求的处理过程中存在，管道执行完毕即丢弃，从不持久化。
type Submission struct {
	Name    string // 必填
	Email   string // 必填，同时作为出站邮件的 Reply-To
	Phone   string // 可选
	Message string // 必填
}

// Outcome 表示提交管道的最终处理结果
type Outcome int

const (
	// OutcomeAccepted 提交有效且邮件成功投递
	OutcomeAccepted Outcome = iota

	// OutcomeRejectedHoneypot 蜜罐字段非空，判定为机器人提交
	OutcomeRejectedHoneypot

	// OutcomeRejectedOrigin Origin/Referer 与服务自身地址不匹配
	OutcomeRejectedOrigin

	// OutcomeRejectedRateLimit 客户端在滑动窗口内提交次数超限
	OutcomeRejectedRateLimit

	// OutcomeRejectedValidation 必填字段清洗后为空或输入超长
	OutcomeRejectedValidation

	// OutcomeDeliveryFailed SMTP 投递失败（对提交者仍伪装为成功）
	OutcomeDeliveryFailed
)

// String 返回结果的稳定标识，用于日志和监控指标标签
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedHoneypot:
		return "rejected_honeypot"
	case OutcomeRejectedOrigin:
		return "rejected_origin"
	case OutcomeRejectedRateLimit:
		return "rejected_rate_limit"
	case OutcomeRejectedValidation:
		return "rejected_validation"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}
