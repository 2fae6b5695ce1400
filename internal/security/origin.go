package security

import (
	"net/url"
	"strings"
)

// SameOrigin 判断请求声明的来源是否与服务自身地址同源
//
// headerURL 取自 Origin 头，缺失时取 Referer 头；两者都缺失时传入空串。
// 空串返回 true：很多正常客户端不带这两个头，放行后仍有限流兜底。
// 匹配规则：headerURL 以 ownBase 为字面前缀，或解析出的 scheme+host
// 与 ownBase 完全相等。无法解析的 URL 一律视为不匹配，不产生错误。
func SameOrigin(headerURL, ownBase string) bool {
	base := strings.TrimRight(ownBase, "/")
	if headerURL == "" {
		return true
	}
	if strings.HasPrefix(headerURL, base) {
		return true
	}
	parsed, err := url.Parse(headerURL)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != "" && parsed.Scheme+"://"+parsed.Host == base
}
