package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// HeaderFieldLimit 头部字段（姓名、邮箱、电话）清洗后的默认长度上限
	HeaderFieldLimit = 255

	// BodyLimit 留言正文清洗后的默认长度上限
	BodyLimit = 5000

	// oversizeFactor 原始输入超过上限的此倍数时直接拒绝，不再截断
	oversizeFactor = 4
)

// ErrInputTooLong 原始输入长度超过 4 倍上限时返回
var ErrInputTooLong = errors.New("input too long")

var headerScrubber = strings.NewReplacer("\r", " ", "\n", " ")

// CleanHeaderField 清洗将写入邮件头的用户输入
//
// 把 CR/LF 各替换为单个空格（防止 CRLF 头注入），去除首尾空白，
// 并截断到 limit 个字符。原始输入超过 4×limit 时返回 ErrInputTooLong。
func CleanHeaderField(raw string, limit int) (string, error) {
	if utf8.RuneCountInString(raw) > limit*oversizeFactor {
		return "", ErrInputTooLong
	}
	cleaned := strings.TrimSpace(headerScrubber.Replace(raw))
	return truncate(cleaned, limit), nil
}

// CleanBody 清洗留言正文
//
// 把 \r\n 和裸 \r 统一归一化为 \n，去除首尾空白，截断到 limit 个字符。
// 原始输入超过 4×limit 时返回 ErrInputTooLong。
func CleanBody(raw string, limit int) (string, error) {
	if utf8.RuneCountInString(raw) > limit*oversizeFactor {
		return "", ErrInputTooLong
	}
	cleaned := strings.ReplaceAll(raw, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	cleaned = strings.TrimSpace(cleaned)
	return truncate(cleaned, limit), nil
}

// truncate 按字符（rune）截断，避免把多字节字符切成半个
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
