package mail

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contactform/backend/internal/domain"
)

// BuildMessage 组装发给站点负责人的线索通知邮件
//
// Reply-To 设置为提交者的邮箱，方便直接回复；
// X-Form-Endpoint 标识邮件来自哪个表单端点。
// 传入的字段必须已经过 domain 包清洗，这里不再做头注入防护。
func BuildMessage(cfg *Config, sub domain.Submission, endpointTag string) []byte {
	phone := sub.Phone
	if phone == "" {
		phone = "-"
	}

	var buf bytes.Buffer
	writeHeader := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}

	writeHeader("From", cfg.From)
	writeHeader("To", strings.Join(cfg.To, ", "))
	writeHeader("Reply-To", sub.Email)
	writeHeader("Subject", fmt.Sprintf("New estimate request from %s", sub.Name))
	writeHeader("Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), cfg.Host))
	writeHeader("X-Form-Endpoint", endpointTag)
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/plain; charset=utf-8")
	buf.WriteString("\r\n")

	lines := []string{
		"A new lead was submitted from the website:",
		"",
		fmt.Sprintf("Name:   %s", sub.Name),
		fmt.Sprintf("Email:  %s", sub.Email),
		fmt.Sprintf("Phone:  %s", phone),
		"",
		"Message:",
		sub.Message,
	}
	buf.WriteString(strings.ReplaceAll(strings.Join(lines, "\n"), "\n", "\r\n"))
	buf.WriteString("\r\n")

	return buf.Bytes()
}
