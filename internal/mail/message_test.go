package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactform/backend/internal/domain"
)

func testConfig() *Config {
	return &Config{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "leads@example.com",
		Password: "secret",
		To:       []string{"owner@example.com", "office@example.com"},
		From:     "no-reply@example.com",
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	sub := domain.Submission{
		Name:    "Jane Doe",
		Email:   "jane@customer.com",
		Phone:   "555-0137",
		Message: "Need a quote for a deck.",
	}

	msg := string(BuildMessage(testConfig(), sub, "contact-form/send"))
	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found, "message must contain a blank line between headers and body")

	assert.Contains(t, headers, "From: no-reply@example.com")
	assert.Contains(t, headers, "To: owner@example.com, office@example.com")
	assert.Contains(t, headers, "Reply-To: jane@customer.com")
	assert.Contains(t, headers, "Subject: New estimate request from Jane Doe")
	assert.Contains(t, headers, "X-Form-Endpoint: contact-form/send")
	assert.Contains(t, headers, "Message-ID: <")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=utf-8")

	assert.Contains(t, body, "Name:   Jane Doe")
	assert.Contains(t, body, "Email:  jane@customer.com")
	assert.Contains(t, body, "Phone:  555-0137")
	assert.Contains(t, body, "Message:\r\nNeed a quote for a deck.")
}

func TestBuildMessage_PhonePlaceholder(t *testing.T) {
	sub := domain.Submission{
		Name:    "Jane Doe",
		Email:   "jane@customer.com",
		Message: "hello",
	}

	msg := string(BuildMessage(testConfig(), sub, "contact-form/send"))

	assert.Contains(t, msg, "Phone:  -")
}

func TestBuildMessage_CRLFLineEndings(t *testing.T) {
	sub := domain.Submission{
		Name:    "Jane Doe",
		Email:   "jane@customer.com",
		Message: "line one\nline two",
	}

	msg := string(BuildMessage(testConfig(), sub, "contact-form/send"))

	// SMTP 报文中不允许出现裸 LF
	assert.NotContains(t, strings.ReplaceAll(msg, "\r\n", ""), "\n")
}
