package httptransport

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contactform/backend/internal/config"
	"contactform/backend/internal/domain"
	"contactform/backend/internal/health"
	"contactform/backend/internal/mail"
	"contactform/backend/internal/monitoring"
	"contactform/backend/internal/security"
	"contactform/backend/internal/service"
)

type recordingSender struct {
	sent []domain.Submission
	err  error
}

func (r *recordingSender) Send(sub domain.Submission) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sub)
	return nil
}

func newTestRouter(t *testing.T, sender service.Sender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Form: config.FormConfig{
			BaseURL:        "http://localhost:8080",
			MaxSubmissions: 5,
			Window:         time.Hour,
			EndpointTag:    "contact-form/send",
			StaticDir:      t.TempDir(),
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		Log:  config.LogConfig{Level: "info"},
	}

	log := zap.NewNop()
	metrics := monitoring.NewMetrics()
	limiter := security.NewSlidingWindow(cfg.Form.MaxSubmissions, cfg.Form.Window)
	submissions := service.NewSubmissionService(cfg.Form.BaseURL, limiter, sender, metrics, log)
	checker := health.NewChecker(mail.NewResolver(log), log)

	return NewRouter(RouterDependencies{
		Config:      cfg,
		Submissions: submissions,
		Health:      checker,
		Metrics:     metrics,
		Logger:      log,
	})
}

func postForm(router *gin.Engine, form url.Values, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.7:51234"
	if mutate != nil {
		mutate(req)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validForm() url.Values {
	return url.Values{
		"name":    {"Jane Doe"},
		"email":   {"jane@customer.com"},
		"phone":   {"555-0137"},
		"message": {"Need a quote for a deck."},
	}
}

func TestHandleSend_ValidSubmissionRedirects(t *testing.T) {
	sender := &recordingSender{}
	router := newTestRouter(t, sender)

	w := postForm(router, validForm(), nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/thanks", w.Header().Get("Location"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@customer.com", sender.sent[0].Email)
}

func TestHandleSend_HoneypotRedirectsLikeSuccess(t *testing.T) {
	sender := &recordingSender{}
	router := newTestRouter(t, sender)

	form := validForm()
	form.Set("company", "Totally Legit LLC")
	w := postForm(router, form, nil)

	// 对机器人伪装为成功，响应与正常提交完全一致
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/thanks", w.Header().Get("Location"))
	assert.Empty(t, sender.sent)
}

func TestHandleSend_DeliveryFailureStillRedirects(t *testing.T) {
	sender := &recordingSender{err: assert.AnError}
	router := newTestRouter(t, sender)

	w := postForm(router, validForm(), nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/thanks", w.Header().Get("Location"))
}

func TestHandleSend_MissingFields(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	form := validForm()
	form.Del("email")
	w := postForm(router, form, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing required fields")
}

func TestHandleSend_OriginMismatch(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	w := postForm(router, validForm(), func(req *http.Request) {
		req.Header.Set("Referer", "https://evil.com/form")
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid origin")
}

func TestHandleSend_RateLimited(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	withClient := func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	}
	for i := 0; i < 5; i++ {
		w := postForm(router, validForm(), withClient)
		assert.Equal(t, http.StatusSeeOther, w.Code, "submission %d", i+1)
	}

	w := postForm(router, validForm(), withClient)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 不同的转发地址仍然放行
	w = postForm(router, validForm(), func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "198.51.100.10")
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestSecurityHeadersPresent(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	w := postForm(router, validForm(), nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "same-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "form-action 'self'")
	assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
}

func TestOversizedBodyRejected(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	huge := strings.NewReader(strings.Repeat("a", 17*1024))
	req := httptest.NewRequest(http.MethodPost, "/send", huge)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLivenessEndpoint(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &recordingSender{})

	postForm(router, validForm(), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contactform_submissions_total")
}

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		expected   string
	}{
		{"First forwarded entry wins", "198.51.100.9, 10.0.0.1", "203.0.113.7:51234", "198.51.100.9"},
		{"Forwarded entry trimmed", "  198.51.100.9 ", "203.0.113.7:51234", "198.51.100.9"},
		{"Falls back to remote address", "", "203.0.113.7:51234", "203.0.113.7"},
		{"Remote address without port", "", "203.0.113.7", "203.0.113.7"},
		{"Nothing available", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/send", nil)
			c.Request.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.expected, clientIdentity(c))
		})
	}
}
