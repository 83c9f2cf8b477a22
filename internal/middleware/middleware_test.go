package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/config"
	"accessible-backend/internal/model"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator map[string]*model.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return nil, apperr.New(apperr.ErrInvalidToken, "Session expired").WithFocus("login-form")
}

func serve(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAccessibility_StaticAndTimingHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Accessibility())
	r.GET("/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"assistive": IsAssistive(c)})
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	for _, kv := range response.StaticHeaders() {
		assert.Equal(t, kv[1], w.Header().Get(kv[0]), kv[0])
	}
	assert.NotEmpty(t, w.Header().Get(response.HeaderProcessTime))
	assert.Empty(t, w.Header().Get(response.HeaderAssistiveTechDetected))
	assert.JSONEq(t, `{"assistive":false}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(response.HeaderProcessTime))
}

func TestAccessibility_AssistiveUserAgent(t *testing.T) {
	r := gin.New()
	r.Use(Accessibility())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"assistive": IsAssistive(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 NVDA/2024.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "true", w.Header().Get(response.HeaderAssistiveTechDetected))
	assert.Equal(t, "true", w.Header().Get(response.HeaderExtendedTimeout))
	assert.JSONEq(t, `{"assistive":true}`, w.Body.String())
}

func TestRecovery_ReturnsServerErrorEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w, env := serve(t, r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, response.MessageError, env.MessageType)
	assert.Equal(t, "error-message", env.AccessibilityInfo.FocusElement)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestRequireAuth(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "ana@example.com"}
	r := gin.New()
	r.GET("/me", RequireAuth(stubAuthenticator{"good": user}), func(c *gin.Context) {
		current, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": current.ID})
	})

	t.Run("missing header", func(t *testing.T) {
		w, env := serve(t, r, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "login-form", env.AccessibilityInfo.FocusElement)
		require.NotEmpty(t, env.Errors)
		assert.Equal(t, string(apperr.ErrUnauthorized), env.Errors[0].Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w, env := serve(t, r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(apperr.ErrInvalidToken), env.Errors[0].Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic good")
		w, _ := serve(t, r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u-1"}`, w.Body.String())
	})
}

func rateRouter(authn Authenticator) *gin.Engine {
	limiter := service.NewRateLimiter(config.RateLimitConfig{
		Enabled:      true,
		RequestBonus: 1.5,
		WindowBonus:  1.2,
		Rules: map[string]config.RateRule{
			config.RuleLogin: {MaxRequests: 2, Window: time.Minute},
		},
	})
	r := gin.New()
	r.POST("/login", RateLimit(limiter, config.RuleLogin, authn), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimit_RejectsWithWarningEnvelope(t *testing.T) {
	r := rateRouter(nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	w, env := serve(t, r, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.MessageWarning, env.MessageType)
	assert.Equal(t, response.HapticWarning, env.AccessibilityInfo.HapticPattern)
	assert.Equal(t, "rate-limit-message", env.AccessibilityInfo.FocusElement)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "false", w.Header().Get("X-Accessibility-Bonus"))

	// A different client has its own bucket.
	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.Header.Set("X-Forwarded-For", "10.0.0.9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AccessibilityBonus(t *testing.T) {
	user := &model.User{ID: "u-2"}
	user.Accessibility.ScreenReaderUser = true
	r := rateRouter(stubAuthenticator{"reader": user})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("Authorization", "Bearer reader")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, send().Code, "request %d", i+1)
	}
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "true", w.Header().Get("X-Accessibility-Bonus"))
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := service.NewRateLimiter(config.RateLimitConfig{Enabled: false})
	r := gin.New()
	r.GET("/", RateLimit(limiter, config.RuleLogin, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestClientIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(c))

	c.Request.Header.Set("X-Real-IP", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", clientIP(c))

	c.Request.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(c))
}
