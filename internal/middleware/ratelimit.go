package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/metrics"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
	"accessible-backend/internal/utils"
	"accessible-backend/pkg/logger"
)

// RateLimit enforces the named rule per user, or per client IP for
// anonymous requests. Users who need accommodation get the larger
// allowance.
func RateLimit(limiter *service.RateLimiter, rule string, authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !limiter.Enabled() {
			c.Next()
			return
		}

		decision, ok := decide(c, limiter, rule, authn)
		if !ok || decision.Allowed {
			c.Next()
			return
		}

		retry := int(math.Ceil(decision.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}

		h := c.Writer.Header()
		h.Set("Retry-After", strconv.Itoa(retry))
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", "0")
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		h.Set("X-Accessibility-Bonus", strconv.FormatBool(decision.Bonus))

		metrics.ObserveRateLimited(rule, decision.Bonus)
		logger.WithFields(logger.Fields{
			"rule":      rule,
			"client_ip": clientIP(c),
			"bonus":     decision.Bonus,
		}).Warn("rate limit exceeded")

		message := fmt.Sprintf("Request limit exceeded. Wait %d seconds before trying again.", retry)
		utils.AbortWithEnvelope(c, http.StatusTooManyRequests, response.Build(response.Input{
			Success: false,
			Message: message,
			Type:    response.MessageWarning,
			Accessibility: &response.Hints{
				Announcement: fmt.Sprintf("Limit exceeded. Wait %d seconds.", retry),
				FocusElement: "rate-limit-message",
			},
			Errors: []response.ErrorDetail{{
				Field:      response.GeneralField,
				Message:    message,
				Suggestion: fmt.Sprintf("Try again in %d seconds", retry),
				Code:       "TOO_MANY_REQUESTS",
			}},
		}))
	}
}

// decide fails open: a panic inside the limiter lets the request through.
func decide(c *gin.Context, limiter *service.RateLimiter, rule string, authn Authenticator) (d service.RateDecision, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("rate limiter failed for rule %s: %v", rule, r)
			ok = false
		}
	}()

	identity := "ip:" + clientIP(c)
	accessible := false
	if user := optionalUser(c, authn); user != nil {
		identity = "user:" + user.ID
		accessible = user.Accessibility.NeedsAccommodation()
	}
	return limiter.Allow(rule, identity, accessible), true
}

// clientIP prefers proxy headers over the peer address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}
	return "unknown"
}
