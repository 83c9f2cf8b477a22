package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/response"
	"accessible-backend/internal/utils"
	"accessible-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	version string
}

func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	respondInfo(c, "Accessible API for people with visual impairments", "Accessibility API is running", map[string]any{
		"version":      h.version,
		"health_check": "/api/v1/health",
		"accessibility_features": map[string]bool{
			"structured_responses":   true,
			"screen_reader_friendly": true,
			"descriptive_errors":     true,
			"voice_command_support":  true,
			"extended_timeouts":      true,
		},
	})
}

// Health handles GET /api/v1/health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.WithFields(logger.Fields{"error": err.Error()}).Error("database ping failed")
		utils.WriteEnvelope(c, http.StatusServiceUnavailable, response.Failure(
			"The service has connectivity problems",
			&response.Hints{Announcement: "The system is having technical problems"},
			response.ErrorDetail{
				Field:      "database",
				Message:    "The database is not reachable",
				Suggestion: "Try again in a few moments",
				Code:       "SERVICE_UNAVAILABLE",
			},
		))
		return
	}

	respondOK(c, "The service is working correctly", map[string]any{
		"status":                 "healthy",
		"database":               "connected",
		"accessibility_features": "enabled",
		"version":                h.version,
	}, &response.Hints{Announcement: "System online and working"})
}

// AccessibilityHealth handles GET /api/v1/health/accessibility.
func (h *HealthHandler) AccessibilityHealth(c *gin.Context) {
	features := map[string]bool{
		"structured_responses":    true,
		"descriptive_errors":      true,
		"screen_reader_support":   true,
		"voice_command_ready":     true,
		"extended_timeouts":       true,
		"inclusive_rate_limiting": true,
		"accessibility_headers":   true,
		"tts_friendly_messages":   true,
	}
	working := 0
	for _, on := range features {
		if on {
			working++
		}
	}

	respondOK(c, "Accessibility features verified", map[string]any{
		"accessibility_features": features,
		"overall_status":         "accessible",
		"features_count":         len(features),
		"working_features":       working,
	}, &response.Hints{Announcement: "All accessibility features are working"})
}
