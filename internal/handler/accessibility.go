package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/model"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
	"accessible-backend/internal/utils"
)

type AccessibilityHandler struct {
	svc *service.AccessibilityService
}

func NewAccessibilityHandler(svc *service.AccessibilityService) *AccessibilityHandler {
	return &AccessibilityHandler{svc: svc}
}

// GetPreferences handles GET /api/v1/accessibility/preferences.
func (h *AccessibilityHandler) GetPreferences(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}

	prefs, err := h.svc.GetPreferences(c.Request.Context(), user.ID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	respondOK(c, "Accessibility preferences loaded", map[string]any{"preferences": prefs}, &response.Hints{
		Announcement: "Accessibility settings loaded",
	})
}

// UpdatePreferences handles PUT /api/v1/accessibility/preferences.
func (h *AccessibilityHandler) UpdatePreferences(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}

	var req model.PreferencesUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.svc.UpdatePreferences(c.Request.Context(), user.ID, c.Request.UserAgent(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	if len(change.Updated) == 0 {
		respondInfo(c, "There are no preferences to update", "No settings were changed", map[string]any{
			"preferences": change.Preferences,
		})
		return
	}

	respondOK(c, "Accessibility preferences updated successfully", map[string]any{
		"updated_preferences": change.Updated,
		"preferences":         change.Preferences,
	}, &response.Hints{Announcement: change.Announcement()})
}

// DetectCapabilities handles POST /api/v1/accessibility/detect-capabilities.
func (h *AccessibilityHandler) DetectCapabilities(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}

	var caps model.DeviceCapabilities
	if !bindJSON(c, &caps) {
		return
	}

	report := h.svc.DetectCapabilities(c.Request.Context(), user.ID, c.Request.UserAgent(), caps)
	n := len(report.Suggestions)
	respondOK(c, fmt.Sprintf("Device capabilities detected. %d suggestions available.", n), map[string]any{
		"detected_capabilities":     report.Capabilities,
		"configuration_suggestions": report.Suggestions,
	}, &response.Hints{
		Announcement: fmt.Sprintf("Device analyzed. %d configuration suggestions available.", n),
	})
}

// VoiceCommands handles GET /api/v1/accessibility/voice-commands.
func (h *AccessibilityHandler) VoiceCommands(c *gin.Context) {
	catalog := h.svc.VoiceCommands(c.Query("accessibility_level"), c.Query("category"))
	summary := service.CatalogSummary(catalog)

	respondOK(c, summary, map[string]any{
		"voice_commands":       catalog.Commands,
		"commands_by_category": catalog.ByCategory,
		"available_categories": catalog.Categories,
		"total_commands":       catalog.Total,
	}, &response.Hints{Announcement: summary})
}

// LogUsage handles POST /api/v1/accessibility/log-usage.
func (h *AccessibilityHandler) LogUsage(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}

	var req model.UsageLogRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.LogUsage(c.Request.Context(), user.ID, c.Request.UserAgent(), req); err != nil {
		utils.WriteError(c, err)
		return
	}
	respondOK(c, "Feature usage recorded successfully", nil, &response.Hints{
		Announcement: "Activity recorded to improve your experience",
	})
}
