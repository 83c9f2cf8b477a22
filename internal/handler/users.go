package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/model"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
	"accessible-backend/internal/utils"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetProfile handles GET /api/v1/users/profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	current, found := currentUser(c)
	if !found {
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), current.ID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	respondOK(c, "Profile loaded successfully", map[string]any{"user": user}, nil)
}

// UpdateProfile handles PUT /api/v1/users/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current, found := currentUser(c)
	if !found {
		return
	}

	var req model.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, updated, err := h.users.UpdateProfile(c.Request.Context(), current.ID, req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	if len(updated) == 0 {
		respondInfo(c, "There are no profile changes to save", "No changes were made to the profile", map[string]any{"user": user})
		return
	}

	respondOK(c, "Profile updated successfully", map[string]any{
		"user":           user,
		"updated_fields": updated,
	}, nil)
}

// DeleteAccount handles DELETE /api/v1/users/account.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	current, found := currentUser(c)
	if !found {
		return
	}

	var req model.DeleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), current, req); err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, "Account deleted successfully. We are sorry to see you go.", nil, &response.Hints{
		Announcement: "Account deleted. You will be taken to the home page.",
		FocusElement: "main-content",
	})
}

// ActivityLog handles GET /api/v1/users/activity-log.
func (h *UserHandler) ActivityLog(c *gin.Context) {
	current, found := currentUser(c)
	if !found {
		return
	}

	limit := service.DefaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(c, apperr.Validation("The limit is not valid", apperr.FieldError{
				Field:      "limit",
				Message:    "Limit must be a whole number",
				Suggestion: "Use a limit between 1 and 100",
			}))
			return
		}
		limit = n
	}

	events, err := h.users.ActivityLog(c.Request.Context(), current.ID, limit)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, fmt.Sprintf("Found %d events in your activity history", len(events)), map[string]any{
		"activity_logs": events,
		"total_count":   len(events),
	}, &response.Hints{
		Announcement: fmt.Sprintf("History loaded. %d events found.", len(events)),
	})
}
