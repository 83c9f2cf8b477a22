// Package handler maps HTTP requests onto the services and writes every
// outcome as an accessible response envelope.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/middleware"
	"accessible-backend/internal/model"
	"accessible-backend/internal/response"
	"accessible-backend/internal/utils"
)

// bindJSON decodes the body into dst, writing a validation envelope and
// returning false when it cannot.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.WriteError(c, utils.BindingError(err))
		return false
	}
	return true
}

// currentUser returns the authenticated user or writes a 401 envelope.
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.WriteError(c, apperr.New(apperr.ErrUnauthorized, "Not authorized. Sign in to continue").WithFocus("login-form"))
		return nil, false
	}
	return user, true
}

func respondOK(c *gin.Context, message string, data map[string]any, hints *response.Hints) {
	utils.WriteEnvelope(c, http.StatusOK, response.Success(message, data, hints))
}

func respondInfo(c *gin.Context, message, announcement string, data map[string]any) {
	utils.WriteEnvelope(c, http.StatusOK, response.Build(response.Input{
		Success:       true,
		Message:       message,
		Type:          response.MessageInfo,
		Data:          data,
		Accessibility: &response.Hints{Announcement: announcement},
	}))
}
