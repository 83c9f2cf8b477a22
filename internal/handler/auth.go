package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/model"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
	"accessible-backend/internal/utils"
)

type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.WriteEnvelope(c, http.StatusCreated, response.Success(
		"Account created successfully",
		map[string]any{
			"user":                    result.User,
			"tokens":                  result.Tokens,
			"verification_email_sent": result.VerificationSent,
		},
		&response.Hints{
			Announcement: "Account created successfully. You are now signed in.",
			FocusElement: "success-message",
		},
	))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	greeting := "Welcome back"
	if name := result.User.Profile.FirstName; name != "" {
		greeting += ", " + name
	}
	respondOK(c, greeting, map[string]any{
		"user":   result.User,
		"tokens": result.Tokens,
	}, &response.Hints{
		Announcement: "Signed in successfully. " + greeting + ".",
		FocusElement: "main-content",
	})
}

const forgotPasswordMessage = "If the email exists in our system, you will receive instructions to reset your password."

// ForgotPassword handles POST /api/v1/auth/forgot-password. The reply is the
// same whether or not the address is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, forgotPasswordMessage, nil, &response.Hints{
		Announcement: "Request received. Check your inbox for instructions.",
		FocusElement: "success-message",
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req); err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, "Password reset successfully", nil, &response.Hints{
		Announcement: "Your password has been changed. You can now sign in with the new password.",
		FocusElement: "login-form",
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, "Email verified successfully", nil, &response.Hints{
		Announcement: "Your email address has been verified.",
		FocusElement: "login-form",
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	respondOK(c, "Session renewed successfully", map[string]any{
		"tokens": result.Tokens,
	}, &response.Hints{Announcement: "Session renewed"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	respondOK(c, "Current user loaded", map[string]any{"user": user}, nil)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so this only
// records the event.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, found := currentUser(c)
	if !found {
		return
	}
	h.users.RecordLogout(c.Request.Context(), user.ID, c.Request.UserAgent())

	respondOK(c, "Signed out successfully", nil, &response.Hints{
		Announcement: "Signed out. See you soon.",
		FocusElement: "login-form",
	})
}
