package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/config"
	"accessible-backend/internal/metrics"
	"accessible-backend/internal/middleware"
	"accessible-backend/internal/response"
	"accessible-backend/internal/service"
	"accessible-backend/internal/utils"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Accessibility *AccessibilityHandler
	Health        *HealthHandler
}

// SetupRouter builds the gin engine with the middleware chain and every
// route.
func SetupRouter(cfg *config.Config, h Handlers, authn middleware.Authenticator, limiter *service.RateLimiter) *gin.Engine {
	utils.UseJSONFieldNames()

	router := gin.New()
	router.HandleMethodNotAllowed = true

	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
	}
	router.Use(middleware.Accessibility())
	router.Use(middleware.AccessLog())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS)))

	router.NoRoute(func(c *gin.Context) {
		writeStatus(c, http.StatusNotFound, apperr.ErrNotFound, "The requested resource was not found", "Check the address and try again")
	})
	router.NoMethod(func(c *gin.Context) {
		writeStatus(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "This method is not allowed for the resource", "Check the HTTP method and try again")
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	router.GET("/", h.Health.Root)

	requireAuth := middleware.RequireAuth(authn)
	general := middleware.RateLimit(limiter, config.RuleAPIGeneral, authn)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Health)
		v1.GET("/health/accessibility", h.Health.AccessibilityHealth)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimit(limiter, config.RuleRegister, authn), h.Auth.Register)
			authGroup.POST("/login", middleware.RateLimit(limiter, config.RuleLogin, authn), h.Auth.Login)
			authGroup.POST("/refresh", general, h.Auth.Refresh)

			reset := middleware.RateLimit(limiter, config.RulePasswordReset, authn)
			authGroup.POST("/forgot-password", reset, h.Auth.ForgotPassword)
			authGroup.POST("/reset-password", reset, h.Auth.ResetPassword)
			authGroup.POST("/verify-email", reset, h.Auth.VerifyEmail)
			authGroup.GET("/me", general, requireAuth, h.Auth.Me)
			authGroup.POST("/logout", general, requireAuth, h.Auth.Logout)
		}

		users := v1.Group("/users", general, requireAuth)
		{
			users.GET("/profile", h.Users.GetProfile)
			users.PUT("/profile", h.Users.UpdateProfile)
			users.DELETE("/account", h.Users.DeleteAccount)
			users.GET("/activity-log", h.Users.ActivityLog)
		}

		a11y := v1.Group("/accessibility")
		{
			a11y.GET("/voice-commands", general, h.Accessibility.VoiceCommands)

			prefs := middleware.RateLimit(limiter, config.RuleAccessibilityUpdate, authn)
			a11y.GET("/preferences", prefs, requireAuth, h.Accessibility.GetPreferences)
			a11y.PUT("/preferences", prefs, requireAuth, h.Accessibility.UpdatePreferences)
			a11y.POST("/detect-capabilities", general, requireAuth, h.Accessibility.DetectCapabilities)
			a11y.POST("/log-usage", general, requireAuth, h.Accessibility.LogUsage)
		}
	}

	return router
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     c.AllowedMethods,
		AllowHeaders:     c.AllowedHeaders,
		ExposeHeaders:    response.ExposedHeaders(),
		AllowCredentials: c.AllowCredentials,
		MaxAge:           time.Duration(c.MaxAge) * time.Second,
	}
	if len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

func writeStatus(c *gin.Context, status int, code apperr.Code, detail, suggestion string) {
	message := utils.StatusMessage(status)
	utils.WriteEnvelope(c, status, response.Failure(message, &response.Hints{
		FocusElement: "error-message",
	}, response.ErrorDetail{
		Field:      response.GeneralField,
		Message:    detail,
		Suggestion: suggestion,
		Code:       string(code),
	}))
}
