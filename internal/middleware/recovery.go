package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/response"
	"accessible-backend/internal/utils"
	"accessible-backend/pkg/logger"
)

// Recovery turns a panic into a 500 error envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.WithFields(logger.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"panic":  fmt.Sprint(recovered),
		}).Error("panic recovered")

		utils.AbortWithEnvelope(c, http.StatusInternalServerError, response.Failure(
			"An unexpected error occurred. Please try again.",
			&response.Hints{
				Announcement: "Server error. Please try again in a few moments.",
				FocusElement: "error-message",
			},
		))
	})
}
