package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/model"
	"accessible-backend/internal/utils"
)

const userKey = "current_user"

// Authenticator resolves a bearer access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user on the context.
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			utils.AbortWithError(c, apperr.New(apperr.ErrUnauthorized, "Not authorized. Sign in to continue").WithFocus("login-form"))
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// optionalUser resolves the bearer token when one is present, without
// failing the request when it is not valid.
func optionalUser(c *gin.Context, authn Authenticator) *model.User {
	if user, ok := CurrentUser(c); ok {
		return user
	}
	if authn == nil {
		return nil
	}
	token, ok := bearerToken(c)
	if !ok {
		return nil
	}
	user, err := authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	c.Set(userKey, user)
	return user
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
