package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
)

const (
	authUserKey  = "authUser"
	authTokenKey = "authToken"
)

// TokenVerifier checks a bearer token and returns its user.
type TokenVerifier interface {
	Verify(token string) (*models.AuthUser, error)
}

// SessionChecker reports whether a token has not been revoked.
type SessionChecker interface {
	IsActive(ctx context.Context, token string) (bool, error)
}

// SetAuthUser resolves the bearer token of every request. A token counts only
// while its session is active and its signature verifies; otherwise the
// request simply carries no user.
func SetAuthUser(verifier TokenVerifier, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		active, err := sessions.IsActive(c.Request.Context(), token)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("session lookup failed")
		}
		if active {
			if user, err := verifier.Verify(token); err == nil {
				c.Set(authUserKey, user)
				c.Set(authTokenKey, token)
			}
		}
		c.Next()
	}
}

// AuthenticateToken rejects requests without a resolved user.
func AuthenticateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := AuthUser(c); !ok {
			utils.RespondMessage(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthUser returns the user resolved by SetAuthUser.
func AuthUser(c *gin.Context) (*models.AuthUser, bool) {
	v, ok := c.Get(authUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.AuthUser)
	return user, ok
}

// AuthToken returns the raw bearer token of an authenticated request.
func AuthToken(c *gin.Context) string {
	return c.GetString(authTokenKey)
}
