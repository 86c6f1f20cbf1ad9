package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
)

// RequireRole lets the request through when the user holds any of kinds.
// It must run after AuthenticateToken.
func RequireRole(kinds ...models.RoleKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := AuthUser(c)
		if !exists {
			utils.RespondMessage(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		for _, kind := range kinds {
			if user.IsRole(kind) {
				c.Next()
				return
			}
		}

		utils.RespondMessage(c, http.StatusForbidden, "unauthorized")
		c.Abort()
	}
}
