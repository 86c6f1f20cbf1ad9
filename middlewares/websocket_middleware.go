package middlewares

import (
	"github.com/gin-gonic/gin"
)

// WebSocketToken moves a ?token= query parameter into the Authorization
// header, since browsers cannot set headers on websocket upgrades. It must
// run before SetAuthUser.
func WebSocketToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
