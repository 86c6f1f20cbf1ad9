package utils

import (
	"github.com/gin-gonic/gin"
)

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func RespondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, MessageResponse{Message: message})
}

// RespondError writes {"message": ...} with the status of err's kind.
// Internal causes are logged, never sent.
func RespondError(c *gin.Context, err error) {
	code := StatusCode(err)
	if code >= 500 {
		ErrorLogger.WithError(err).
			WithField("path", c.Request.URL.Path).
			Error("request failed")
	}
	RespondMessage(c, code, PublicMessage(err))
}
