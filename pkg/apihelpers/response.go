package apihelpers

import (
	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/validation"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func RespondData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func RespondMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func RespondError(c *gin.Context, status int, message string, fieldErrors ...validation.FieldError) {
	c.JSON(status, Envelope{Success: false, Message: message, Errors: fieldErrors})
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}
