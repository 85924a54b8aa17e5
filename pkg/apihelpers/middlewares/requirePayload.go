package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
)

// RequirePayload blocks requests that have no payload attached
func RequirePayload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength == 0 {
			slog.Debug("RequirePayload Middleware: payload missing", slog.String("path", c.Request.URL.Path))
			apihelpers.AbortWithError(c, http.StatusBadRequest, "payload missing")
			return
		}
		c.Next()
	}
}
