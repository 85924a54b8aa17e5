package middlewares

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
)

const HeaderAPIKey = "X-API-Key"

// HasValidAPIKey protects internal endpoints such as /metrics. With no keys configured the
// endpoint stays open.
func HasValidAPIKey(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(validKeys) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderAPIKey)
		for _, vk := range validKeys {
			if vk != "" && subtle.ConstantTimeCompare([]byte(key), []byte(vk)) == 1 {
				c.Next()
				return
			}
		}

		slog.Warn("a valid API key missing", slog.String("path", c.Request.URL.Path))
		apihelpers.AbortWithError(c, http.StatusUnauthorized, "a valid API key is missing")
	}
}
