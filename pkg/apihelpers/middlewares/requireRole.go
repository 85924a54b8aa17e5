package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
)

// RequireRole must run after GetAndValidateAccountJWT.
func RequireRole(required permissionchecker.RequiredRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			slog.Warn("RequireRole: validatedToken not found in context")
			apihelpers.AbortWithError(c, http.StatusUnauthorized, "missing access token")
			return
		}

		if !permissionchecker.IsAuthorized(principal.Role, required) {
			slog.Warn("RequireRole: insufficient role",
				slog.String("accountID", principal.AccountID),
				slog.String("role", principal.Role),
				slog.String("path", c.Request.URL.Path),
			)
			apihelpers.AbortWithError(c, http.StatusForbidden, "access forbidden")
			return
		}
		c.Next()
	}
}
