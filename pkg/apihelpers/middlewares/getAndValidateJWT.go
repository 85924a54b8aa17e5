package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
)

const (
	HeaderAuthorization = "Authorization"

	// context keys
	KeyToken          = "token"
	KeyValidatedToken = "validatedToken"
)

type TokenVerifier interface {
	VerifyToken(token string) (*authguard.Principal, error)
}

// GetAndValidateAccountJWT rejects requests without a valid bearer token and stores the
// verified principal under KeyValidatedToken.
func GetAndValidateAccountJWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			slog.Debug("no Authorization token found", slog.String("path", c.Request.URL.Path))
			apihelpers.AbortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := verifier.VerifyToken(token)
		if err != nil {
			status, message := tokenErrorResponse(err)
			slog.Warn("token validation failed", slog.String("error", err.Error()), slog.String("path", c.Request.URL.Path))
			apihelpers.AbortWithError(c, status, message)
			return
		}
		c.Set(KeyToken, token)
		c.Set(KeyValidatedToken, principal)
		c.Next()
	}
}

// OptionalAccountJWT resolves the principal when a token is sent and otherwise lets the
// request through anonymously. An invalid token is treated like no token.
func OptionalAccountJWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.Next()
			return
		}
		principal, err := verifier.VerifyToken(token)
		if err != nil {
			slog.Debug("ignoring invalid optional token", slog.String("error", err.Error()))
			c.Next()
			return
		}
		c.Set(KeyToken, token)
		c.Set(KeyValidatedToken, principal)
		c.Next()
	}
}

// GetPrincipal returns the principal set by one of the token middlewares.
func GetPrincipal(c *gin.Context) (*authguard.Principal, bool) {
	value, ok := c.Get(KeyValidatedToken)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*authguard.Principal)
	return principal, ok && principal != nil
}

func tokenErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, authguard.ErrExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, authguard.ErrInactive):
		return http.StatusForbidden, "account is not active"
	case errors.Is(err, authguard.ErrLocked):
		return http.StatusLocked, "account is temporarily locked"
	case errors.Is(err, authguard.ErrNotFound), errors.Is(err, authguard.ErrMalformed):
		return http.StatusUnauthorized, "invalid token"
	}
	return http.StatusInternalServerError, "error during token validation"
}

func extractToken(c *gin.Context) (string, error) {
	header := c.GetHeader(HeaderAuthorization)
	if header == "" {
		return "", errors.New("no Authorization header found")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return "", errors.New("no bearer token found in Authorization header")
	}
	return token, nil
}
