package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
	"github.com/newsreel/cms-backend/pkg/content"
	"github.com/newsreel/cms-backend/pkg/media"
	"github.com/newsreel/cms-backend/pkg/otp"
	usermanagement "github.com/newsreel/cms-backend/pkg/user-management"
	"github.com/newsreel/cms-backend/pkg/validation"
)

// errorCase maps a sentinel error to a status code and the message sent to the client.
type errorCase struct {
	err     error
	status  int
	message string
}

// Cases are checked in order, the first match wins.
var commonErrorCases = []errorCase{
	{authguard.ErrDuplicateAccount, http.StatusBadRequest, "an account with this email or phone already exists"},
	{usermanagement.ErrDuplicatePhone, http.StatusBadRequest, "phone number is already in use"},
	{content.ErrDuplicateVideo, http.StatusBadRequest, "a video with this YouTube id already exists"},
	{authguard.ErrNotFound, http.StatusNotFound, "account not found"},
	{usermanagement.ErrNotFound, http.StatusNotFound, "account not found"},
	{content.ErrNotFound, http.StatusNotFound, "content not found"},
	{authguard.ErrInvalidCredential, http.StatusUnauthorized, "invalid credentials"},
	{authguard.ErrExpired, http.StatusUnauthorized, "token expired"},
	{authguard.ErrMalformed, http.StatusUnauthorized, "invalid token"},
	{authguard.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{usermanagement.ErrSelfModification, http.StatusForbidden, "accounts cannot change their own role or status"},
	{content.ErrForbidden, http.StatusForbidden, "content is not accessible"},
	{authguard.ErrInactive, http.StatusForbidden, "account is not active"},
	{content.ErrNotPublished, http.StatusForbidden, "content is not published"},
	{authguard.ErrLocked, http.StatusLocked, "account is temporarily locked, try again later"},
	{otp.ErrCodeNotFound, http.StatusUnauthorized, "invalid or expired code"},
	{otp.ErrInvalidCode, http.StatusUnauthorized, "invalid or expired code"},
	{otp.ErrTooManyAttempts, http.StatusUnauthorized, "too many wrong attempts, request a new code"},
	{media.ErrNotConfigured, http.StatusServiceUnavailable, "media uploads are not enabled"},
}

// loginErrorCases answer an unknown identifier like a wrong secret.
var loginErrorCases = append([]errorCase{
	{authguard.ErrNotFound, http.StatusUnauthorized, "invalid email or password"},
	{authguard.ErrInvalidCredential, http.StatusUnauthorized, "invalid email or password"},
}, commonErrorCases...)

// respondWithError writes the error envelope for err. Validation errors list every field, unknown
// errors become a generic 500.
func respondWithError(c *gin.Context, err error, cases []errorCase) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		apihelpers.RespondError(c, http.StatusBadRequest, "validation failed", vErr.Fields...)
		return
	}

	for _, cs := range cases {
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, apihelpers.Envelope{Success: false, Message: cs.message})
			return
		}
	}

	slog.Error("unexpected error", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
	apihelpers.RespondError(c, http.StatusInternalServerError, "internal server error")
}

func respondBindError(c *gin.Context, err error) {
	slog.Debug("failed to bind request", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
	apihelpers.RespondError(c, http.StatusBadRequest, "invalid request body")
}
