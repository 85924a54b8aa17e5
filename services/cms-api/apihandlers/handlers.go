package apihandlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
	"github.com/newsreel/cms-backend/pkg/content"
	"github.com/newsreel/cms-backend/pkg/media"
	usermanagement "github.com/newsreel/cms-backend/pkg/user-management"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// OTPStore keeps phone login codes. A nil store disables phone login.
type OTPStore interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone string, code string) error
	TTL() time.Duration
}

type OTPSender interface {
	SendOTP(phone string, code string, validFor time.Duration) error
}

type Dependencies struct {
	Guard         *authguard.Guard
	Content       *content.Service
	Accounts      *usermanagement.Service
	OTPStore      OTPStore
	OTPSender     OTPSender
	Media         *media.Service
	AuthRateLimit *mw.IPRateLimiter
	Metrics       *Metrics
}

type HttpEndpoints struct {
	guard         *authguard.Guard
	content       *content.Service
	accounts      *usermanagement.Service
	otpStore      OTPStore
	otpSender     OTPSender
	media         *media.Service
	authRateLimit *mw.IPRateLimiter
	metrics       *Metrics
}

func NewHTTPHandler(deps Dependencies) *HttpEndpoints {
	return &HttpEndpoints{
		guard:         deps.Guard,
		content:       deps.Content,
		accounts:      deps.Accounts,
		otpStore:      deps.OTPStore,
		otpSender:     deps.OTPSender,
		media:         deps.Media,
		authRateLimit: deps.AuthRateLimit,
		metrics:       deps.Metrics,
	}
}

// AddAllAPIs registers every route group below rg.
func (h *HttpEndpoints) AddAllAPIs(rg *gin.RouterGroup) {
	h.AddAuthAPI(rg)
	h.AddContentAPI(rg)
	h.AddUserManagementAPI(rg)
	h.AddAnalyticsAPI(rg)
	h.AddMediaAPI(rg)
}

func (h *HttpEndpoints) requireToken() gin.HandlerFunc {
	return mw.GetAndValidateAccountJWT(h.guard)
}

func (h *HttpEndpoints) optionalToken() gin.HandlerFunc {
	return mw.OptionalAccountJWT(h.guard)
}
