package apihandlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
	"github.com/newsreel/cms-backend/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.authRateLimit.Handler(), mw.RequirePayload(), h.optionalToken(), h.register)
		authGroup.POST("/login", h.authRateLimit.Handler(), mw.RequirePayload(), h.login)
		authGroup.POST("/phone-otp", h.authRateLimit.Handler(), mw.RequirePayload(), h.requestPhoneOTP)
		authGroup.POST("/phone-login", h.authRateLimit.Handler(), mw.RequirePayload(), h.phoneLogin)
		authGroup.POST("/guest", h.authRateLimit.Handler(), h.guestSession)
		authGroup.GET("/me", h.requireToken(), h.getMe)
	}
}

func (h *HttpEndpoints) register(c *gin.Context) {
	var req authguard.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerRole := ""
	if principal, ok := mw.GetPrincipal(c); ok {
		callerRole = principal.Role
	}

	result, err := h.guard.Register(req, callerRole)
	h.metrics.authAttempt("register", err)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusCreated, "account created", result)
}

type LoginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *HttpEndpoints) login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Phone
	}
	v := &validation.Error{}
	v.Check(identifier != "", "email", "email is required")
	v.Check(req.Password != "", "password", "password is required")
	if err := v.ErrOrNil(); err != nil {
		respondWithError(c, err, loginErrorCases)
		return
	}

	result, err := h.guard.Authenticate(authguard.Credentials{Identifier: identifier, Secret: req.Password})
	h.metrics.authAttempt("password", err)
	if err != nil {
		respondWithError(c, err, loginErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "login successful", result)
}

type PhoneOTPReq struct {
	Phone string `json:"phone"`
}

func (h *HttpEndpoints) requestPhoneOTP(c *gin.Context) {
	if h.otpStore == nil {
		apihelpers.RespondError(c, http.StatusServiceUnavailable, "phone login is not enabled")
		return
	}

	var req PhoneOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	phone := umUtils.SanitizePhoneNumber(req.Phone)
	if !umUtils.CheckPhoneFormat(phone) {
		v := &validation.Error{}
		v.Add("phone", "phone number is invalid")
		respondWithError(c, v, commonErrorCases)
		return
	}

	code, err := h.otpStore.Issue(c.Request.Context(), phone)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	if err := h.otpSender.SendOTP(phone, code, h.otpStore.TTL()); err != nil {
		slog.Error("could not deliver otp", slog.String("error", err.Error()))
		apihelpers.RespondError(c, http.StatusBadGateway, "could not deliver the code")
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "code sent", gin.H{
		"expiresIn": int(h.otpStore.TTL().Seconds()),
	})
}

type PhoneLoginReq struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *HttpEndpoints) phoneLogin(c *gin.Context) {
	if h.otpStore == nil {
		apihelpers.RespondError(c, http.StatusServiceUnavailable, "phone login is not enabled")
		return
	}

	var req PhoneLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	phone := umUtils.SanitizePhoneNumber(req.Phone)
	v := &validation.Error{}
	v.Check(umUtils.CheckPhoneFormat(phone), "phone", "phone number is invalid")
	v.Check(req.OTP != "", "otp", "otp is required")
	if err := v.ErrOrNil(); err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}

	if err := h.otpStore.Verify(c.Request.Context(), phone, req.OTP); err != nil {
		slog.Warn("phone login with invalid otp", slog.String("error", err.Error()))
		h.metrics.authAttempt("phone", err)
		respondWithError(c, err, commonErrorCases)
		return
	}

	result, err := h.guard.AuthenticateWithPhone(phone)
	h.metrics.authAttempt("phone", err)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "login successful", result)
}

type GuestReq struct {
	DeviceInfo string `json:"deviceInfo"`
}

func (h *HttpEndpoints) guestSession(c *gin.Context) {
	var req GuestReq
	// the body is optional
	_ = c.ShouldBindJSON(&req)

	result, err := h.guard.GuestSession(req.DeviceInfo)
	h.metrics.authAttempt("guest", err)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondData(c, http.StatusOK, gin.H{
		"token":        result.Token,
		"guestAccount": result.Account,
	})
}

func (h *HttpEndpoints) getMe(c *gin.Context) {
	principal, _ := mw.GetPrincipal(c)
	if principal.IsGuest {
		guestID, _ := primitive.ObjectIDFromHex(principal.AccountID)
		apihelpers.RespondData(c, http.StatusOK, userTypes.Account{
			ID:      guestID,
			Role:    userTypes.ROLE_GUEST,
			Status:  userTypes.ACCOUNT_STATUS_ACTIVE,
			IsGuest: true,
		})
		return
	}
	apihelpers.RespondData(c, http.StatusOK, principal.Account)
}
