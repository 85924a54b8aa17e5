package apihandlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
)

func (h *HttpEndpoints) AddUserManagementAPI(rg *gin.RouterGroup) {
	usersGroup := rg.Group("/users")
	usersGroup.Use(h.requireToken())

	meGroup := usersGroup.Group("/me")
	// guests are never stored, so they cannot keep bookmarks or preferences
	meGroup.Use(mw.RequireRole(permissionchecker.REQUIRE_ACCOUNT))
	{
		meGroup.GET("/bookmarks", h.getBookmarks)
		meGroup.POST("/bookmarks", mw.RequirePayload(), h.addBookmark)
		meGroup.DELETE("/bookmarks/:kind/:contentId", h.removeBookmark)
		meGroup.PUT("/preferences", mw.RequirePayload(), h.updatePreferences)
	}

	usersGroup.PUT("/:id", mw.RequireRole(permissionchecker.REQUIRE_ACCOUNT), mw.RequirePayload(), h.updateProfile)

	adminGroup := usersGroup.Group("")
	adminGroup.Use(mw.RequireRole(permissionchecker.REQUIRE_ADMIN))
	{
		adminGroup.GET("", h.listAccounts)
		adminGroup.PUT("/:id/status", mw.RequirePayload(), h.setAccountStatus)
		adminGroup.PUT("/:id/role", mw.RequireRole(permissionchecker.REQUIRE_SUPER_ADMIN), mw.RequirePayload(), h.setAccountRole)
	}
}

func (h *HttpEndpoints) getBookmarks(c *gin.Context) {
	principal, _ := mw.GetPrincipal(c)
	account, err := h.accounts.GetAccount(principal.AccountID)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondData(c, http.StatusOK, account.Bookmarks)
}

type BookmarkReq struct {
	Kind      string `json:"kind"`
	ContentID string `json:"contentId"`
}

func (h *HttpEndpoints) addBookmark(c *gin.Context) {
	var req BookmarkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	principal, _ := mw.GetPrincipal(c)

	// only existing content can be bookmarked
	if _, err := h.content.GetItem(req.Kind, req.ContentID); err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}

	account, err := h.accounts.AddBookmark(principal.AccountID, req.Kind, req.ContentID)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "bookmark added", account.Bookmarks)
}

func (h *HttpEndpoints) removeBookmark(c *gin.Context) {
	principal, _ := mw.GetPrincipal(c)
	account, err := h.accounts.RemoveBookmark(principal.AccountID, c.Param("kind"), c.Param("contentId"))
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "bookmark removed", account.Bookmarks)
}

func (h *HttpEndpoints) updatePreferences(c *gin.Context) {
	var prefs userTypes.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		respondBindError(c, err)
		return
	}
	principal, _ := mw.GetPrincipal(c)

	account, err := h.accounts.UpdatePreferences(principal.AccountID, prefs)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "preferences updated", account.Preferences)
}

func (h *HttpEndpoints) updateProfile(c *gin.Context) {
	var update userTypes.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindError(c, err)
		return
	}
	principal, _ := mw.GetPrincipal(c)
	accountID := c.Param("id")

	if err := h.guard.AuthorizeOwnership(principal.AccountID, principal.Role, accountID); err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}

	account, err := h.accounts.UpdateProfile(accountID, update)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "profile updated", account)
}

func (h *HttpEndpoints) listAccounts(c *gin.Context) {
	page, limit, err := apihelpers.ParsePageFromCtx(c)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	filter := userTypes.AccountFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Search: strings.TrimSpace(c.Query("search")),
	}

	result, err := h.accounts.ListAccounts(filter, page, limit)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondData(c, http.StatusOK, result)
}

type SetStatusReq struct {
	Status string `json:"status"`
}

func (h *HttpEndpoints) setAccountStatus(c *gin.Context) {
	var req SetStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	principal, _ := mw.GetPrincipal(c)

	account, err := h.accounts.SetStatus(principal.AccountID, c.Param("id"), req.Status)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "account status updated", account)
}

type SetRoleReq struct {
	Role string `json:"role"`
}

func (h *HttpEndpoints) setAccountRole(c *gin.Context) {
	var req SetRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	principal, _ := mw.GetPrincipal(c)

	account, err := h.accounts.SetRole(principal.AccountID, c.Param("id"), req.Role)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondMessage(c, http.StatusOK, "account role updated", account)
}
