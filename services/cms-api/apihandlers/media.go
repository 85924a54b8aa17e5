package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	"github.com/newsreel/cms-backend/pkg/media"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
)

func (h *HttpEndpoints) AddMediaAPI(rg *gin.RouterGroup) {
	mediaGroup := rg.Group("/media")
	mediaGroup.Use(h.requireToken(), mw.RequireRole(permissionchecker.REQUIRE_ADMIN))
	{
		mediaGroup.POST("/upload-url", mw.RequirePayload(), h.requestUploadURL)
	}
}

func (h *HttpEndpoints) requestUploadURL(c *gin.Context) {
	var req media.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.media.RequestUpload(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondData(c, http.StatusOK, ticket)
}
