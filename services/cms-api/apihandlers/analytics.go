package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
)

func (h *HttpEndpoints) AddAnalyticsAPI(rg *gin.RouterGroup) {
	analyticsGroup := rg.Group("/analytics")
	analyticsGroup.Use(h.requireToken(), mw.RequireRole(permissionchecker.REQUIRE_ADMIN))
	{
		analyticsGroup.GET("/overview", h.getOverview)
	}
}

func (h *HttpEndpoints) getOverview(c *gin.Context) {
	overview, err := h.content.Overview()
	if err != nil {
		respondWithError(c, err, commonErrorCases)
		return
	}
	apihelpers.RespondData(c, http.StatusOK, overview)
}
