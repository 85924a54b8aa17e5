package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/events"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
)

func (h *HttpEndpoints) AddContentAPI(rg *gin.RouterGroup) {
	h.addContentKindAPI(rg.Group("/news"), contentTypes.KIND_ARTICLE)

	videosGroup := rg.Group("/videos")
	h.addContentKindAPI(videosGroup, contentTypes.KIND_VIDEO)
	videosGroup.POST("/:id/like", h.engagementHandler(contentTypes.KIND_VIDEO, contentTypes.ENGAGEMENT_LIKE))
}

func (h *HttpEndpoints) addContentKindAPI(group *gin.RouterGroup, kind string) {
	group.GET("", h.optionalToken(), h.listContentHandler(kind))
	group.GET("/:id", h.optionalToken(), h.getContentHandler(kind))
	group.POST("/:id/share", h.engagementHandler(kind, contentTypes.ENGAGEMENT_SHARE))

	editorGroup := group.Group("")
	editorGroup.Use(h.requireToken(), mw.RequireRole(permissionchecker.REQUIRE_ADMIN))
	{
		editorGroup.POST("", mw.RequirePayload(), h.createContentHandler(kind))
		editorGroup.PUT("/:id", mw.RequirePayload(), h.updateContentHandler(kind))
		editorGroup.DELETE("/:id", h.deleteContentHandler(kind))
	}
}

func viewerIsAdmin(c *gin.Context) bool {
	principal, ok := mw.GetPrincipal(c)
	return ok && permissionchecker.IsAdminRole(principal.Role)
}

func (h *HttpEndpoints) listContentHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := apihelpers.ParseListQueryFromCtx(c)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		filter.ViewerIsAdmin = viewerIsAdmin(c)

		result, err := h.content.ListContent(kind, filter)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		apihelpers.RespondData(c, http.StatusOK, result)
	}
}

func (h *HttpEndpoints) getContentHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		incrementView := apihelpers.ParseBoolFlag(c, "increment_view")
		item, related, err := h.content.GetContent(kind, c.Param("id"), viewerIsAdmin(c), incrementView)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		if incrementView && item.Status == contentTypes.STATUS_PUBLISHED {
			h.metrics.engagement(kind, contentTypes.ENGAGEMENT_VIEW)
		}
		apihelpers.RespondData(c, http.StatusOK, gin.H{
			"item":    item,
			"related": related,
		})
	}
}

func (h *HttpEndpoints) createContentHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var draft contentTypes.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			respondBindError(c, err)
			return
		}
		principal, _ := mw.GetPrincipal(c)

		item, err := h.content.CreateContent(kind, draft, principal.AccountID)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		h.metrics.contentChange(kind, "created")
		apihelpers.RespondMessage(c, http.StatusCreated, "content created", item)
	}
}

func (h *HttpEndpoints) updateContentHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch contentTypes.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			respondBindError(c, err)
			return
		}

		item, err := h.content.UpdateContent(kind, c.Param("id"), patch)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		h.metrics.contentChange(kind, "updated")
		apihelpers.RespondMessage(c, http.StatusOK, "content updated", item)
	}
}

func (h *HttpEndpoints) deleteContentHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.content.DeleteContent(kind, c.Param("id")); err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		h.metrics.contentChange(kind, events.ACTION_DELETED)
		apihelpers.RespondMessage(c, http.StatusOK, "content deleted", nil)
	}
}

func (h *HttpEndpoints) engagementHandler(kind string, engagement string) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := h.content.RecordEngagement(kind, c.Param("id"), engagement)
		if err != nil {
			respondWithError(c, err, commonErrorCases)
			return
		}
		h.metrics.engagement(kind, engagement)
		field, _ := contentTypes.CounterField(kind, engagement)
		apihelpers.RespondData(c, http.StatusOK, gin.H{
			"id":  item.ID,
			field: item.Counter(engagement),
		})
	}
}
