package apihelpers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/validation"
)

// ParsePageFromCtx reads page and limit, defaulting to 1 and 10.
func ParsePageFromCtx(c *gin.Context) (page int64, limit int64, err error) {
	v := &validation.Error{}
	page = parseIntParam(c, v, "page", 1)
	limit = parseIntParam(c, v, "limit", contentTypes.LIST_DEFAULT_LIMIT)
	v.Check(page >= 1 && page <= contentTypes.LIST_MAX_PAGE, "page", "page must be between 1 and 1000000")
	v.Check(limit >= 1 && limit <= contentTypes.LIST_MAX_LIMIT, "limit", "limit must be between 1 and 100")
	return page, limit, v.ErrOrNil()
}

// ParseListQueryFromCtx reads the content list query parameters:
// page, limit, category, status, search, featured, sort and order.
func ParseListQueryFromCtx(c *gin.Context) (contentTypes.ListFilter, error) {
	page, limit, err := ParsePageFromCtx(c)
	v := &validation.Error{}
	if err != nil {
		v = err.(*validation.Error)
	}

	filter := contentTypes.ListFilter{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   strings.TrimSpace(c.Query("search")),
		SortBy:   c.Query("sort"),
	}

	if featured := c.Query("featured"); featured != "" {
		f, err := strconv.ParseBool(featured)
		if err != nil {
			v.Add("featured", "featured must be true or false")
		} else {
			filter.Featured = &f
		}
	}

	switch strings.ToLower(c.DefaultQuery("order", "desc")) {
	case "asc":
		filter.SortAsc = true
	case "desc":
	default:
		v.Add("order", "order must be asc or desc")
	}
	return filter, v.ErrOrNil()
}

// ParseBoolFlag treats "1" and "true" (any case) as set.
func ParseBoolFlag(c *gin.Context, name string) bool {
	b, err := strconv.ParseBool(c.Query(name))
	return err == nil && b
}

func parseIntParam(c *gin.Context, v *validation.Error, name string, defaultValue int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v.Add(name, name+" must be a number")
		return defaultValue
	}
	return n
}
