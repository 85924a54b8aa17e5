package types

import (
	"github.com/newsreel/cms-backend/pkg/db"
	"github.com/newsreel/cms-backend/pkg/validation"
)

var sortableFields = map[string][]string{
	KIND_ARTICLE: {"createdAt", "updatedAt", "publishedAt", "title", "views", "shares"},
	KIND_VIDEO:   {"createdAt", "updatedAt", "publishedAt", "title", "views", "shares", "likes"},
}

type ListFilter struct {
	Page     int64
	Limit    int64
	Category string
	Status   string
	Search   string
	Featured *bool
	SortBy   string
	SortAsc  bool

	// ViewerIsAdmin lifts the published-only restriction.
	ViewerIsAdmin bool
}

type ListResult struct {
	Items      []Item             `json:"items"`
	Pagination db.PaginationInfos `json:"pagination"`
}

// Normalized fills defaults and forces non-admin viewers onto published items.
func (f ListFilter) Normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = LIST_DEFAULT_LIMIT
	}
	if f.SortBy == "" {
		f.SortBy = LIST_DEFAULT_SORT_FIELD
	}
	if !f.ViewerIsAdmin {
		f.Status = STATUS_PUBLISHED
	}
	return f
}

func ValidateListFilter(kind string, f ListFilter) error {
	v := &validation.Error{}
	v.Check(f.Page >= 1 && f.Page <= LIST_MAX_PAGE, "page", "page must be between 1 and 1000000")
	v.Check(f.Limit >= 1 && f.Limit <= LIST_MAX_LIMIT, "limit", "limit must be between 1 and 100")
	if f.Category != "" {
		checkCategory(v, kind, f.Category)
	}
	if f.Status != "" {
		checkStatus(v, f.Status)
	}
	v.Check(textLen(f.Search) <= SEARCH_MAX_LEN, "search", "search must be at most 100 characters")
	v.Check(contains(sortableFields[kind], f.SortBy), "sort", "unsupported sort field")
	return v.ErrOrNil()
}

// SearchFields lists the text fields a free text search covers for kind.
func SearchFields(kind string) []string {
	if kind == KIND_VIDEO {
		return []string{"title", "description"}
	}
	return []string{"title", "summary", "content"}
}

type KindStats struct {
	Total      int64            `json:"total"`
	Published  int64            `json:"published"`
	Drafts     int64            `json:"drafts"`
	Views      int64            `json:"views"`
	Shares     int64            `json:"shares"`
	Likes      int64            `json:"likes,omitempty"`
	ByCategory map[string]int64 `json:"byCategory"`
}

type Overview struct {
	Articles KindStats `json:"articles"`
	Videos   KindStats `json:"videos"`
}
