package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	KIND_ARTICLE = "article"
	KIND_VIDEO   = "video"
)

const (
	STATUS_DRAFT     = "draft"
	STATUS_PUBLISHED = "published"
)

const (
	ENGAGEMENT_VIEW  = "view"
	ENGAGEMENT_SHARE = "share"
	ENGAGEMENT_LIKE  = "like"
)

var (
	Kinds    = []string{KIND_ARTICLE, KIND_VIDEO}
	Statuses = []string{STATUS_DRAFT, STATUS_PUBLISHED}

	ArticleCategories = []string{
		"Politics", "Sports", "Technology", "Entertainment", "Business", "Health", "Science", "World",
	}
	VideoCategories = []string{
		"News", "Sports", "Entertainment", "Technology", "Education", "Lifestyle", "Music", "Gaming",
	}
)

// Item is a news article or a video. Kind decides which of the variant fields are in use.
type Item struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind string             `bson:"kind" json:"kind"`

	Title    string   `bson:"title" json:"title"`
	Category string   `bson:"category" json:"category"`
	Status   string   `bson:"status" json:"status"`
	Tags     []string `bson:"tags" json:"tags"`
	Featured bool     `bson:"featured" json:"featured"`

	Views  int64 `bson:"views" json:"views"`
	Shares int64 `bson:"shares" json:"shares"`
	Likes  int64 `bson:"likes,omitempty" json:"likes,omitempty"`

	Owner primitive.ObjectID `bson:"owner" json:"owner"`

	// article
	Summary  string `bson:"summary,omitempty" json:"summary,omitempty"`
	Content  string `bson:"content,omitempty" json:"content,omitempty"`
	ImageURL string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// video
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	VideoURL     string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	YouTubeID    string `bson:"youtubeId,omitempty" json:"youtubeId,omitempty"`
	ThumbnailURL string `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Duration     string `bson:"duration,omitempty" json:"duration,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	PublishedAt *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}

// Draft holds the client supplied fields of a new item.
type Draft struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Status   string   `json:"status"`
	Tags     []string `json:"tags"`
	Featured bool     `json:"featured"`

	Summary  string `json:"summary"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`

	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title    *string   `json:"title"`
	Category *string   `json:"category"`
	Status   *string   `json:"status"`
	Tags     *[]string `json:"tags"`
	Featured *bool     `json:"featured"`

	Summary  *string `json:"summary"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`

	Description  *string `json:"description"`
	VideoURL     *string `json:"videoUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	Duration     *string `json:"duration"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Status == nil && p.Tags == nil &&
		p.Featured == nil && p.Summary == nil && p.Content == nil && p.ImageURL == nil &&
		p.Description == nil && p.VideoURL == nil && p.ThumbnailURL == nil && p.Duration == nil
}

// Collection returns the store collection holding items of kind.
func Collection(kind string) string {
	if kind == KIND_VIDEO {
		return "videos"
	}
	return "news"
}

func IsValidKind(kind string) bool {
	return contains(Kinds, kind)
}

func IsValidStatus(status string) bool {
	return contains(Statuses, status)
}

func Categories(kind string) []string {
	if kind == KIND_VIDEO {
		return VideoCategories
	}
	return ArticleCategories
}

func IsValidCategory(kind string, category string) bool {
	return contains(Categories(kind), category)
}

// CounterField maps an engagement kind to the counter it increments. Likes exist on videos only.
func CounterField(kind string, engagement string) (string, bool) {
	switch engagement {
	case ENGAGEMENT_VIEW:
		return "views", true
	case ENGAGEMENT_SHARE:
		return "shares", true
	case ENGAGEMENT_LIKE:
		if kind == KIND_VIDEO {
			return "likes", true
		}
	}
	return "", false
}

// Counter returns the value of the counter an engagement kind increments.
func (it Item) Counter(engagement string) int64 {
	switch engagement {
	case ENGAGEMENT_VIEW:
		return it.Views
	case ENGAGEMENT_SHARE:
		return it.Shares
	case ENGAGEMENT_LIKE:
		return it.Likes
	}
	return 0
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

// CopyEditableFrom overwrites the client editable fields with those of src. Identity, owner,
// status, counters and timestamps are left alone.
func (it *Item) CopyEditableFrom(src Item) {
	it.Title = src.Title
	it.Category = src.Category
	it.Tags = src.Tags
	it.Featured = src.Featured
	it.Summary = src.Summary
	it.Content = src.Content
	it.ImageURL = src.ImageURL
	it.Description = src.Description
	it.VideoURL = src.VideoURL
	it.YouTubeID = src.YouTubeID
	it.ThumbnailURL = src.ThumbnailURL
	it.Duration = src.Duration
}
