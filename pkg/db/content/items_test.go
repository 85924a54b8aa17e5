package contentdb

import (
	"testing"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("status and category", func(t *testing.T) {
		q := buildListQuery(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Status: "published", Category: "Sports"})
		if q["status"] != "published" || q["category"] != "Sports" {
			t.Errorf("unexpected query: %v", q)
		}
		if _, ok := q["featured"]; ok {
			t.Errorf("featured should not be filtered: %v", q)
		}
	})

	t.Run("featured", func(t *testing.T) {
		featured := false
		q := buildListQuery(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Featured: &featured})
		if q["featured"] != false {
			t.Errorf("unexpected query: %v", q)
		}
	})

	t.Run("search covers the text fields of the kind", func(t *testing.T) {
		q := buildListQuery(contentTypes.KIND_VIDEO, contentTypes.ListFilter{Search: "a.b"})
		or, ok := q["$or"].(bson.A)
		if !ok || len(or) != 2 {
			t.Fatalf("unexpected $or: %v", q["$or"])
		}
		cond := or[1].(bson.M)
		regex, ok := cond["description"].(primitive.Regex)
		if !ok {
			t.Fatalf("unexpected condition: %v", cond)
		}
		if regex.Pattern != `a\.b` || regex.Options != "i" {
			t.Errorf("search input must be escaped: %+v", regex)
		}

		q = buildListQuery(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Search: "x"})
		if or := q["$or"].(bson.A); len(or) != 3 {
			t.Errorf("expected title, summary and content, got %v", or)
		}
	})
}

func TestEditableFields(t *testing.T) {
	article := editableFields(contentTypes.Item{Kind: contentTypes.KIND_ARTICLE, Title: "Title", Summary: "Summary"})
	if _, ok := article["youtubeId"]; ok {
		t.Error("articles must not carry video fields")
	}
	if article["summary"] != "Summary" {
		t.Errorf("unexpected fields: %v", article)
	}
	if tags, ok := article["tags"].([]string); !ok || tags == nil {
		t.Errorf("tags must never be null: %v", article["tags"])
	}

	video := editableFields(contentTypes.Item{Kind: contentTypes.KIND_VIDEO, YouTubeID: "dQw4w9WgXcQ"})
	if _, ok := video["summary"]; ok {
		t.Error("videos must not carry article fields")
	}
	if video["youtubeId"] != "dQw4w9WgXcQ" {
		t.Errorf("unexpected fields: %v", video)
	}
}

func TestLiteralValues(t *testing.T) {
	out := literalValues(bson.M{"title": "$100 prize"})
	wrapped, ok := out["title"].(bson.M)
	if !ok || wrapped["$literal"] != "$100 prize" {
		t.Errorf("unexpected value: %v", out["title"])
	}
}
