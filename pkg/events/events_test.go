package events

import (
	"testing"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSubject(t *testing.T) {
	if s := Subject(contentTypes.KIND_VIDEO, ACTION_PUBLISHED); s != "content.video.published" {
		t.Errorf("unexpected subject: %s", s)
	}
	if s := Subject(contentTypes.KIND_ARTICLE, ACTION_DELETED); s != "content.article.deleted" {
		t.Errorf("unexpected subject: %s", s)
	}
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	item := contentTypes.Item{
		ID:          primitive.NewObjectID(),
		Kind:        contentTypes.KIND_ARTICLE,
		Title:       "Headline",
		Category:    "World",
		Status:      contentTypes.STATUS_PUBLISHED,
		PublishedAt: &now,
	}
	env := NewEnvelope(ACTION_PUBLISHED, item, now)
	if env.Type != "content.article.published" || env.Version != EVENT_VERSION {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if env.CorrelationID == "" {
		t.Error("correlation id missing")
	}
	if env.Payload.ID != item.ID.Hex() || env.Payload.Title != "Headline" {
		t.Errorf("unexpected payload: %+v", env.Payload)
	}
	if other := NewEnvelope(ACTION_PUBLISHED, item, now); other.CorrelationID == env.CorrelationID {
		t.Error("correlation ids must be unique")
	}
}

func TestNoopPublisherWithoutURL(t *testing.T) {
	p := NewPublisher(Config{})
	if err := p.PublishContentEvent(ACTION_PUBLISHED, contentTypes.Item{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
