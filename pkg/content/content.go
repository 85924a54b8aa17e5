// Package content governs the lifecycle of news articles and videos: validation, the
// draft/published state machine with its publish timestamp, and the engagement counters that
// only published items collect.
package content

import (
	"errors"
	"log/slog"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	"github.com/newsreel/cms-backend/pkg/events"
	"github.com/newsreel/cms-backend/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const RELATED_ITEMS_LIMIT = 4

var (
	ErrNotFound       = errors.New("content not found")
	ErrNotPublished   = errors.New("content is not published")
	ErrDuplicateVideo = errors.New("a video with this YouTube id already exists")
	ErrForbidden      = errors.New("content is not accessible")
)

type Store interface {
	CreateItem(item *contentTypes.Item) (*contentTypes.Item, error)
	GetItemByID(kind string, id string) (*contentTypes.Item, error)
	YouTubeIDTaken(youtubeID string, excludeID string) (bool, error)
	UpdateItem(kind string, id string, edited contentTypes.Item, setStatus string, now time.Time) (*contentTypes.Item, error)
	DeleteItem(kind string, id string) error
	IncrementPublishedCounter(kind string, id string, counterField string) (*contentTypes.Item, error)
	FindItems(kind string, filter contentTypes.ListFilter) ([]contentTypes.Item, int64, error)
	FindRelated(kind string, category string, excludeID primitive.ObjectID, limit int64) ([]contentTypes.Item, error)
	Stats(kind string) (contentTypes.KindStats, error)
}

type Service struct {
	store     Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(store Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateContent validates the draft, derives the video fields and stores the item. Items start
// as drafts unless the draft explicitly asks for published.
func (s *Service) CreateContent(kind string, draft contentTypes.Draft, ownerID string) (*contentTypes.Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := contentTypes.ValidateDraft(kind, draft); err != nil {
		return nil, err
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, errors.New("invalid owner id")
	}

	now := s.now()
	item := &contentTypes.Item{
		Kind:         kind,
		Title:        draft.Title,
		Category:     draft.Category,
		Status:       contentTypes.STATUS_DRAFT,
		Tags:         nonNilTags(draft.Tags),
		Featured:     draft.Featured,
		Owner:        owner,
		Summary:      draft.Summary,
		Content:      draft.Content,
		ImageURL:     draft.ImageURL,
		Description:  draft.Description,
		VideoURL:     draft.VideoURL,
		ThumbnailURL: draft.ThumbnailURL,
		Duration:     draft.Duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if draft.Status == contentTypes.STATUS_PUBLISHED {
		item.Status = contentTypes.STATUS_PUBLISHED
		item.PublishedAt = &now
	}
	if !contentTypes.ApplyDerivedFields(item) {
		return nil, videoURLError()
	}
	if err := s.checkYouTubeIDFree(item, ""); err != nil {
		return nil, err
	}

	created, err := s.store.CreateItem(item)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if created.Status == contentTypes.STATUS_PUBLISHED {
		s.publishEvent(events.ACTION_PUBLISHED, *created)
	}
	return created, nil
}

// UpdateContent applies a partial update. A status in the patch moves the item through the state
// machine in the same store update that writes the other fields.
func (s *Service) UpdateContent(kind string, id string, patch contentTypes.Patch) (*contentTypes.Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := contentTypes.ValidatePatch(kind, patch); err != nil {
		return nil, err
	}
	current, err := s.store.GetItemByID(kind, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	edited := *current
	applyPatch(&edited, patch)
	if !contentTypes.ApplyDerivedFields(&edited) {
		return nil, videoURLError()
	}
	if edited.YouTubeID != current.YouTubeID {
		if err := s.checkYouTubeIDFree(&edited, id); err != nil {
			return nil, err
		}
	}

	setStatus := ""
	if patch.Status != nil {
		setStatus = *patch.Status
	}
	updated, err := s.store.UpdateItem(kind, id, edited, setStatus, s.now())
	if err != nil {
		return nil, mapStoreError(err)
	}

	if current.Status != updated.Status {
		if updated.Status == contentTypes.STATUS_PUBLISHED {
			s.publishEvent(events.ACTION_PUBLISHED, *updated)
		} else {
			s.publishEvent(events.ACTION_UNPUBLISHED, *updated)
		}
	}
	return updated, nil
}

// DeleteContent removes the item for good.
func (s *Service) DeleteContent(kind string, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	current, err := s.store.GetItemByID(kind, id)
	if err != nil {
		return mapStoreError(err)
	}
	if err := s.store.DeleteItem(kind, id); err != nil {
		return mapStoreError(err)
	}
	s.publishEvent(events.ACTION_DELETED, *current)
	return nil
}

// RecordEngagement adds one view, share or like to a published item.
func (s *Service) RecordEngagement(kind string, id string, engagement string) (*contentTypes.Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	field, ok := contentTypes.CounterField(kind, engagement)
	if !ok {
		v := &validation.Error{}
		v.Add("engagement", "unsupported engagement for this content kind")
		return nil, v
	}

	item, err := s.store.IncrementPublishedCounter(kind, id, field)
	if err == nil {
		return item, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}
	// the increment only matches published items, find out which condition failed
	if _, err := s.store.GetItemByID(kind, id); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, ErrNotPublished
}

// RecordView counts a view like RecordEngagement but leaves drafts untouched without failing.
func (s *Service) RecordView(kind string, id string) (*contentTypes.Item, error) {
	item, err := s.RecordEngagement(kind, id, contentTypes.ENGAGEMENT_VIEW)
	if errors.Is(err, ErrNotPublished) {
		return s.GetItem(kind, id)
	}
	return item, err
}

// GetItem returns the item without visibility checks.
func (s *Service) GetItem(kind string, id string) (*contentTypes.Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	item, err := s.store.GetItemByID(kind, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return item, nil
}

// GetContent returns an item and a few published items of the same category. Drafts are only
// visible to admins. When incrementView is set a published item counts a view.
func (s *Service) GetContent(kind string, id string, viewerIsAdmin bool, incrementView bool) (*contentTypes.Item, []contentTypes.Item, error) {
	item, err := s.GetItem(kind, id)
	if err != nil {
		return nil, nil, err
	}
	if item.Status != contentTypes.STATUS_PUBLISHED && !viewerIsAdmin {
		return nil, nil, ErrForbidden
	}

	if incrementView {
		viewed, err := s.RecordView(kind, id)
		if err != nil {
			slog.Error("could not record view", slog.String("kind", kind), slog.String("id", id), slog.String("error", err.Error()))
		} else {
			item = viewed
		}
	}

	related, err := s.store.FindRelated(kind, item.Category, item.ID, RELATED_ITEMS_LIMIT)
	if err != nil {
		slog.Error("could not load related content", slog.String("kind", kind), slog.String("id", id), slog.String("error", err.Error()))
		related = []contentTypes.Item{}
	}
	return item, related, nil
}

// ListContent returns one page of items. Viewers that are not admins only ever see published items.
func (s *Service) ListContent(kind string, filter contentTypes.ListFilter) (*contentTypes.ListResult, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	filter = filter.Normalized()
	if err := contentTypes.ValidateListFilter(kind, filter); err != nil {
		return nil, err
	}

	items, total, err := s.store.FindItems(kind, filter)
	if err != nil {
		return nil, err
	}
	return &contentTypes.ListResult{
		Items:      items,
		Pagination: db.PrepPaginationInfos(total, filter.Page, filter.Limit),
	}, nil
}

// Overview aggregates counts and engagement totals per kind.
func (s *Service) Overview() (*contentTypes.Overview, error) {
	articles, err := s.store.Stats(contentTypes.KIND_ARTICLE)
	if err != nil {
		return nil, err
	}
	videos, err := s.store.Stats(contentTypes.KIND_VIDEO)
	if err != nil {
		return nil, err
	}
	return &contentTypes.Overview{Articles: articles, Videos: videos}, nil
}

func (s *Service) checkYouTubeIDFree(item *contentTypes.Item, excludeID string) error {
	if item.Kind != contentTypes.KIND_VIDEO {
		return nil
	}
	taken, err := s.store.YouTubeIDTaken(item.YouTubeID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateVideo
	}
	return nil
}

func (s *Service) publishEvent(action string, item contentTypes.Item) {
	if err := s.publisher.PublishContentEvent(action, item); err != nil {
		slog.Warn("could not publish content event",
			slog.String("action", action),
			slog.String("kind", item.Kind),
			slog.String("id", item.ID.Hex()),
			slog.String("error", err.Error()),
		)
	}
}

func applyPatch(it *contentTypes.Item, p contentTypes.Patch) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Tags != nil {
		it.Tags = nonNilTags(*p.Tags)
	}
	if p.Featured != nil {
		it.Featured = *p.Featured
	}
	if p.Summary != nil {
		it.Summary = *p.Summary
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.VideoURL != nil {
		it.VideoURL = *p.VideoURL
	}
	if p.ThumbnailURL != nil {
		it.ThumbnailURL = *p.ThumbnailURL
	}
	if p.Duration != nil {
		it.Duration = *p.Duration
	}
}

func checkKind(kind string) error {
	if contentTypes.IsValidKind(kind) {
		return nil
	}
	v := &validation.Error{}
	v.Add("kind", "unknown content kind")
	return v
}

func videoURLError() error {
	v := &validation.Error{}
	v.Add("videoUrl", "videoUrl must be a valid YouTube URL")
	return v
}

func mapStoreError(err error) error {
	switch {
	case db.IsNotFound(err):
		return ErrNotFound
	case errors.Is(err, db.ErrDuplicateKey):
		return ErrDuplicateVideo
	}
	return err
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
