package content

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db/memory"
	"github.com/newsreel/cms-backend/pkg/events"
	"github.com/newsreel/cms-backend/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordedEvent struct {
	action string
	id     string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) PublishContentEvent(action string, item contentTypes.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{action: action, id: item.ID.Hex()})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, e := range p.events {
		out = append(out, e.action)
	}
	return out
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var ownerID = primitive.NewObjectID().Hex()

func newTestService() (*Service, *recordingPublisher, *testClock) {
	pub := &recordingPublisher{}
	clock := &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(memory.NewContentStore(), pub).WithClock(clock.now), pub, clock
}

func articleDraft() contentTypes.Draft {
	return contentTypes.Draft{
		Title:    "TTTTT",
		Summary:  "SSSSSSSSSS",
		Content:  strings.Repeat("C", 50),
		Category: "Sports",
	}
}

func videoDraft(url string) contentTypes.Draft {
	return contentTypes.Draft{
		Title:    "Highlights",
		Category: "Sports",
		VideoURL: url,
		Duration: "10:00",
	}
}

func strPtr(s string) *string { return &s }

func TestArticleScenario(t *testing.T) {
	svc, pub, clock := newTestService()

	item, err := svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != contentTypes.STATUS_DRAFT || item.PublishedAt != nil {
		t.Fatalf("new item should be an unpublished draft: %+v", item)
	}
	if item.Owner.Hex() != ownerID {
		t.Errorf("owner not set: %s", item.Owner.Hex())
	}
	id := item.ID.Hex()

	if _, _, err := svc.GetContent(contentTypes.KIND_ARTICLE, id, false, false); !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous viewers must not see drafts: %v", err)
	}
	if _, err := svc.RecordEngagement(contentTypes.KIND_ARTICLE, id, contentTypes.ENGAGEMENT_SHARE); !errors.Is(err, ErrNotPublished) {
		t.Errorf("expected ErrNotPublished, got %v", err)
	}

	clock.advance(time.Minute)
	published, err := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Status: strPtr(contentTypes.STATUS_PUBLISHED)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(clock.t) {
		t.Fatalf("publishedAt should be set to now: %v", published.PublishedAt)
	}

	got, _, err := svc.GetContent(contentTypes.KIND_ARTICLE, id, false, false)
	if err != nil || got.ID != item.ID {
		t.Fatalf("published item should be visible: %v", err)
	}

	shared, err := svc.RecordEngagement(contentTypes.KIND_ARTICLE, id, contentTypes.ENGAGEMENT_SHARE)
	if err != nil || shared.Shares != 1 {
		t.Fatalf("expected shares=1, got %v %v", shared, err)
	}

	if got := pub.actions(); len(got) != 1 || got[0] != events.ACTION_PUBLISHED {
		t.Errorf("unexpected events: %v", got)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, pub, clock := newTestService()
	item, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
	id := item.ID.Hex()

	first, _ := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Status: strPtr(contentTypes.STATUS_PUBLISHED)})
	firstPublishedAt := *first.PublishedAt

	t.Run("publishing again keeps the timestamp", func(t *testing.T) {
		clock.advance(time.Hour)
		again, err := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Status: strPtr(contentTypes.STATUS_PUBLISHED)})
		if err != nil {
			t.Fatal(err)
		}
		if !again.PublishedAt.Equal(firstPublishedAt) {
			t.Errorf("publishedAt changed: %v -> %v", firstPublishedAt, again.PublishedAt)
		}
	})

	t.Run("other edits keep the timestamp", func(t *testing.T) {
		edited, err := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Title: strPtr("A new title")})
		if err != nil {
			t.Fatal(err)
		}
		if edited.Status != contentTypes.STATUS_PUBLISHED || !edited.PublishedAt.Equal(firstPublishedAt) {
			t.Errorf("unexpected state: %s %v", edited.Status, edited.PublishedAt)
		}
	})

	t.Run("draft clears the timestamp", func(t *testing.T) {
		draft, err := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Status: strPtr(contentTypes.STATUS_DRAFT)})
		if err != nil {
			t.Fatal(err)
		}
		if draft.Status != contentTypes.STATUS_DRAFT || draft.PublishedAt != nil {
			t.Errorf("unexpected state: %s %v", draft.Status, draft.PublishedAt)
		}
	})

	t.Run("republishing sets a fresh timestamp", func(t *testing.T) {
		clock.advance(time.Hour)
		again, _ := svc.UpdateContent(contentTypes.KIND_ARTICLE, id, contentTypes.Patch{Status: strPtr(contentTypes.STATUS_PUBLISHED)})
		if !again.PublishedAt.Equal(clock.t) {
			t.Errorf("expected %v, got %v", clock.t, again.PublishedAt)
		}
	})

	want := []string{events.ACTION_PUBLISHED, events.ACTION_UNPUBLISHED, events.ACTION_PUBLISHED}
	if got := pub.actions(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got events %v, want %v", got, want)
	}
}

func TestCreatePublished(t *testing.T) {
	svc, pub, clock := newTestService()
	d := articleDraft()
	d.Status = contentTypes.STATUS_PUBLISHED
	item, err := svc.CreateContent(contentTypes.KIND_ARTICLE, d, ownerID)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != contentTypes.STATUS_PUBLISHED || item.PublishedAt == nil || !item.PublishedAt.Equal(clock.t) {
		t.Errorf("unexpected state: %s %v", item.Status, item.PublishedAt)
	}
	if len(pub.actions()) != 1 {
		t.Errorf("expected a published event, got %v", pub.actions())
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateContent(contentTypes.KIND_ARTICLE, contentTypes.Draft{Title: "T"}, ownerID)
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.Fields) < 4 {
		t.Errorf("expected every violated field, got %+v", vErr.Fields)
	}

	if _, err := svc.CreateContent("podcast", articleDraft(), ownerID); !errors.As(err, &vErr) {
		t.Errorf("expected validation error for unknown kind, got %v", err)
	}
}

func TestVideos(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.CreateContent(contentTypes.KIND_VIDEO, videoDraft("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), ownerID)
	if err != nil {
		t.Fatal(err)
	}
	if first.YouTubeID != "dQw4w9WgXcQ" || first.ThumbnailURL != contentTypes.DefaultThumbnailURL("dQw4w9WgXcQ") {
		t.Errorf("derived fields missing: %+v", first)
	}

	t.Run("same identifier from another url form", func(t *testing.T) {
		d := videoDraft("https://youtu.be/dQw4w9WgXcQ")
		d.Title = "Completely different"
		d.Category = "Music"
		if _, err := svc.CreateContent(contentTypes.KIND_VIDEO, d, ownerID); !errors.Is(err, ErrDuplicateVideo) {
			t.Errorf("expected ErrDuplicateVideo, got %v", err)
		}
	})

	second, err := svc.CreateContent(contentTypes.KIND_VIDEO, videoDraft("https://youtu.be/9bZkp7q19f0"), ownerID)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("update re-derives the identifier", func(t *testing.T) {
		updated, err := svc.UpdateContent(contentTypes.KIND_VIDEO, second.ID.Hex(), contentTypes.Patch{VideoURL: strPtr("https://youtu.be/kJQP7kiw5Fk")})
		if err != nil {
			t.Fatal(err)
		}
		if updated.YouTubeID != "kJQP7kiw5Fk" || updated.ThumbnailURL != contentTypes.DefaultThumbnailURL("kJQP7kiw5Fk") {
			t.Errorf("unexpected derived fields: %s %s", updated.YouTubeID, updated.ThumbnailURL)
		}
	})

	t.Run("update onto an existing identifier", func(t *testing.T) {
		_, err := svc.UpdateContent(contentTypes.KIND_VIDEO, second.ID.Hex(), contentTypes.Patch{VideoURL: strPtr("https://youtu.be/dQw4w9WgXcQ")})
		if !errors.Is(err, ErrDuplicateVideo) {
			t.Errorf("expected ErrDuplicateVideo, got %v", err)
		}
	})

	t.Run("update to an unusable url", func(t *testing.T) {
		_, err := svc.UpdateContent(contentTypes.KIND_VIDEO, second.ID.Hex(), contentTypes.Patch{VideoURL: strPtr("https://vimeo.com/1")})
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("likes only on published videos", func(t *testing.T) {
		if _, err := svc.RecordEngagement(contentTypes.KIND_VIDEO, first.ID.Hex(), contentTypes.ENGAGEMENT_LIKE); !errors.Is(err, ErrNotPublished) {
			t.Errorf("expected ErrNotPublished, got %v", err)
		}
		_, _ = svc.UpdateContent(contentTypes.KIND_VIDEO, first.ID.Hex(), contentTypes.Patch{Status: strPtr(contentTypes.STATUS_PUBLISHED)})
		liked, err := svc.RecordEngagement(contentTypes.KIND_VIDEO, first.ID.Hex(), contentTypes.ENGAGEMENT_LIKE)
		if err != nil || liked.Likes != 1 {
			t.Errorf("expected likes=1, got %v %v", liked, err)
		}
	})

	t.Run("articles cannot be liked", func(t *testing.T) {
		article, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
		_, err := svc.RecordEngagement(contentTypes.KIND_ARTICLE, article.ID.Hex(), contentTypes.ENGAGEMENT_LIKE)
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	missing := primitive.NewObjectID().Hex()

	if _, err := svc.UpdateContent(contentTypes.KIND_ARTICLE, missing, contentTypes.Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteContent(contentTypes.KIND_ARTICLE, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.RecordEngagement(contentTypes.KIND_ARTICLE, missing, contentTypes.ENGAGEMENT_SHARE); !errors.Is(err, ErrNotFound) {
		t.Errorf("engagement: expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.GetContent(contentTypes.KIND_ARTICLE, "not-an-id", true, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteContent(t *testing.T) {
	svc, pub, _ := newTestService()
	item, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
	if err := svc.DeleteContent(contentTypes.KIND_ARTICLE, item.ID.Hex()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetItem(contentTypes.KIND_ARTICLE, item.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if got := pub.actions(); len(got) != 1 || got[0] != events.ACTION_DELETED {
		t.Errorf("unexpected events: %v", got)
	}
}

func TestEventFailuresDoNotFailWrites(t *testing.T) {
	svc, pub, _ := newTestService()
	pub.err = errors.New("broker down")
	d := articleDraft()
	d.Status = contentTypes.STATUS_PUBLISHED
	if _, err := svc.CreateContent(contentTypes.KIND_ARTICLE, d, ownerID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConcurrentViews(t *testing.T) {
	svc, _, _ := newTestService()
	d := articleDraft()
	d.Status = contentTypes.STATUS_PUBLISHED
	item, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, d, ownerID)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordEngagement(contentTypes.KIND_ARTICLE, item.ID.Hex(), contentTypes.ENGAGEMENT_VIEW); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.GetItem(contentTypes.KIND_ARTICLE, item.ID.Hex())
	if got.Views != 2 {
		t.Errorf("expected 2 views, got %d", got.Views)
	}
}

func TestGetContent(t *testing.T) {
	svc, _, clock := newTestService()
	d := articleDraft()
	d.Status = contentTypes.STATUS_PUBLISHED
	primary, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, d, ownerID)
	for i := 0; i < 5; i++ {
		clock.advance(time.Minute)
		_, _ = svc.CreateContent(contentTypes.KIND_ARTICLE, d, ownerID)
	}
	other := d
	other.Category = "World"
	_, _ = svc.CreateContent(contentTypes.KIND_ARTICLE, other, ownerID)

	t.Run("view increment and related items", func(t *testing.T) {
		item, related, err := svc.GetContent(contentTypes.KIND_ARTICLE, primary.ID.Hex(), false, true)
		if err != nil {
			t.Fatal(err)
		}
		if item.Views != 1 {
			t.Errorf("expected 1 view, got %d", item.Views)
		}
		if len(related) != RELATED_ITEMS_LIMIT {
			t.Fatalf("expected %d related items, got %d", RELATED_ITEMS_LIMIT, len(related))
		}
		for _, r := range related {
			if r.ID == primary.ID || r.Category != "Sports" {
				t.Errorf("unexpected related item: %+v", r)
			}
		}
	})

	t.Run("admins read drafts without counting views", func(t *testing.T) {
		draft, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
		item, _, err := svc.GetContent(contentTypes.KIND_ARTICLE, draft.ID.Hex(), true, true)
		if err != nil {
			t.Fatal(err)
		}
		if item.Views != 0 {
			t.Errorf("drafts must not count views, got %d", item.Views)
		}
	})
}

func TestListContent(t *testing.T) {
	svc, _, clock := newTestService()
	published := articleDraft()
	published.Status = contentTypes.STATUS_PUBLISHED
	for i := 0; i < 3; i++ {
		clock.advance(time.Minute)
		_, _ = svc.CreateContent(contentTypes.KIND_ARTICLE, published, ownerID)
	}
	_, _ = svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)

	t.Run("non admins are forced to published", func(t *testing.T) {
		res, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Status: contentTypes.STATUS_DRAFT})
		if err != nil {
			t.Fatal(err)
		}
		if res.Pagination.TotalCount != 3 {
			t.Errorf("expected 3 published items, got %d", res.Pagination.TotalCount)
		}
		for _, it := range res.Items {
			if it.Status != contentTypes.STATUS_PUBLISHED {
				t.Errorf("draft leaked into list: %+v", it)
			}
		}
	})

	t.Run("admins filter by status", func(t *testing.T) {
		res, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Status: contentTypes.STATUS_DRAFT, ViewerIsAdmin: true})
		if err != nil {
			t.Fatal(err)
		}
		if res.Pagination.TotalCount != 1 {
			t.Errorf("expected 1 draft, got %d", res.Pagination.TotalCount)
		}
	})

	t.Run("total is independent of the page window", func(t *testing.T) {
		res, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{ViewerIsAdmin: true, Page: 2, Limit: 3})
		if err != nil {
			t.Fatal(err)
		}
		if res.Pagination.TotalCount != 4 || len(res.Items) != 1 || res.Pagination.TotalPages != 2 {
			t.Errorf("unexpected page: %+v (%d items)", res.Pagination, len(res.Items))
		}
	})

	t.Run("limit bounds", func(t *testing.T) {
		_, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Limit: 101})
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("huge page is rejected", func(t *testing.T) {
		_, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{Page: 1e17, Limit: 100})
		var vErr *validation.Error
		if !errors.As(err, &vErr) || len(vErr.Fields) != 1 || vErr.Fields[0].Field != "page" {
			t.Errorf("expected a page violation, got %v", err)
		}
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		res, err := svc.ListContent(contentTypes.KIND_ARTICLE, contentTypes.ListFilter{ViewerIsAdmin: true, Page: contentTypes.LIST_MAX_PAGE, Limit: 100})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Items) != 0 || res.Pagination.TotalCount != 4 {
			t.Errorf("unexpected page: %+v (%d items)", res.Pagination, len(res.Items))
		}
	})
}

func TestOverview(t *testing.T) {
	svc, _, _ := newTestService()
	published := articleDraft()
	published.Status = contentTypes.STATUS_PUBLISHED
	a, _ := svc.CreateContent(contentTypes.KIND_ARTICLE, published, ownerID)
	_, _ = svc.CreateContent(contentTypes.KIND_ARTICLE, articleDraft(), ownerID)
	_, _ = svc.RecordEngagement(contentTypes.KIND_ARTICLE, a.ID.Hex(), contentTypes.ENGAGEMENT_VIEW)
	_, _ = svc.CreateContent(contentTypes.KIND_VIDEO, videoDraft("https://youtu.be/dQw4w9WgXcQ"), ownerID)

	o, err := svc.Overview()
	if err != nil {
		t.Fatal(err)
	}
	if o.Articles.Total != 2 || o.Articles.Published != 1 || o.Articles.Drafts != 1 || o.Articles.Views != 1 {
		t.Errorf("unexpected article stats: %+v", o.Articles)
	}
	if o.Videos.Total != 1 || o.Videos.ByCategory["Sports"] != 1 {
		t.Errorf("unexpected video stats: %+v", o.Videos)
	}
}
