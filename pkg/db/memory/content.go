package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ContentStore struct {
	mu    sync.RWMutex
	items map[string]map[primitive.ObjectID]*contentTypes.Item
}

func NewContentStore() *ContentStore {
	return &ContentStore{
		items: map[string]map[primitive.ObjectID]*contentTypes.Item{
			contentTypes.KIND_ARTICLE: {},
			contentTypes.KIND_VIDEO:   {},
		},
	}
}

func (s *ContentStore) CreateItem(item *contentTypes.Item) (*contentTypes.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.items[item.Kind]
	if !ok {
		return nil, errors.New("unknown content kind")
	}
	if item.Kind == contentTypes.KIND_VIDEO && s.youtubeIDTaken(item.YouTubeID, primitive.NilObjectID) {
		return nil, db.ErrDuplicateKey
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	coll[item.ID] = copyItem(item)
	return item, nil
}

func (s *ContentStore) GetItemByID(kind string, id string) (*contentTypes.Item, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[kind][objID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return copyItem(item), nil
}

func (s *ContentStore) YouTubeIDTaken(youtubeID string, excludeID string) (bool, error) {
	exclude := primitive.NilObjectID
	if excludeID != "" {
		objID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, err
		}
		exclude = objID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.youtubeIDTaken(youtubeID, exclude), nil
}

func (s *ContentStore) youtubeIDTaken(youtubeID string, exclude primitive.ObjectID) bool {
	for id, video := range s.items[contentTypes.KIND_VIDEO] {
		if id != exclude && video.YouTubeID == youtubeID {
			return true
		}
	}
	return false
}

func (s *ContentStore) UpdateItem(
	kind string,
	id string,
	edited contentTypes.Item,
	setStatus string,
	now time.Time,
) (*contentTypes.Item, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[kind][objID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if kind == contentTypes.KIND_VIDEO && s.youtubeIDTaken(edited.YouTubeID, objID) {
		return nil, db.ErrDuplicateKey
	}

	updated := copyItem(current)
	updated.CopyEditableFrom(edited)
	updated.Tags = append([]string{}, edited.Tags...)
	updated.UpdatedAt = now
	switch setStatus {
	case "":
	case contentTypes.STATUS_PUBLISHED:
		updated.Status = contentTypes.STATUS_PUBLISHED
		if updated.PublishedAt == nil {
			publishedAt := now
			updated.PublishedAt = &publishedAt
		}
	case contentTypes.STATUS_DRAFT:
		updated.Status = contentTypes.STATUS_DRAFT
		updated.PublishedAt = nil
	default:
		return nil, errors.New("unknown status")
	}
	s.items[kind][objID] = updated
	return copyItem(updated), nil
}

func (s *ContentStore) DeleteItem(kind string, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[kind][objID]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(s.items[kind], objID)
	return nil
}

func (s *ContentStore) IncrementPublishedCounter(kind string, id string, counterField string) (*contentTypes.Item, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[kind][objID]
	if !ok || item.Status != contentTypes.STATUS_PUBLISHED {
		return nil, mongo.ErrNoDocuments
	}
	switch counterField {
	case "views":
		item.Views++
	case "shares":
		item.Shares++
	case "likes":
		item.Likes++
	default:
		return nil, errors.New("unknown counter")
	}
	return copyItem(item), nil
}

func (s *ContentStore) FindItems(kind string, filter contentTypes.ListFilter) ([]contentTypes.Item, int64, error) {
	s.mu.RLock()
	matches := []contentTypes.Item{}
	for _, item := range s.items[kind] {
		if matchesFilter(kind, item, filter) {
			matches = append(matches, *copyItem(item))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		c := compareBy(filter.SortBy, matches[i], matches[j])
		if c == 0 {
			c = strings.Compare(matches[i].ID.Hex(), matches[j].ID.Hex())
		}
		if filter.SortAsc {
			return c < 0
		}
		return c > 0
	})
	return paginate(matches, filter.Page, filter.Limit), int64(len(matches)), nil
}

func (s *ContentStore) FindRelated(kind string, category string, excludeID primitive.ObjectID, limit int64) ([]contentTypes.Item, error) {
	items, _, err := s.FindItems(kind, contentTypes.ListFilter{
		Page:     1,
		Category: category,
		Status:   contentTypes.STATUS_PUBLISHED,
		SortBy:   "publishedAt",
	})
	if err != nil {
		return nil, err
	}
	related := []contentTypes.Item{}
	for _, item := range items {
		if item.ID == excludeID {
			continue
		}
		if int64(len(related)) >= limit {
			break
		}
		related = append(related, item)
	}
	return related, nil
}

func (s *ContentStore) Stats(kind string) (contentTypes.KindStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := contentTypes.KindStats{ByCategory: map[string]int64{}}
	for _, item := range s.items[kind] {
		stats.Total++
		stats.Views += item.Views
		stats.Shares += item.Shares
		stats.Likes += item.Likes
		switch item.Status {
		case contentTypes.STATUS_PUBLISHED:
			stats.Published++
		case contentTypes.STATUS_DRAFT:
			stats.Drafts++
		}
		stats.ByCategory[item.Category]++
	}
	return stats, nil
}

func matchesFilter(kind string, item *contentTypes.Item, filter contentTypes.ListFilter) bool {
	if filter.Status != "" && item.Status != filter.Status {
		return false
	}
	if filter.Category != "" && item.Category != filter.Category {
		return false
	}
	if filter.Featured != nil && item.Featured != *filter.Featured {
		return false
	}
	if filter.Search == "" {
		return true
	}
	search := strings.ToLower(filter.Search)
	texts := map[string]string{
		"title":       item.Title,
		"summary":     item.Summary,
		"content":     item.Content,
		"description": item.Description,
	}
	for _, field := range contentTypes.SearchFields(kind) {
		if strings.Contains(strings.ToLower(texts[field]), search) {
			return true
		}
	}
	return false
}

func compareBy(field string, a contentTypes.Item, b contentTypes.Item) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "views":
		return compareInt(a.Views, b.Views)
	case "shares":
		return compareInt(a.Shares, b.Shares)
	case "likes":
		return compareInt(a.Likes, b.Likes)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "publishedAt":
		return comparePublished(a.PublishedAt, b.PublishedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// comparePublished orders missing timestamps first, as the document store sorts null values.
func comparePublished(a *time.Time, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func copyItem(item *contentTypes.Item) *contentTypes.Item {
	c := *item
	c.Tags = append([]string{}, item.Tags...)
	if item.PublishedAt != nil {
		publishedAt := *item.PublishedAt
		c.PublishedAt = &publishedAt
	}
	return &c
}
