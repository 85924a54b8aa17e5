package types

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BOOKMARK_KIND_ARTICLE = "article"
	BOOKMARK_KIND_VIDEO   = "video"
)

type Bookmarks struct {
	Articles []primitive.ObjectID `bson:"articles" json:"articles"`
	Videos   []primitive.ObjectID `bson:"videos" json:"videos"`
}

// BookmarkField returns the document field that holds bookmarks of the given kind.
func BookmarkField(kind string) (string, error) {
	switch kind {
	case BOOKMARK_KIND_ARTICLE:
		return "bookmarks.articles", nil
	case BOOKMARK_KIND_VIDEO:
		return "bookmarks.videos", nil
	}
	return "", errors.New("unknown bookmark kind")
}

func (b Bookmarks) Contains(kind string, id primitive.ObjectID) bool {
	var list []primitive.ObjectID
	switch kind {
	case BOOKMARK_KIND_ARTICLE:
		list = b.Articles
	case BOOKMARK_KIND_VIDEO:
		list = b.Videos
	}
	for _, ref := range list {
		if ref == id {
			return true
		}
	}
	return false
}

// Add appends the reference if it is not bookmarked yet.
func (b *Bookmarks) Add(kind string, id primitive.ObjectID) error {
	if b.Contains(kind, id) {
		return nil
	}
	switch kind {
	case BOOKMARK_KIND_ARTICLE:
		b.Articles = append(b.Articles, id)
	case BOOKMARK_KIND_VIDEO:
		b.Videos = append(b.Videos, id)
	default:
		return errors.New("unknown bookmark kind")
	}
	return nil
}

func (b *Bookmarks) Remove(kind string, id primitive.ObjectID) error {
	var list *[]primitive.ObjectID
	switch kind {
	case BOOKMARK_KIND_ARTICLE:
		list = &b.Articles
	case BOOKMARK_KIND_VIDEO:
		list = &b.Videos
	default:
		return errors.New("unknown bookmark kind")
	}
	kept := (*list)[:0]
	for _, ref := range *list {
		if ref != id {
			kept = append(kept, ref)
		}
	}
	*list = kept
	return nil
}

func (b Bookmarks) clone() Bookmarks {
	return Bookmarks{
		Articles: append(make([]primitive.ObjectID, 0, len(b.Articles)), b.Articles...),
		Videos:   append(make([]primitive.ObjectID, 0, len(b.Videos)), b.Videos...),
	}
}
