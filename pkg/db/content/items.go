package contentdb

import (
	"errors"
	"regexp"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *ContentDBService) CreateItem(item *contentTypes.Item) (*contentTypes.Item, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionItems(item.Kind).InsertOne(ctx, item)
	if err != nil {
		return nil, db.WrapWriteError(err)
	}
	item.ID = res.InsertedID.(primitive.ObjectID)
	return item, nil
}

func (dbService *ContentDBService) GetItemByID(kind string, id string) (*contentTypes.Item, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	var item contentTypes.Item
	if err := dbService.collectionItems(kind).FindOne(ctx, bson.M{"_id": objID}).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// YouTubeIDTaken reports whether another video already uses youtubeID. excludeID may be empty.
func (dbService *ContentDBService) YouTubeIDTaken(youtubeID string, excludeID string) (bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"youtubeId": youtubeID}
	if excludeID != "" {
		objID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, err
		}
		filter["_id"] = bson.M{"$ne": objID}
	}
	count, err := dbService.collectionItems(contentTypes.KIND_VIDEO).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateItem writes the editable fields of edited and, when setStatus is not empty, moves the item
// to that status in the same update. Publishing keeps an existing publishedAt and sets it to now
// otherwise; moving to draft removes it.
func (dbService *ContentDBService) UpdateItem(
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
	ctx, cancel := dbService.getContext()
	defer cancel()

	fields := editableFields(edited)
	fields["updatedAt"] = now

	var update interface{}
	switch setStatus {
	case "":
		update = bson.M{"$set": fields}
	case contentTypes.STATUS_PUBLISHED:
		stage := literalValues(fields)
		stage["status"] = bson.M{"$literal": contentTypes.STATUS_PUBLISHED}
		stage["publishedAt"] = bson.M{"$ifNull": bson.A{"$publishedAt", now}}
		update = mongo.Pipeline{{{Key: "$set", Value: stage}}}
	case contentTypes.STATUS_DRAFT:
		stage := literalValues(fields)
		stage["status"] = bson.M{"$literal": contentTypes.STATUS_DRAFT}
		update = mongo.Pipeline{
			{{Key: "$set", Value: stage}},
			{{Key: "$unset", Value: "publishedAt"}},
		}
	default:
		return nil, errors.New("unknown status")
	}

	var item contentTypes.Item
	err = dbService.collectionItems(kind).FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		return nil, db.WrapWriteError(err)
	}
	return &item, nil
}

func (dbService *ContentDBService) DeleteItem(kind string, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionItems(kind).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementPublishedCounter adds one to counterField of a published item. A missing or
// unpublished item yields mongo.ErrNoDocuments.
func (dbService *ContentDBService) IncrementPublishedCounter(kind string, id string, counterField string) (*contentTypes.Item, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := dbService.getContext()
	defer cancel()

	var item contentTypes.Item
	err = dbService.collectionItems(kind).FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "status": contentTypes.STATUS_PUBLISHED},
		bson.M{"$inc": bson.M{counterField: 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItems returns one page of items matching the filter and the total number of matches.
// The filter is expected to be normalized and validated.
func (dbService *ContentDBService) FindItems(kind string, filter contentTypes.ListFilter) ([]contentTypes.Item, int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	query := buildListQuery(kind, filter)

	count, err := dbService.collectionItems(kind).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	sortDir := -1
	if filter.SortAsc {
		sortDir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: filter.SortBy, Value: sortDir}, {Key: "_id", Value: sortDir}}).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)
	if dbService.noCursorTimeout {
		opts.SetNoCursorTimeout(true)
	}

	cursor, err := dbService.collectionItems(kind).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []contentTypes.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

// FindRelated returns up to limit published items of the same category, most recent first.
func (dbService *ContentDBService) FindRelated(kind string, category string, excludeID primitive.ObjectID, limit int64) ([]contentTypes.Item, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	query := bson.M{
		"category": category,
		"status":   contentTypes.STATUS_PUBLISHED,
		"_id":      bson.M{"$ne": excludeID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}}).SetLimit(limit)

	cursor, err := dbService.collectionItems(kind).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []contentTypes.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type statusGroup struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
	Views  int64  `bson:"views"`
	Shares int64  `bson:"shares"`
	Likes  int64  `bson:"likes"`
}

type categoryGroup struct {
	Category string `bson:"_id"`
	Count    int64  `bson:"count"`
}

// Stats aggregates item counts and engagement totals of one kind.
func (dbService *ContentDBService) Stats(kind string) (contentTypes.KindStats, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{
					"_id":    "$status",
					"count":  bson.M{"$sum": 1},
					"views":  bson.M{"$sum": "$views"},
					"shares": bson.M{"$sum": "$shares"},
					"likes":  bson.M{"$sum": "$likes"},
				}},
			},
			"byCategory": bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
			},
		}}},
	}

	cursor, err := dbService.collectionItems(kind).Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.KindStats{}, err
	}
	defer cursor.Close(ctx)

	var res []struct {
		ByStatus   []statusGroup   `bson:"byStatus"`
		ByCategory []categoryGroup `bson:"byCategory"`
	}
	if err := cursor.All(ctx, &res); err != nil {
		return contentTypes.KindStats{}, err
	}

	stats := contentTypes.KindStats{ByCategory: map[string]int64{}}
	if len(res) == 0 {
		return stats, nil
	}
	for _, g := range res[0].ByStatus {
		stats.Total += g.Count
		stats.Views += g.Views
		stats.Shares += g.Shares
		stats.Likes += g.Likes
		switch g.Status {
		case contentTypes.STATUS_PUBLISHED:
			stats.Published += g.Count
		case contentTypes.STATUS_DRAFT:
			stats.Drafts += g.Count
		}
	}
	for _, g := range res[0].ByCategory {
		stats.ByCategory[g.Category] = g.Count
	}
	return stats, nil
}

func buildListQuery(kind string, filter contentTypes.ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		or := bson.A{}
		for _, field := range contentTypes.SearchFields(kind) {
			or = append(or, bson.M{field: pattern})
		}
		query["$or"] = or
	}
	return query
}

func editableFields(it contentTypes.Item) bson.M {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	fields := bson.M{
		"title":    it.Title,
		"category": it.Category,
		"tags":     tags,
		"featured": it.Featured,
	}
	if it.Kind == contentTypes.KIND_VIDEO {
		fields["description"] = it.Description
		fields["videoUrl"] = it.VideoURL
		fields["youtubeId"] = it.YouTubeID
		fields["thumbnailUrl"] = it.ThumbnailURL
		fields["duration"] = it.Duration
	} else {
		fields["summary"] = it.Summary
		fields["content"] = it.Content
		fields["imageUrl"] = it.ImageURL
	}
	return fields
}

// literalValues wraps values for use in an update pipeline, where strings starting with "$"
// would otherwise be read as field paths.
func literalValues(fields bson.M) bson.M {
	out := make(bson.M, len(fields))
	for k, v := range fields {
		out[k] = bson.M{"$literal": v}
	}
	return out
}
