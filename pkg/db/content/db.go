package contentdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var commonContentIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_status_createdAt"),
	},
	{
		Keys:    bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}},
		Options: options.Index().SetName("idx_category_status_publishedAt"),
	},
	{
		Keys:    bson.D{{Key: "featured", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_featured_status"),
	},
}

var videoOnlyIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "youtubeId", Value: 1}},
		Options: options.Index().SetName("idx_youtubeId").SetUnique(true),
	},
}

func indexesFor(kind string) []mongo.IndexModel {
	if kind == contentTypes.KIND_VIDEO {
		return append(append([]mongo.IndexModel{}, commonContentIndexes...), videoOnlyIndexes...)
	}
	return commonContentIndexes
}

type ContentDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBName          string
}

func NewContentDBService(configs db.DBConfig) (*ContentDBService, error) {
	dbClient, err := db.Connect(configs)
	if err != nil {
		return nil, err
	}

	contentDBSc := &ContentDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBName:          configs.DBName,
	}

	if configs.RunIndexCreation {
		contentDBSc.CreateDefaultIndexes()
	}
	return contentDBSc, nil
}

func (dbService *ContentDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

// collectionItems returns "news" for articles and "videos" for videos.
func (dbService *ContentDBService) collectionItems(kind string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.DBName).Collection(contentTypes.Collection(kind))
}

func (dbService *ContentDBService) CreateDefaultIndexes() {
	for _, kind := range contentTypes.Kinds {
		ctx, cancel := dbService.getContext()
		_, err := dbService.collectionItems(kind).Indexes().CreateMany(ctx, indexesFor(kind))
		cancel()
		if err != nil {
			slog.Error("Error creating indexes for content", slog.String("kind", kind), slog.String("error", err.Error()))
		}
	}
}

func (dbService *ContentDBService) DropIndexes(dropAll bool) {
	for _, kind := range contentTypes.Kinds {
		dbService.dropIndexesForKind(kind, dropAll)
	}
}

func (dbService *ContentDBService) dropIndexesForKind(kind string, dropAll bool) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if dropAll {
		if _, err := dbService.collectionItems(kind).Indexes().DropAll(ctx); err != nil {
			slog.Error("Error dropping all indexes for content", slog.String("kind", kind), slog.String("error", err.Error()))
		}
		return
	}
	for _, index := range indexesFor(kind) {
		if index.Options.Name == nil {
			slog.Error("Index name is nil for content collection", slog.String("index", fmt.Sprintf("%+v", index)))
			continue
		}
		indexName := *index.Options.Name
		if _, err := dbService.collectionItems(kind).Indexes().DropOne(ctx, indexName); err != nil {
			slog.Error("Error dropping index for content", slog.String("kind", kind), slog.String("error", err.Error()), slog.String("indexName", indexName))
		}
	}
}

// ListIndexes returns the index definitions of the collection holding items of kind.
func (dbService *ContentDBService) ListIndexes(kind string) ([]bson.M, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()
	return db.ListCollectionIndexes(ctx, dbService.collectionItems(kind))
}
