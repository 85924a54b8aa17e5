package accountdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsreel/cms-backend/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_ACCOUNTS = "accounts"
)

var indexesForAccountsCollection = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_accounts_email").SetUnique(true),
	},
	{
		Keys: bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetName("idx_accounts_phone").SetUnique(true).SetPartialFilterExpression(
			bson.M{"phone": bson.M{"$type": "string"}},
		),
	},
	{
		Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_accounts_role_status"),
	},
}

type AccountDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBName          string
}

func NewAccountDBService(configs db.DBConfig) (*AccountDBService, error) {
	dbClient, err := db.Connect(configs)
	if err != nil {
		return nil, err
	}

	accDBSc := &AccountDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBName:          configs.DBName,
	}

	if configs.RunIndexCreation {
		accDBSc.CreateDefaultIndexes()
	}
	return accDBSc, nil
}

func (dbService *AccountDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *AccountDBService) collectionAccounts() *mongo.Collection {
	return dbService.DBClient.Database(dbService.DBName).Collection(COLLECTION_NAME_ACCOUNTS)
}

func (dbService *AccountDBService) CreateDefaultIndexes() {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccounts().Indexes().CreateMany(ctx, indexesForAccountsCollection)
	if err != nil {
		slog.Error("Error creating indexes for accounts", slog.String("error", err.Error()))
	}
}

func (dbService *AccountDBService) DropIndexes(dropAll bool) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if dropAll {
		_, err := dbService.collectionAccounts().Indexes().DropAll(ctx)
		if err != nil {
			slog.Error("Error dropping all indexes for accounts", slog.String("error", err.Error()))
		}
		return
	}
	for _, index := range indexesForAccountsCollection {
		if index.Options.Name == nil {
			slog.Error("Index name is nil for accounts collection", slog.String("index", fmt.Sprintf("%+v", index)))
			continue
		}
		indexName := *index.Options.Name
		_, err := dbService.collectionAccounts().Indexes().DropOne(ctx, indexName)
		if err != nil {
			slog.Error("Error dropping index for accounts", slog.String("error", err.Error()), slog.String("indexName", indexName))
		}
	}
}

// ListIndexes returns the index definitions of the accounts collection.
func (dbService *AccountDBService) ListIndexes() ([]bson.M, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()
	return db.ListCollectionIndexes(ctx, dbService.collectionAccounts())
}
