package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateKey is returned by stores when a unique index rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

// IsNotFound reports a missing document. A malformed id can never match one either.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex)
}

// Connect opens a client and pings the server so connectivity problems surface at start-up.
func Connect(configs DBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer conCancel()
	if err := dbClient.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return dbClient, nil
}

// WrapWriteError marks unique index violations with ErrDuplicateKey.
func WrapWriteError(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

func ListCollectionIndexes(ctx context.Context, collection *mongo.Collection) ([]bson.M, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == 26 {
			return []bson.M{}, nil
		}
		return nil, err
	}
	defer cursor.Close(ctx)

	indexes := []bson.M{}
	if err = cursor.All(ctx, &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

// GetTotalPages returns how many pages of pageSize are needed for totalCount documents.
func GetTotalPages(totalCount int64, pageSize int64) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

func PrepPaginationInfos(totalCount int64, page int64, limit int64) PaginationInfos {
	return PaginationInfos{
		TotalCount:  totalCount,
		CurrentPage: page,
		TotalPages:  GetTotalPages(totalCount, limit),
		PageSize:    limit,
	}
}
