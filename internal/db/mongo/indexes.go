// Package mongo provides MongoDB database connectivity and repositories.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/tunegate/backend/internal/utils"
)

// Collection name constants for use throughout the application
const (
	UsersCollection = "users"
)

// IndexCreator defines a function type for index creation
type IndexCreator func(context.Context, *Client) error

var indexCreators = map[string]IndexCreator{
	UsersCollection: ensureUserIndexes,
}

// EnsureIndexes creates all necessary indexes for the application
func EnsureIndexes(ctx context.Context, client *Client) error {
	logger := client.Logger().With("operation", "EnsureIndexes")
	logger.Info("Starting index creation for all collections")

	for collection, creator := range indexCreators {
		logger.Info("Creating indexes", "collection", collection)
		if err := creator(ctx, client); err != nil {
			logger.Error("Failed to create indexes", err, "collection", collection)
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	logger.Info("Successfully created all indexes")
	return nil
}

// createIndexes is a helper function to create multiple indexes for a collection
func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel, logger *utils.Logger, collectionName string) error {
	if len(indexes) == 0 {
		return nil
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Error("Failed to create indexes", err, "collection", collectionName)
		return err
	}

	logger.Info("Successfully created indexes", "collection", collectionName, "count", len(indexes))
	return nil
}

// ensureUserIndexes creates indexes for the users collection. The unique
// chatId index is what makes registration idempotent: duplicate inserts are
// rejected by the store itself instead of raced through a check-then-insert.
func ensureUserIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(UsersCollection)
	logger := client.Logger().With("operation", "ensureUserIndexes")

	indexes := []mongo.IndexModel{
		// ChatID index (unique)
		{
			Keys:    bson.D{{Key: "chatId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Username index (for lookups)
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index(),
		},
		// CreatedAt index (for sorting and filtering)
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}

	return createIndexes(ctx, collection, indexes, logger, UsersCollection)
}
