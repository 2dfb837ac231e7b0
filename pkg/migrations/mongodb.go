package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"retailops/internal/constants"
)

// ActivityLogIndexes backs the feed's newest-first listing and its
// entity filters.
func ActivityLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_activity_logs_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_logs_entity"),
		},
	}
}

// EnsureActivityLogIndexes is idempotent. The collection itself is created
// on first insert.
func EnsureActivityLogIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(constants.ActivityLogsCollection)

	_, err := collection.Indexes().CreateMany(ctx, ActivityLogIndexes())
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create activity log indexes: %w", err)
	}
	return nil
}
