package activity

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"retailops/internal/constants"
	"retailops/pkg/models"
)

type ListFilter struct {
	EntityType models.EntityType
	EntityID   string
	Limit      int
	Offset     int
}

type Repository interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, int64, error)
}

type MongoDBRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &MongoDBRepository{
		collection: db.Collection(constants.ActivityLogsCollection),
	}
}

func (r *MongoDBRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// List returns entries newest first along with the total matching count.
func (r *MongoDBRepository) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, int64, error) {
	query := bson.M{}
	if filter.EntityType != "" {
		query["entity_type"] = filter.EntityType
	}
	if filter.EntityID != "" {
		query["entity_id"] = filter.EntityID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find activity logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]models.ActivityLog, 0)
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode activity logs: %w", err)
	}

	return logs, total, nil
}
