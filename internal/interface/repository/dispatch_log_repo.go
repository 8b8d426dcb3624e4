// internal/interface/repository/dispatch_log_repo.go
package repository

import (
	"context"
	"fmt"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDispatchLogRepository implements the DispatchLogRepository interface
type MongoDispatchLogRepository struct {
	collection *mongo.Collection
}

// NewMongoDispatchLogRepository creates a new MongoDB dispatch log repository
func NewMongoDispatchLogRepository(db *mongo.Database) repository.DispatchLogRepository {
	collection := db.Collection("dispatchLogs")

	// Create indexes for better performance
	ctx := context.Background()

	// Index on runId for reading back a whole run
	runIDIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "runId", Value: 1},
			{Key: "startedAt", Value: 1},
		},
	}

	// Index on startedAt for sorting and filtering
	startedAtIndex := mongo.IndexModel{
		Keys: bson.M{"startedAt": -1},
	}

	// Index on status for finding failed dispatches
	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		runIDIndex,
		startedAtIndex,
		statusIndex,
	})

	return &MongoDispatchLogRepository{
		collection: collection,
	}
}

// Save inserts one dispatch attempt
func (r *MongoDispatchLogRepository) Save(ctx context.Context, log *entity.DispatchLog) error {
	if log.Status == "" {
		return fmt.Errorf("dispatch log for group %s has no status", log.GroupKey)
	}

	if _, err := r.collection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to save dispatch log: %w", err)
	}
	return nil
}

// FindByRunID finds every dispatch attempt of a run, oldest first
func (r *MongoDispatchLogRepository) FindByRunID(ctx context.Context, runID string) ([]*entity.DispatchLog, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"runId": runID}, &options.FindOptions{
		Sort: bson.D{{Key: "startedAt", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*entity.DispatchLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
