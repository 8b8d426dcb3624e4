package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwatch-service/internal/domain/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// snapshotDocument stores flights as a list since flight ids may contain dots
type snapshotDocument struct {
	Key       string                `bson:"_id"`
	Flights   []entity.FlightRecord `bson:"flights"`
	UpdatedAt time.Time             `bson:"updatedAt"`
}

// MongoSnapshotRepository implements the SnapshotRepository interface
type MongoSnapshotRepository struct {
	collection *mongo.Collection
	key        string
}

// NewMongoSnapshotRepository creates a new MongoDB snapshot repository
func NewMongoSnapshotRepository(db *mongo.Database, key string) *MongoSnapshotRepository {
	return &MongoSnapshotRepository{
		collection: db.Collection("flightSnapshots"),
		key:        key,
	}
}

// Load finds the snapshot document for the repository key
func (r *MongoSnapshotRepository) Load(ctx context.Context) (entity.Snapshot, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": r.key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}

	return entity.SnapshotFromRecords(doc.Flights), nil
}

// Save upserts the snapshot document for the repository key
func (r *MongoSnapshotRepository) Save(ctx context.Context, snapshot entity.Snapshot) error {
	doc := snapshotDocument{
		Key:       r.key,
		Flights:   snapshot.Records(),
		UpdatedAt: time.Now(),
	}

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": r.key},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
