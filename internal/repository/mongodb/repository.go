// Package mongodb archives daily dashboard snapshots. Its tests need a live
// server and run only with the integration build tag.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// Repository defines the interface for dashboard snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.DailySnapshot) error
	LatestSnapshot(ctx context.Context) (*models.DailySnapshot, error)
}

// MongoDBRepository archives one snapshot per day in the sales_snapshots collection.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "sales_snapshots",
	}, nil
}

// SaveSnapshot upserts the snapshot of its day so a rerun replaces the earlier one.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.DailySnapshot) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err := collection.ReplaceOne(ctx, bson.M{"date": snapshot.Date}, snapshot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.Date, err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none exists.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context) (*models.DailySnapshot, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})

	var snapshot models.DailySnapshot
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
