package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hotelpos/hotelpos/cmd/utils/internal/seeding"
)

const demoSeedID = "demo_orders_v1"

func connect(ctx context.Context, config *apt.Config) (*mongo.Client, *mongo.Database, error) {
	mongoURL := config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := config.GetStringOrDef("db.mongo.name", "hotelpos")

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(dbName), nil
}

// SeedDemo inserts a realistic set of demo orders: a live kitchen queue plus
// a few finished orders for the tracking timeline. Seeding is idempotent.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Demo seeds already applied, skipping")
		return nil
	}

	if err := seeding.SeedOrders(ctx, db); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         demoSeedID,
		"description": "Create demo orders across statuses and order types",
		"applied_at":  time.Now(),
	})
	if err != nil {
		logger.Infof("Failed to mark seed as applied: %v", err)
	}

	logger.Info("Demo seeds applied successfully")
	return nil
}

// ClearDemo removes demo orders and the seed marker so seed-demo can run
// again. Demo orders are recognized by their ORD-DEMO number prefix.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Clearing demo data...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	result, err := db.Collection("orders").DeleteMany(ctx, bson.M{
		"order_number": bson.M{"$regex": "^ORD-DEMO-"},
	})
	if err != nil {
		return fmt.Errorf("delete demo orders: %w", err)
	}
	logger.Infof("Deleted %d demo orders", result.DeletedCount)

	if _, err := db.Collection("_seeds").DeleteOne(ctx, bson.M{"_id": demoSeedID}); err != nil {
		return fmt.Errorf("delete seed marker: %w", err)
	}

	return nil
}

// ResetDB drops the whole database: orders, counters, and seed markers.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Resetting database...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}

	logger.Infof("Dropped database %s", db.Name())
	return nil
}
