package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hotelpos/hotelpos/services/pos/internal/pos"
)

type OrderRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	counters   *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

func NewOrderRepo(config *apt.Config, logger apt.Logger) *OrderRepo {
	return &OrderRepo{
		logger: logger,
		config: config,
	}
}

func (r *OrderRepo) Start(ctx context.Context) error {
	mongoURL := r.config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := r.config.GetStringOrDef("db.mongo.name", "hotelpos")

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection("orders")
	r.counters = r.db.Collection("counters")

	numberIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, numberIndex); err != nil {
		return fmt.Errorf("cannot create order_number index: %w", err)
	}

	queueIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "placed_at", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, queueIndex); err != nil {
		return fmt.Errorf("cannot create status index: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: orders", mongoURL, dbName)
	return nil
}

func (r *OrderRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *pos.Order) error {
	_, err := r.collection.InsertOne(ctx, o)
	if err != nil {
		return fmt.Errorf("cannot insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) Save(ctx context.Context, o *pos.Order) error {
	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", o.ID)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*pos.Order, error) {
	var order pos.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order %s not found", id)
		}
		return nil, fmt.Errorf("cannot find order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*pos.Order, error) {
	var order pos.Order
	err := r.collection.FindOne(ctx, bson.M{"order_number": number}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order %s not found", number)
		}
		return nil, fmt.Errorf("cannot find order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepo) List(ctx context.Context, filter pos.OrderFilter) ([]pos.Order, error) {
	query := bson.M{}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.OrderType != "" {
		query["order_type"] = filter.OrderType
	}

	// Oldest placed first: the kitchen works the queue in FIFO order.
	findOptions := options.Find().SetSort(bson.D{{Key: "placed_at", Value: 1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		findOptions.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []pos.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}
	return orders, nil
}

// NextOrderNumber allocates the next number in a per-day sequence via an
// atomic upsert on the counters collection (ORD-YYYYMMDD-NNNN).
func (r *OrderRepo) NextOrderNumber(ctx context.Context) (string, error) {
	day := time.Now().Format("20060102")
	key := fmt.Sprintf("orders-%s", day)

	var counter struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", fmt.Errorf("cannot advance order sequence: %w", err)
	}

	return fmt.Sprintf("ORD-%s-%04d", day, counter.Seq), nil
}
