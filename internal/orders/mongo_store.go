package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB opens and verifies a connection to the order database.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type mongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) Repository {
	return &mongoStore{collection: db.Collection("orders")}
}

// CreateIndexes backs the per-shopper newest-first query.
func (m *mongoStore) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "shopper.id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create order index: %w", err)
	}
	return nil
}

// Put upserts at _id = settlement id. created_at is set only on insert, so a
// re-put of the same settlement never moves the order in the feed, and the
// timestamp is this server's clock rather than the client's.
func (m *mongoStore) Put(ctx context.Context, order *domain.Order) error {
	filter := bson.M{"_id": order.ID}
	update := bson.M{
		"$set": bson.M{
			"shopper": order.Shopper,
			"items":   order.Items,
			"total":   order.Total,
		},
		"$setOnInsert": bson.M{
			"created_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}

	return nil
}

func (m *mongoStore) ListByShopper(ctx context.Context, shopperID string) ([]domain.Order, error) {
	filter := bson.M{"shopper.id": shopperID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	result := make([]domain.Order, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return result, nil
}

func (m *mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}
