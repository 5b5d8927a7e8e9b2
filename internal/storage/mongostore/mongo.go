// Package mongostore is the MongoDB ledger backend: one collection per entity,
// documents keyed by the surrogate ID.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionsCollection = "transactions"
	RecurringCollection    = "recurring_definitions"
	BudgetsCollection      = "budgets"
	GoalsCollection        = "goals"
	CategoriesCollection   = "categories"
)

// Collection is the subset of *mongo.Collection the store uses.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) Collection
}

// DatabaseProvider adapts a *mongo.Database to CollectionProvider.
type DatabaseProvider struct {
	db *mongo.Database
}

func (p DatabaseProvider) Collection(name string) Collection {
	return p.db.Collection(name)
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}
