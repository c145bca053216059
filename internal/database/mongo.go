// Package database opens the persistence handles used by the repositories:
// a MongoDB client for the document store and a pgx pool for Postgres.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	UsersCollection = "users"
	FilesCollection = "files"
)

// Mongo is an explicitly owned MongoDB handle. It is created once at startup
// and must be closed on shutdown.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri, verifies the connection and selects database name.
func ConnectMongo(ctx context.Context, uri, name string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(16).
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{client: client, db: client.Database(name)}, nil
}

// Collection returns a named collection of the selected database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes and the unique email index.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_email"),
			},
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		FilesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "id", Value: 1}, {Key: "userId", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
