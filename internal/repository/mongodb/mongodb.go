package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoDB(uri, database string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	return open(client, database)
}

// open pings the deployment and disconnects the client if it is unreachable.
func open(client *mongo.Client, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			slog.Warn("Failed to disconnect MongoDB client", "error", derr)
		}
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", database)

	return &DB{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (m *DB) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *DB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
