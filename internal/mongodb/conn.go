package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	SessionsCollection     = "sessions"
	GroupRatingsCollection = "group_ratings"
	UsersCollection        = "users"
)

type DB struct {
	Client *mongo.Client
	name   string
}

// Connect connects to MongoDB and verifies the connection with a ping.
// Change streams need a replica set (a single node one is enough).
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is required (e.g. mongodb://localhost:27017/?replicaSet=rs0)")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	return client, nil
}

func NewDB(client *mongo.Client, name string) *DB {
	return &DB{Client: client, name: name}
}

func (db *DB) GetDatabaseName() string {
	return db.name
}

func (db *DB) Collection(name string) *mongo.Collection {
	return db.Client.Database(db.name).Collection(name)
}
