package mongodb

import (
	"context"
	"fmt"

	"github.com/lealre/ratebeer-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeleteAllIndexes deletes all indexes from all collections in the database
// (except the default _id_ index which cannot be deleted)
func DeleteAllIndexes(ctx context.Context, db *mongo.Database) error {
	collections, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, collName := range collections {
		coll := db.Collection(collName)

		cursor, err := coll.Indexes().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list indexes for collection '%s': %w", collName, err)
		}

		var indexes []bson.M
		if err := cursor.All(ctx, &indexes); err != nil {
			return fmt.Errorf("failed to decode indexes for collection '%s': %w", collName, err)
		}

		for _, index := range indexes {
			indexName, ok := index["name"].(string)
			if !ok || indexName == "_id_" {
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, indexName); err != nil {
				return fmt.Errorf("failed to delete index '%s' from collection '%s': %w", indexName, collName, err)
			}
			fmt.Printf("Deleted index '%s' from collection '%s'\n", indexName, collName)
		}
	}

	return nil
}

// CreateAllIndexes creates the indexes for sessions, group ratings and users.
func CreateAllIndexes(ctx context.Context, db *mongo.Database, reset bool) error {
	if err := CreateSessionIndexes(ctx, db, reset); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	if err := CreateGroupRatingIndexes(ctx, db, reset); err != nil {
		return fmt.Errorf("failed to create group rating indexes: %w", err)
	}

	if err := CreateUserIndexes(ctx, db, reset); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}

// Unique constraints of the in-memory engine, matching the indexes created
// below.
var (
	SessionMemoryIndexes = []store.MemoryOption{
		store.WithUniqueIndex("pin", map[string]any{"active": true}),
	}
	UserMemoryIndexes = []store.MemoryOption{
		store.WithUniqueIndex("username", nil),
	}
)

// CreateSessionIndexes makes a PIN unique among active sessions. Inactive
// sessions keep their PIN for history and do not block reuse.
func CreateSessionIndexes(ctx context.Context, db *mongo.Database, reset bool) error {
	coll := db.Collection(SessionsCollection)
	pinIndexName := "active_pin_unique"

	pinIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "pin", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName(pinIndexName).
			SetPartialFilterExpression(bson.M{"active": true}),
	}
	return createIndexIfNotExists(ctx, coll, pinIndex, pinIndexName, reset)
}

// CreateGroupRatingIndexes backs the one-document-per-(session, item) rule and
// the cross-session lookup by item.
func CreateGroupRatingIndexes(ctx context.Context, db *mongo.Database, reset bool) error {
	coll := db.Collection(GroupRatingsCollection)

	pairIndexName := "sessionId_and_itemId_unique"
	pairIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "itemId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName(pairIndexName),
	}
	if err := createIndexIfNotExists(ctx, coll, pairIndex, pairIndexName, reset); err != nil {
		return err
	}

	itemIndexName := "itemId"
	itemIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "itemId", Value: 1}},
		Options: options.Index().SetName(itemIndexName),
	}
	return createIndexIfNotExists(ctx, coll, itemIndex, itemIndexName, reset)
}

// CreateUserIndexes creates indexes for the users collection
func CreateUserIndexes(ctx context.Context, db *mongo.Database, reset bool) error {
	coll := db.Collection(UsersCollection)
	usernameIndexName := "username_unique"

	// Exclude empty strings and null values from uniqueness constraint
	usernameIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName(usernameIndexName).
			SetCollation(&options.Collation{
				Locale:   "en",
				Strength: 2,
			}).
			SetPartialFilterExpression(bson.M{
				"$and": []bson.M{
					{"username": bson.M{"$type": "string"}},
					{"username": bson.M{"$gt": ""}},
				},
			}),
	}
	return createIndexIfNotExists(ctx, coll, usernameIndex, usernameIndexName, reset)
}

// createIndexIfNotExists checks if an index exists and creates it if it doesn't
// If reset is true, it will delete the existing index and recreate it
func createIndexIfNotExists(ctx context.Context, coll *mongo.Collection, indexModel mongo.IndexModel, indexName string, reset bool) error {
	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	defer cursor.Close(ctx)

	indexExists := false
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			return fmt.Errorf("failed to decode index: %w", err)
		}

		if name, ok := index["name"].(string); ok && name == indexName {
			indexExists = true
			break
		}
	}

	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error: %w", err)
	}

	if indexExists {
		if !reset {
			fmt.Printf("Index '%s' already exists on collection '%s', skipping...\n", indexName, coll.Name())
			return nil
		}
		if _, err := coll.Indexes().DropOne(ctx, indexName); err != nil {
			return fmt.Errorf("failed to delete index '%s': %w", indexName, err)
		}
		fmt.Printf("Deleted index '%s' on collection '%s'\n", indexName, coll.Name())
	}

	if _, err = coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index '%s': %w", indexName, err)
	}

	fmt.Printf("Created index '%s' on collection '%s'\n", indexName, coll.Name())
	return nil
}
