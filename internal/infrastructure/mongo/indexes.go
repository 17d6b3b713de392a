package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names the collections the API uses.
type Collections struct {
	Cafes     string
	Ratings   string
	Favorites string
	Users     string
}

// EnsureIndexes creates the geo and uniqueness indexes the repositories rely
// on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, names Collections) error {
	specs := map[string][]mongo.IndexModel{
		names.Cafes: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "osmId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		names.Ratings: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "cafeId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "cafeId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		names.Favorites: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "cafeId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		names.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for collection, models := range specs {
		if collection == "" {
			continue
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
