package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FavoriteRepository persists favorites per user.
type FavoriteRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewFavoriteRepository(db *mongo.Database, collectionName string) *FavoriteRepository {
	return &FavoriteRepository{
		collection: db.Collection(collectionName),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Add upserts the pair. Returns true if it was newly created.
func (r *FavoriteRepository) Add(ctx context.Context, userID, cafeID string) (bool, error) {
	filter, err := favoriteFilter(userID, cafeID)
	if err != nil {
		return false, err
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"createdAt": r.now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, translate(err, "favorite")
	}
	return result.UpsertedCount > 0, nil
}

// Remove deletes the pair. Returns true if it existed.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, cafeID string) (bool, error) {
	filter, err := favoriteFilter(userID, cafeID)
	if err != nil {
		return false, err
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, translate(err, "favorite")
	}
	return result.DeletedCount > 0, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, cafeID string) (bool, error) {
	filter, err := favoriteFilter(userID, cafeID)
	if err != nil {
		return false, err
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "favorite")
	}
	return count > 0, nil
}

// ListCafeIDs returns the user's favorite cafe ids, newest first.
func (r *FavoriteRepository) ListCafeIDs(ctx context.Context, userID string) ([]string, error) {
	userObjectID, err := parseObjectID(userID, "user id")
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"cafeId": 1, "createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userObjectID}, opts)
	if err != nil {
		return nil, translate(err, "favorite")
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var doc FavoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err, "favorite")
		}
		ids = append(ids, doc.CafeID.Hex())
	}
	if err := cursor.Err(); err != nil {
		return nil, translate(err, "favorite")
	}
	return ids, nil
}

func favoriteFilter(userID, cafeID string) (bson.M, error) {
	userObjectID, err := parseObjectID(userID, "user id")
	if err != nil {
		return nil, err
	}
	cafeObjectID, err := parseObjectID(cafeID, "cafe id")
	if err != nil {
		return nil, err
	}
	return bson.M{"userId": userObjectID, "cafeId": cafeObjectID}, nil
}
