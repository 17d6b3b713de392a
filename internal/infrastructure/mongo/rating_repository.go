package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// RatingRepository implements application.RatingRepository using MongoDB.
type RatingRepository struct {
	collection *mongo.Collection
}

// NewRatingRepository creates a new Mongo-backed rating repository.
func NewRatingRepository(db *mongo.Database, collectionName string) *RatingRepository {
	return &RatingRepository{collection: db.Collection(collectionName)}
}

func (r *RatingRepository) FindByID(ctx context.Context, id string) (*domain.Rating, error) {
	objectID, err := parseObjectID(id, "rating id")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *RatingRepository) FindByUserAndCafe(ctx context.Context, userID, cafeID string) (*domain.Rating, error) {
	userObjectID, err := parseObjectID(userID, "user id")
	if err != nil {
		return nil, err
	}
	cafeObjectID, err := parseObjectID(cafeID, "cafe id")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"userId": userObjectID, "cafeId": cafeObjectID})
}

// Insert stores a new rating and assigns its ID. A second rating by the same
// user for the same cafe is rejected by the unique index as a conflict.
func (r *RatingRepository) Insert(ctx context.Context, rating *domain.Rating) error {
	if rating == nil {
		return apperror.Validation("rating payload is nil")
	}
	doc, err := ratingToDocument(*rating)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err, "rating")
	}
	rating.ID = doc.ID.Hex()
	return nil
}

// Update replaces the rating's value, review and update time.
func (r *RatingRepository) Update(ctx context.Context, rating *domain.Rating) error {
	if rating == nil || strings.TrimSpace(rating.ID) == "" {
		return apperror.Validation("rating id is required")
	}
	objectID, err := parseObjectID(rating.ID, "rating id")
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"rating":    rating.Value,
		"review":    rating.Review,
		"updatedAt": rating.UpdatedAt,
	}}
	result, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return translate(err, "rating")
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("rating not found")
	}
	return nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id, "rating id")
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return translate(err, "rating")
	}
	if result.DeletedCount == 0 {
		return apperror.NotFound("rating not found")
	}
	return nil
}

// ListByCafe returns the cafe's ratings, newest first.
func (r *RatingRepository) ListByCafe(ctx context.Context, cafeID string) ([]domain.Rating, error) {
	cafeObjectID, err := parseObjectID(cafeID, "cafe id")
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"cafeId": cafeObjectID}, opts)
	if err != nil {
		return nil, translate(err, "rating")
	}
	defer cursor.Close(ctx)

	ratings := make([]domain.Rating, 0)
	for cursor.Next(ctx) {
		var doc RatingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err, "rating")
		}
		ratings = append(ratings, ratingFromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, translate(err, "rating")
	}
	return ratings, nil
}

// Summarize は対象カフェの評価を全件集計し、合計と件数を返す。
func (r *RatingRepository) Summarize(ctx context.Context, cafeID string) (int, int, error) {
	cafeObjectID, err := parseObjectID(cafeID, "cafe id")
	if err != nil {
		return 0, 0, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"cafeId": cafeObjectID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"sum":   bson.M{"$sum": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, translate(err, "rating")
	}
	defer cursor.Close(ctx)

	var agg struct {
		Sum   int `bson:"sum"`
		Count int `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&agg); err != nil {
			return 0, 0, translate(err, "rating")
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, 0, translate(err, "rating")
	}
	return agg.Sum, agg.Count, nil
}

func (r *RatingRepository) findOne(ctx context.Context, filter bson.M) (*domain.Rating, error) {
	var doc RatingDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "rating")
	}
	rating := ratingFromDocument(doc)
	return &rating, nil
}

func ratingToDocument(rating domain.Rating) (RatingDocument, error) {
	userID, err := parseObjectID(rating.UserID, "user id")
	if err != nil {
		return RatingDocument{}, err
	}
	cafeID, err := parseObjectID(rating.CafeID, "cafe id")
	if err != nil {
		return RatingDocument{}, err
	}
	return RatingDocument{
		UserID:    userID,
		CafeID:    cafeID,
		Rating:    rating.Value,
		Review:    rating.Review,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}, nil
}

func ratingFromDocument(doc RatingDocument) domain.Rating {
	return domain.Rating{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID.Hex(),
		CafeID:    doc.CafeID.Hex(),
		Value:     doc.Rating,
		Review:    doc.Review,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
