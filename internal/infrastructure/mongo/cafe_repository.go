package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// CafeRepository implements application.CafeStore using MongoDB.
type CafeRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewCafeRepository creates a new Mongo-backed cafe repository.
func NewCafeRepository(db *mongo.Database, collectionName string) *CafeRepository {
	return &CafeRepository{
		collection: db.Collection(collectionName),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// FindNear returns cafes within radiusKm of center ordered by distance.
func (r *CafeRepository) FindNear(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Cafe, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    newGeoJSONPoint(center.Latitude, center.Longitude),
				"$maxDistance": radiusKm * 1000,
			},
		},
	}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "cafe")
	}
	return decodeCafes(ctx, cursor)
}

// FindByExternalID looks a cafe up by its OpenStreetMap identifier.
func (r *CafeRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Cafe, error) {
	return r.findOne(ctx, bson.M{"osmId": externalID})
}

// FindByID returns a single cafe by its identifier.
func (r *CafeRepository) FindByID(ctx context.Context, id string) (*domain.Cafe, error) {
	objectID, err := parseObjectID(id, "cafe id")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByIDs returns the existing cafes among ids, in the order given.
func (r *CafeRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Cafe, error) {
	if len(ids) == 0 {
		return []domain.Cafe{}, nil
	}
	objectIDs, err := parseObjectIDs(ids, "cafe id")
	if err != nil {
		return nil, err
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, translate(err, "cafe")
	}
	found, err := decodeCafes(ctx, cursor)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Cafe, len(found))
	for _, cafe := range found {
		byID[cafe.ID] = cafe
	}
	ordered := make([]domain.Cafe, 0, len(found))
	for _, id := range objectIDs {
		if cafe, ok := byID[id.Hex()]; ok {
			ordered = append(ordered, cafe)
		}
	}
	return ordered, nil
}

// UpsertFromExternal inserts cafe unless its osmId is already stored. An
// existing record is returned as stored and never overwritten.
func (r *CafeRepository) UpsertFromExternal(ctx context.Context, cafe domain.Cafe) (*domain.Cafe, error) {
	if strings.TrimSpace(cafe.OSMID) == "" {
		return nil, apperror.Validation("cafe external id is required")
	}
	if strings.TrimSpace(cafe.Name) == "" {
		return nil, apperror.Validation("cafe name is required")
	}
	if !cafe.Location.Valid() {
		return nil, apperror.Validation("cafe location is invalid")
	}
	if !cafe.Category.Valid() {
		return nil, apperror.Validation("cafe category is invalid")
	}

	now := r.now()
	doc := cafeToDocument(cafe)
	doc.ID = primitive.NilObjectID
	doc.UserRating = 0
	doc.ReviewCount = 0
	doc.CreatedAt = now
	doc.UpdatedAt = now

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, bson.M{"osmId": doc.OSMID}, bson.M{"$setOnInsert": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// 同時挿入で負けた場合は既存レコードを返す。
			return r.FindByExternalID(ctx, doc.OSMID)
		}
		return nil, translate(err, "cafe")
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		doc.ID = id
		inserted := cafeFromDocument(doc)
		return &inserted, nil
	}
	return r.FindByExternalID(ctx, doc.OSMID)
}

// Search matches text against name, address and tags. When near is set the
// matches are ordered by distance from it.
func (r *CafeRepository) Search(ctx context.Context, text string, near *domain.GeoPoint, limit int) ([]domain.Cafe, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(text)), Options: "i"}
	match := bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"address": pattern},
			{"tags": pattern},
		},
	}

	if near == nil {
		opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "name", Value: 1}})
		cursor, err := r.collection.Find(ctx, match, opts)
		if err != nil {
			return nil, translate(err, "cafe")
		}
		return decodeCafes(ctx, cursor)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          newGeoJSONPoint(near.Latitude, near.Longitude),
			"distanceField": "distance",
			"spherical":     true,
			"query":         match,
		}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "cafe")
	}
	return decodeCafes(ctx, cursor)
}

// UpdateAggregates overwrites the cafe's derived rating fields.
func (r *CafeRepository) UpdateAggregates(ctx context.Context, cafeID string, userRating float64, reviewCount int) error {
	objectID, err := parseObjectID(cafeID, "cafe id")
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"userRating":  userRating,
		"reviewCount": reviewCount,
		"updatedAt":   r.now(),
	}}
	result, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return translate(err, "cafe")
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("cafe not found")
	}
	return nil
}

func (r *CafeRepository) findOne(ctx context.Context, filter bson.M) (*domain.Cafe, error) {
	var doc CafeDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "cafe")
	}
	cafe := cafeFromDocument(doc)
	return &cafe, nil
}

func decodeCafes(ctx context.Context, cursor *mongo.Cursor) ([]domain.Cafe, error) {
	defer cursor.Close(ctx)

	cafes := make([]domain.Cafe, 0)
	for cursor.Next(ctx) {
		var doc CafeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err, "cafe")
		}
		cafes = append(cafes, cafeFromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, translate(err, "cafe")
	}
	return cafes, nil
}

func cafeToDocument(cafe domain.Cafe) CafeDocument {
	doc := CafeDocument{
		OSMID:          cafe.OSMID,
		Name:           cafe.Name,
		Address:        cafe.Address,
		Location:       newGeoJSONPoint(cafe.Location.Latitude, cafe.Location.Longitude),
		Category:       string(cafe.Category),
		Website:        cafe.Website,
		Phone:          cafe.Phone,
		OpeningHours:   cafe.OpeningHours,
		WiFi:           cafe.Amenities.WiFi,
		PowerOutlets:   cafe.Amenities.PowerOutlets,
		QuietWorkspace: cafe.Amenities.QuietWorkspace,
		Tags:           append([]string{}, cafe.Tags...),
		UserRating:     cafe.UserRating,
		ReviewCount:    cafe.ReviewCount,
		CreatedAt:      cafe.CreatedAt,
		UpdatedAt:      cafe.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(cafe.ID); err == nil {
		doc.ID = id
	}
	return doc
}

func cafeFromDocument(doc CafeDocument) domain.Cafe {
	var location domain.GeoPoint
	if len(doc.Location.Coordinates) == 2 {
		location = domain.GeoPoint{Latitude: doc.Location.Coordinates[1], Longitude: doc.Location.Coordinates[0]}
	}
	return domain.Cafe{
		ID:           doc.ID.Hex(),
		OSMID:        doc.OSMID,
		Name:         doc.Name,
		Address:      doc.Address,
		Location:     location,
		Category:     domain.Category(doc.Category),
		Website:      doc.Website,
		Phone:        doc.Phone,
		OpeningHours: doc.OpeningHours,
		Amenities: domain.Amenities{
			WiFi:           doc.WiFi,
			PowerOutlets:   doc.PowerOutlets,
			QuietWorkspace: doc.QuietWorkspace,
		},
		Tags:        append([]string{}, doc.Tags...),
		UserRating:  doc.UserRating,
		ReviewCount: doc.ReviewCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
