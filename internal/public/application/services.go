package application

import (
	"context"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

const (
	// SufficiencyThreshold is the number of stored cafes at or above which a
	// location query is answered from the store alone.
	SufficiencyThreshold = 10
	// NearbyLimit caps every location and text query.
	NearbyLimit = 50
)

// CafeStore is the persistence port for cafes.
// CafeStore は Public コンテキストでカフェを読み書きするためのポート。
type CafeStore interface {
	// FindNear returns up to limit cafes within radiusKm of center, nearest first.
	FindNear(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Cafe, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Cafe, error)
	FindByID(ctx context.Context, id string) (*domain.Cafe, error)
	// FindByIDs returns the cafes that exist, in the order of ids.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Cafe, error)
	// UpsertFromExternal inserts cafe keyed by its OSMID unless a cafe with the
	// same OSMID exists, in which case the stored record is returned untouched.
	UpsertFromExternal(ctx context.Context, cafe domain.Cafe) (*domain.Cafe, error)
	// Search matches text case-insensitively against name, address and tags.
	// With a non-nil near the results are ordered by proximity.
	Search(ctx context.Context, text string, near *domain.GeoPoint, limit int) ([]domain.Cafe, error)
	// UpdateAggregates overwrites only the derived rating fields.
	UpdateAggregates(ctx context.Context, cafeID string, userRating float64, reviewCount int) error
}

// GeoDataSource fetches cafe-like points of interest around a location.
type GeoDataSource interface {
	FetchPointsOfInterest(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.ExternalCandidate, error)
}

// RatingRepository persists ratings.
type RatingRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Rating, error)
	FindByUserAndCafe(ctx context.Context, userID, cafeID string) (*domain.Rating, error)
	Insert(ctx context.Context, rating *domain.Rating) error
	Update(ctx context.Context, rating *domain.Rating) error
	Delete(ctx context.Context, id string) error
	// ListByCafe returns a cafe's ratings, newest first.
	ListByCafe(ctx context.Context, cafeID string) ([]domain.Rating, error)
	// Summarize returns the sum and count of a cafe's rating values.
	Summarize(ctx context.Context, cafeID string) (sum int, count int, err error)
}

// FavoriteRepository persists the user/cafe favorite relation.
type FavoriteRepository interface {
	// Add returns false when the pair already existed.
	Add(ctx context.Context, userID, cafeID string) (bool, error)
	// Remove returns false when the pair did not exist.
	Remove(ctx context.Context, userID, cafeID string) (bool, error)
	Exists(ctx context.Context, userID, cafeID string) (bool, error)
	// ListCafeIDs returns the user's favorite cafe ids, newest first.
	ListCafeIDs(ctx context.Context, userID string) ([]string, error)
}

// CafeFilter narrows a location query after ranking.
type CafeFilter struct {
	Category       domain.Category
	WiFi           bool
	PowerOutlets   bool
	QuietWorkspace bool
}

// NearbyQuery is the input of a location query.
type NearbyQuery struct {
	Center   domain.GeoPoint
	RadiusKm float64
	Filter   CafeFilter
}

// CafeQueryService describes cafe discovery use-cases.
// CafeQueryService はカフェ検索のユースケースを提供する。
type CafeQueryService interface {
	// Nearby answers a location query, backfilling the store from the
	// geodata source when it holds fewer than SufficiencyThreshold cafes.
	Nearby(ctx context.Context, query NearbyQuery) ([]domain.RankedCafe, error)
	// Search answers a text query from the store only.
	Search(ctx context.Context, text string, near *domain.GeoPoint) ([]domain.Cafe, error)
	Detail(ctx context.Context, id string) (*domain.Cafe, error)
}

// SubmitRatingCommand creates or replaces the caller's rating of a cafe.
type SubmitRatingCommand struct {
	UserID string
	CafeID string
	Value  int
	Review string
}

// UpdateRatingCommand changes an existing rating. Nil fields are left as-is.
type UpdateRatingCommand struct {
	UserID   string
	CafeID   string
	RatingID string
	Value    *int
	Review   *string
}

// RatingService handles rating writes and keeps cafe aggregates in sync.
type RatingService interface {
	Submit(ctx context.Context, cmd SubmitRatingCommand) (*domain.Rating, error)
	Update(ctx context.Context, cmd UpdateRatingCommand) (*domain.Rating, error)
	Delete(ctx context.Context, userID, cafeID, ratingID string) error
	List(ctx context.Context, cafeID string) ([]domain.Rating, error)
	RecomputeAggregate(ctx context.Context, cafeID string) error
}

// FavoriteService handles the user's saved cafes.
type FavoriteService interface {
	Add(ctx context.Context, userID, cafeID string) error
	Remove(ctx context.Context, userID, cafeID string) error
	List(ctx context.Context, userID string) ([]domain.Cafe, error)
	IsFavorite(ctx context.Context, userID, cafeID string) (bool, error)
}
