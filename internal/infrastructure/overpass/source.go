package overpass

import (
	"context"
	"strconv"

	"github.com/mmcloughlin/geohash"

	"github.com/sngm3741/bean-beacon-services/api/internal/cache"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/metrics"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// GeohashPrecision is the geohash length used by GeohashKey (cells of
// roughly 150m).
const GeohashPrecision = 7

// Fetcher is the raw upstream call a Source wraps.
type Fetcher interface {
	FetchPointsOfInterest(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.ExternalCandidate, error)
}

// KeyFunc derives a cache key from a query.
type KeyFunc func(center domain.GeoPoint, radiusKm float64) string

// GeohashKey buckets nearby centers into one geohash cell per radius.
func GeohashKey(center domain.GeoPoint, radiusKm float64) string {
	return geohash.EncodeWithPrecision(center.Latitude, center.Longitude, GeohashPrecision) +
		"|" + strconv.FormatFloat(radiusKm, 'f', 2, 64)
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithKeyFunc replaces the default GeohashKey.
func WithKeyFunc(fn KeyFunc) SourceOption {
	return func(s *Source) {
		if fn != nil {
			s.key = fn
		}
	}
}

// Source is the geodata source used by the ingestion pipeline. It serves
// repeated queries from the cache and degrades to an empty result when the
// upstream fails, so it never returns an error.
type Source struct {
	fetcher Fetcher
	cache   *cache.Cache[[]domain.ExternalCandidate]
	key     KeyFunc
}

// NewSource wraps fetcher. A nil cache disables caching.
func NewSource(fetcher Fetcher, c *cache.Cache[[]domain.ExternalCandidate], opts ...SourceOption) *Source {
	s := &Source{fetcher: fetcher, cache: c, key: GeohashKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPointsOfInterest returns cached candidates when present, otherwise
// asks the fetcher and caches a successful answer, empty or not.
func (s *Source) FetchPointsOfInterest(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.ExternalCandidate, error) {
	var key string
	if s.cache != nil {
		key = s.key(center, radiusKm)
		if candidates, ok := s.cache.Get(key); ok {
			metrics.GeoDataCacheHits.Inc()
			return candidates, nil
		}
		metrics.GeoDataCacheMisses.Inc()
	}

	candidates, err := s.fetcher.FetchPointsOfInterest(ctx, center, radiusKm)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Float64("lat", center.Latitude).
			Float64("lon", center.Longitude).
			Float64("radius_km", radiusKm).
			Msg("overpass unavailable, continuing without external candidates")
		return []domain.ExternalCandidate{}, nil
	}
	if candidates == nil {
		candidates = []domain.ExternalCandidate{}
	}
	if s.cache != nil {
		s.cache.Set(key, candidates)
	}
	return candidates, nil
}
