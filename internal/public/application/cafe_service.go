package application

import (
	"context"
	"strings"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/metrics"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// cafeQueryService is the concrete implementation of CafeQueryService.
type cafeQueryService struct {
	store  CafeStore
	source GeoDataSource
}

// NewCafeQueryService creates the cafe discovery service.
func NewCafeQueryService(store CafeStore, source GeoDataSource) CafeQueryService {
	return &cafeQueryService{store: store, source: source}
}

// Nearby runs check, backfill, recheck. The store is authoritative once it
// holds SufficiencyThreshold cafes for the area; below that the geodata
// source is consulted and each candidate is upserted by external id, so
// repeated or concurrent calls never create duplicates.
func (s *cafeQueryService) Nearby(ctx context.Context, query NearbyQuery) ([]domain.RankedCafe, error) {
	if !query.Center.Valid() {
		return nil, apperror.Validation("latitude and longitude must be valid coordinates")
	}
	if query.RadiusKm <= 0 {
		return nil, apperror.Validation("radius must be positive")
	}

	cafes, err := s.store.FindNear(ctx, query.Center, query.RadiusKm, NearbyLimit)
	if err != nil {
		return nil, err
	}

	if len(cafes) < SufficiencyThreshold {
		metrics.BackfillRuns.Inc()
		s.backfill(ctx, query.Center, query.RadiusKm)

		cafes, err = s.store.FindNear(ctx, query.Center, query.RadiusKm, NearbyLimit)
		if err != nil {
			return nil, err
		}
	}

	return applyFilter(RankByDistance(query.Center, cafes), query.Filter), nil
}

// backfill never fails the caller: a source error counts as no candidates and
// a failed upsert only skips that candidate.
func (s *cafeQueryService) backfill(ctx context.Context, center domain.GeoPoint, radiusKm float64) {
	logger := logging.Ctx(ctx)

	candidates, err := s.source.FetchPointsOfInterest(ctx, center, radiusKm)
	if err != nil {
		logger.Warn().Err(err).Msg("geodata fetch failed, serving stored cafes only")
		return
	}

	for _, candidate := range candidates {
		if _, err := s.store.UpsertFromExternal(ctx, CafeFromCandidate(candidate)); err != nil {
			metrics.IngestedCandidates.WithLabelValues(metrics.OutcomeError).Inc()
			logger.Debug().Err(err).Str("osm_id", candidate.ExternalID).Msg("candidate skipped")
			continue
		}
		metrics.IngestedCandidates.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
}

func (s *cafeQueryService) Search(ctx context.Context, text string, near *domain.GeoPoint) ([]domain.Cafe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("search query is required")
	}
	if near != nil && !near.Valid() {
		return nil, apperror.Validation("latitude and longitude must be valid coordinates")
	}
	return s.store.Search(ctx, text, near, NearbyLimit)
}

func (s *cafeQueryService) Detail(ctx context.Context, id string) (*domain.Cafe, error) {
	return s.store.FindByID(ctx, id)
}
