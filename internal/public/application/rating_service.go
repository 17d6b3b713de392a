package application

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/metrics"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

type ratingService struct {
	ratings RatingRepository
	cafes   CafeStore
	now     func() time.Time
}

// NewRatingService creates the rating service. Every successful write
// recomputes the cafe's aggregate from the full rating set.
func NewRatingService(ratings RatingRepository, cafes CafeStore) RatingService {
	return &ratingService{ratings: ratings, cafes: cafes, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ratingService) Submit(ctx context.Context, cmd SubmitRatingCommand) (*domain.Rating, error) {
	if err := validateRating(cmd.Value, cmd.Review); err != nil {
		return nil, err
	}
	if _, err := s.cafes.FindByID(ctx, cmd.CafeID); err != nil {
		return nil, err
	}

	existing, err := s.ratings.FindByUserAndCafe(ctx, cmd.UserID, cmd.CafeID)
	if err != nil && !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}

	now := s.now()
	var rating *domain.Rating
	if existing != nil {
		rating, err = s.overwrite(ctx, existing, cmd.Value, cmd.Review, now)
	} else {
		rating = &domain.Rating{
			UserID:    cmd.UserID,
			CafeID:    cmd.CafeID,
			Value:     cmd.Value,
			Review:    strings.TrimSpace(cmd.Review),
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.ratings.Insert(ctx, rating)
		if apperror.Is(err, apperror.KindConflict) {
			// A concurrent submit by the same user won the insert.
			existing, err = s.ratings.FindByUserAndCafe(ctx, cmd.UserID, cmd.CafeID)
			if err == nil {
				rating, err = s.overwrite(ctx, existing, cmd.Value, cmd.Review, now)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	s.refreshAggregate(ctx, cmd.CafeID)
	return rating, nil
}

func (s *ratingService) overwrite(ctx context.Context, rating *domain.Rating, value int, review string, now time.Time) (*domain.Rating, error) {
	rating.Value = value
	rating.Review = strings.TrimSpace(review)
	rating.UpdatedAt = now
	if err := s.ratings.Update(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *ratingService) Update(ctx context.Context, cmd UpdateRatingCommand) (*domain.Rating, error) {
	rating, err := s.ownedRating(ctx, cmd.UserID, cmd.CafeID, cmd.RatingID)
	if err != nil {
		return nil, err
	}

	value, review := rating.Value, rating.Review
	if cmd.Value != nil {
		value = *cmd.Value
	}
	if cmd.Review != nil {
		review = *cmd.Review
	}
	if err := validateRating(value, review); err != nil {
		return nil, err
	}

	if rating, err = s.overwrite(ctx, rating, value, review, s.now()); err != nil {
		return nil, err
	}
	s.refreshAggregate(ctx, rating.CafeID)
	return rating, nil
}

func (s *ratingService) Delete(ctx context.Context, userID, cafeID, ratingID string) error {
	rating, err := s.ownedRating(ctx, userID, cafeID, ratingID)
	if err != nil {
		return err
	}
	if err := s.ratings.Delete(ctx, rating.ID); err != nil {
		return err
	}
	s.refreshAggregate(ctx, rating.CafeID)
	return nil
}

func (s *ratingService) List(ctx context.Context, cafeID string) ([]domain.Rating, error) {
	if _, err := s.cafes.FindByID(ctx, cafeID); err != nil {
		return nil, err
	}
	return s.ratings.ListByCafe(ctx, cafeID)
}

// ownedRating loads a rating that belongs to cafeID and was written by userID.
func (s *ratingService) ownedRating(ctx context.Context, userID, cafeID, ratingID string) (*domain.Rating, error) {
	rating, err := s.ratings.FindByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.CafeID != cafeID {
		return nil, apperror.NotFound("rating not found")
	}
	if rating.UserID != userID {
		return nil, apperror.Forbidden("not authorized to modify this rating")
	}
	return rating, nil
}

// refreshAggregate rewrites the cafe's userRating and reviewCount from the
// stored ratings. It runs after the rating write has committed; a failure
// leaves the aggregate stale until the next write and is only logged.
func (s *ratingService) refreshAggregate(ctx context.Context, cafeID string) {
	if err := s.RecomputeAggregate(ctx, cafeID); err != nil {
		metrics.AggregateRefreshFailures.Inc()
		logging.Ctx(ctx).Error().Err(err).Str("cafe_id", cafeID).Msg("rating aggregate refresh failed")
	}
}

// RecomputeAggregate recalculates one cafe's aggregate from scratch.
func (s *ratingService) RecomputeAggregate(ctx context.Context, cafeID string) error {
	sum, count, err := s.ratings.Summarize(ctx, cafeID)
	if err != nil {
		return err
	}
	return s.cafes.UpdateAggregates(ctx, cafeID, domain.RoundedAverage(sum, count), count)
}

func validateRating(value int, review string) error {
	if value < domain.MinRatingValue || value > domain.MaxRatingValue {
		return apperror.Validation("rating must be between %d and %d", domain.MinRatingValue, domain.MaxRatingValue)
	}
	if utf8.RuneCountInString(strings.TrimSpace(review)) > domain.MaxReviewRunes {
		return apperror.Validation("review must be at most %d characters", domain.MaxReviewRunes)
	}
	return nil
}
