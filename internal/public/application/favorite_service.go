package application

import (
	"context"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

type favoriteService struct {
	favorites FavoriteRepository
	cafes     CafeStore
}

// NewFavoriteService creates the favorites service.
func NewFavoriteService(favorites FavoriteRepository, cafes CafeStore) FavoriteService {
	return &favoriteService{favorites: favorites, cafes: cafes}
}

func (s *favoriteService) Add(ctx context.Context, userID, cafeID string) error {
	if _, err := s.cafes.FindByID(ctx, cafeID); err != nil {
		return err
	}
	created, err := s.favorites.Add(ctx, userID, cafeID)
	if err != nil {
		return err
	}
	if !created {
		return apperror.Conflict("already in favorites")
	}
	return nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, cafeID string) error {
	removed, err := s.favorites.Remove(ctx, userID, cafeID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("favorite not found")
	}
	return nil
}

func (s *favoriteService) List(ctx context.Context, userID string) ([]domain.Cafe, error) {
	ids, err := s.favorites.ListCafeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Cafe{}, nil
	}
	return s.cafes.FindByIDs(ctx, ids)
}

// IsFavorite is false for anonymous callers.
func (s *favoriteService) IsFavorite(ctx context.Context, userID, cafeID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.favorites.Exists(ctx, userID, cafeID)
}
