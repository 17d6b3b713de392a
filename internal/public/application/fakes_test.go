package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// memoryCafeStore is an in-memory CafeStore keyed by OSMID.
type memoryCafeStore struct {
	mu        sync.Mutex
	cafes     []domain.Cafe
	nextID    int
	findNear  int
	upserts   int
	failOSMID map[string]bool
	nearErr   error
}

func newMemoryCafeStore(cafes ...domain.Cafe) *memoryCafeStore {
	s := &memoryCafeStore{failOSMID: map[string]bool{}}
	for _, c := range cafes {
		s.insertLocked(c)
	}
	return s
}

func (s *memoryCafeStore) insertLocked(c domain.Cafe) domain.Cafe {
	s.nextID++
	if c.ID == "" {
		c.ID = fmt.Sprintf("cafe-%d", s.nextID)
	}
	s.cafes = append(s.cafes, c)
	return c
}

func (s *memoryCafeStore) FindNear(_ context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findNear++
	if s.nearErr != nil {
		return nil, s.nearErr
	}
	var result []domain.Cafe
	for _, c := range s.cafes {
		if domain.HaversineKm(center, c.Location) <= radiusKm {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return domain.HaversineKm(center, result[i].Location) < domain.HaversineKm(center, result[j].Location)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memoryCafeStore) FindByExternalID(_ context.Context, externalID string) (*domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cafes {
		if c.OSMID == externalID {
			found := c
			return &found, nil
		}
	}
	return nil, apperror.NotFound("cafe not found")
}

func (s *memoryCafeStore) FindByID(_ context.Context, id string) (*domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cafes {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, apperror.NotFound("cafe not found")
}

func (s *memoryCafeStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Cafe, error) {
	result := make([]domain.Cafe, 0, len(ids))
	for _, id := range ids {
		c, err := s.FindByID(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (s *memoryCafeStore) UpsertFromExternal(_ context.Context, cafe domain.Cafe) (*domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failOSMID[cafe.OSMID] {
		return nil, apperror.Validation("invalid candidate")
	}
	for _, c := range s.cafes {
		if c.OSMID == cafe.OSMID {
			existing := c
			return &existing, nil
		}
	}
	stored := s.insertLocked(cafe)
	return &stored, nil
}

func (s *memoryCafeStore) Search(_ context.Context, text string, _ *domain.GeoPoint, limit int) ([]domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Cafe
	for _, c := range s.cafes {
		if c.Name == text {
			result = append(result, c)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memoryCafeStore) UpdateAggregates(_ context.Context, cafeID string, rating float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cafes {
		if s.cafes[i].ID == cafeID {
			s.cafes[i].UserRating = rating
			s.cafes[i].ReviewCount = count
			return nil
		}
	}
	return apperror.NotFound("cafe not found")
}

func (s *memoryCafeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cafes)
}

func (s *memoryCafeStore) get(id string) domain.Cafe {
	c, _ := s.FindByID(context.Background(), id)
	if c == nil {
		return domain.Cafe{}
	}
	return *c
}

// stubSource returns fixed candidates and counts calls.
type stubSource struct {
	candidates []domain.ExternalCandidate
	err        error
	calls      atomic.Int32
}

func (s *stubSource) FetchPointsOfInterest(context.Context, domain.GeoPoint, float64) ([]domain.ExternalCandidate, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

// memoryRatingRepository enforces one rating per (user, cafe).
type memoryRatingRepository struct {
	mu      sync.Mutex
	ratings map[string]domain.Rating
	nextID  int
}

func newMemoryRatingRepository() *memoryRatingRepository {
	return &memoryRatingRepository{ratings: map[string]domain.Rating{}}
}

func (r *memoryRatingRepository) FindByID(_ context.Context, id string) (*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rating, ok := r.ratings[id]
	if !ok {
		return nil, apperror.NotFound("rating not found")
	}
	return &rating, nil
}

func (r *memoryRatingRepository) FindByUserAndCafe(_ context.Context, userID, cafeID string) (*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range r.ratings {
		if rating.UserID == userID && rating.CafeID == cafeID {
			found := rating
			return &found, nil
		}
	}
	return nil, apperror.NotFound("rating not found")
}

func (r *memoryRatingRepository) Insert(_ context.Context, rating *domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.UserID == rating.UserID && existing.CafeID == rating.CafeID {
			return apperror.Conflict("already rated")
		}
	}
	r.nextID++
	rating.ID = fmt.Sprintf("rating-%d", r.nextID)
	r.ratings[rating.ID] = *rating
	return nil
}

func (r *memoryRatingRepository) Update(_ context.Context, rating *domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ratings[rating.ID]; !ok {
		return apperror.NotFound("rating not found")
	}
	r.ratings[rating.ID] = *rating
	return nil
}

func (r *memoryRatingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ratings[id]; !ok {
		return apperror.NotFound("rating not found")
	}
	delete(r.ratings, id)
	return nil
}

func (r *memoryRatingRepository) ListByCafe(_ context.Context, cafeID string) ([]domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Rating
	for _, rating := range r.ratings {
		if rating.CafeID == cafeID {
			result = append(result, rating)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *memoryRatingRepository) Summarize(_ context.Context, cafeID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, count := 0, 0
	for _, rating := range r.ratings {
		if rating.CafeID == cafeID {
			sum += rating.Value
			count++
		}
	}
	return sum, count, nil
}

type favoriteKey struct{ user, cafe string }

type memoryFavoriteRepository struct {
	mu    sync.Mutex
	order []favoriteKey
}

func (r *memoryFavoriteRepository) indexOf(k favoriteKey) int {
	for i, existing := range r.order {
		if existing == k {
			return i
		}
	}
	return -1
}

func (r *memoryFavoriteRepository) Add(_ context.Context, userID, cafeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := favoriteKey{userID, cafeID}
	if r.indexOf(k) >= 0 {
		return false, nil
	}
	r.order = append(r.order, k)
	return true, nil
}

func (r *memoryFavoriteRepository) Remove(_ context.Context, userID, cafeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(favoriteKey{userID, cafeID})
	if i < 0 {
		return false, nil
	}
	r.order = append(r.order[:i], r.order[i+1:]...)
	return true, nil
}

func (r *memoryFavoriteRepository) Exists(_ context.Context, userID, cafeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(favoriteKey{userID, cafeID}) >= 0, nil
}

func (r *memoryFavoriteRepository) ListCafeIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for i := len(r.order) - 1; i >= 0; i-- {
		if r.order[i].user == userID {
			ids = append(ids, r.order[i].cafe)
		}
	}
	return ids, nil
}
