package domain

import "time"

const (
	MinRatingValue = 1
	MaxRatingValue = 5
	MaxReviewRunes = 1000
)

// Rating is one user's score and optional review of a cafe.
// A user holds at most one rating per cafe.
type Rating struct {
	ID        string
	UserID    string
	CafeID    string
	Value     int
	Review    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Favorite records that a user saved a cafe.
type Favorite struct {
	UserID    string
	CafeID    string
	CreatedAt time.Time
}

// RoundedAverage returns sum/count rounded half-up to one decimal place,
// or 0 when count is zero. Computed in integer tenths.
func RoundedAverage(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	tenths := (20*sum + count) / (2 * count)
	return float64(tenths) / 10
}
