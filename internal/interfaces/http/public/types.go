package public

import (
	"time"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type cafeResponse struct {
	ID             string          `json:"id"`
	OSMID          string          `json:"osmId"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Location       locationPayload `json:"location"`
	Type           string          `json:"type"`
	Website        string          `json:"website,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	OpeningHours   string          `json:"openingHours,omitempty"`
	WiFi           bool            `json:"wifi"`
	PowerOutlets   bool            `json:"powerOutlets"`
	QuietWorkspace bool            `json:"quietWorkspace"`
	Tags           []string        `json:"tags"`
	UserRating     float64         `json:"userRating"`
	ReviewCount    int             `json:"reviewCount"`
	// Distance is in kilometres from the query origin.
	Distance  *float64  `json:"distance,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ratingResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CafeID    string    `json:"cafeId"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ratingSubmitRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=1000"`
}

type ratingUpdateRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review *string `json:"review" validate:"omitempty,max=1000"`
}

type favoriteStatusResponse struct {
	CafeID     string `json:"cafeId,omitempty"`
	IsFavorite bool   `json:"isFavorite"`
}

func buildCafeResponse(cafe domain.Cafe) cafeResponse {
	tags := cafe.Tags
	if tags == nil {
		tags = []string{}
	}
	return cafeResponse{
		ID:             cafe.ID,
		OSMID:          cafe.OSMID,
		Name:           cafe.Name,
		Address:        cafe.Address,
		Location:       locationPayload{Latitude: cafe.Location.Latitude, Longitude: cafe.Location.Longitude},
		Type:           string(cafe.Category),
		Website:        cafe.Website,
		Phone:          cafe.Phone,
		OpeningHours:   cafe.OpeningHours,
		WiFi:           cafe.Amenities.WiFi,
		PowerOutlets:   cafe.Amenities.PowerOutlets,
		QuietWorkspace: cafe.Amenities.QuietWorkspace,
		Tags:           tags,
		UserRating:     cafe.UserRating,
		ReviewCount:    cafe.ReviewCount,
		CreatedAt:      cafe.CreatedAt,
		UpdatedAt:      cafe.UpdatedAt,
	}
}

func buildRankedCafeResponse(ranked domain.RankedCafe) cafeResponse {
	resp := buildCafeResponse(ranked.Cafe)
	distance := ranked.DistanceKm
	resp.Distance = &distance
	return resp
}

func buildCafeListResponse(cafes []domain.Cafe, origin *domain.GeoPoint) []cafeResponse {
	items := make([]cafeResponse, 0, len(cafes))
	for _, cafe := range cafes {
		resp := buildCafeResponse(cafe)
		if origin != nil {
			distance := domain.HaversineKm(*origin, cafe.Location)
			resp.Distance = &distance
		}
		items = append(items, resp)
	}
	return items
}

func buildRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		ID:        rating.ID,
		UserID:    rating.UserID,
		CafeID:    rating.CafeID,
		Rating:    rating.Value,
		Review:    rating.Review,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}
