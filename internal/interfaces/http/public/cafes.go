package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/bean-beacon-services/api/internal/public/application"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

const (
	defaultRadiusKm = 5.0
	maxRadiusKm     = 50.0
)

// cafeNearbyHandler は位置検索。DB に十分な件数が無い場合は Overpass から補充するため長めのタイムアウトを取る。
func (h *Handler) cafeNearbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.LocationTimeout)
		defer cancel()

		query := r.URL.Query()
		center, err := common.ParsePoint(query)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		if center == nil {
			common.WriteError(w, r, apperror.Validation("latitude and longitude are required"))
			return
		}

		filter, err := parseCafeFilter(query.Get("category"), query.Get("type"))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		filter.WiFi = common.ParseBool(query.Get("wifi"))
		filter.PowerOutlets = common.ParseBool(query.Get("powerOutlets"))
		filter.QuietWorkspace = common.ParseBool(query.Get("quietWorkspace"))

		radius, err := parseRadius(query.Get("radius"))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}

		ranked, err := h.cafes.Nearby(ctx, publicapp.NearbyQuery{
			Center:   *center,
			RadiusKm: radius,
			Filter:   filter,
		})
		if err != nil {
			common.WriteError(w, r, err)
			return
		}

		items := make([]cafeResponse, 0, len(ranked))
		for _, cafe := range ranked {
			items = append(items, buildRankedCafeResponse(cafe))
		}
		common.WriteData(w, http.StatusOK, items)
	}
}

func (h *Handler) cafeSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		query := r.URL.Query()
		text := strings.TrimSpace(query.Get("query"))
		if text == "" {
			common.WriteError(w, r, apperror.Validation("search query is required"))
			return
		}
		near, err := common.ParsePoint(query)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}

		cafes, err := h.cafes.Search(ctx, text, near)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildCafeListResponse(cafes, near))
	}
}

func (h *Handler) cafeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		cafe, err := h.cafes.Detail(ctx, cafeIDParam(r))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildCafeResponse(*cafe))
	}
}

// parseRadius falls back to the default for missing, malformed or
// non-positive values. Radii above the cap are rejected.
func parseRadius(raw string) (float64, error) {
	radius, ok := common.ParseFloat(raw, defaultRadiusKm)
	if !ok || radius <= 0 {
		return defaultRadiusKm, nil
	}
	if radius > maxRadiusKm {
		return 0, apperror.Validation("radius must be at most %d km", int(maxRadiusKm))
	}
	return radius, nil
}

func parseCafeFilter(category, legacyType string) (publicapp.CafeFilter, error) {
	raw := strings.TrimSpace(category)
	if raw == "" {
		raw = strings.TrimSpace(legacyType)
	}
	if raw == "" {
		return publicapp.CafeFilter{}, nil
	}
	c := domain.Category(strings.ToLower(raw))
	if !c.Valid() {
		return publicapp.CafeFilter{}, apperror.Validation("category must be one of: coffee_shop, cafe, coworking")
	}
	return publicapp.CafeFilter{Category: c}, nil
}
