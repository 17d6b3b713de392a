package application

import (
	"sort"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// RankByDistance annotates cafes with their haversine distance from origin and
// sorts them nearest first. Equal distances keep their input order.
func RankByDistance(origin domain.GeoPoint, cafes []domain.Cafe) []domain.RankedCafe {
	ranked := make([]domain.RankedCafe, 0, len(cafes))
	for _, cafe := range cafes {
		ranked = append(ranked, domain.RankedCafe{
			Cafe:       cafe,
			DistanceKm: domain.HaversineKm(origin, cafe.Location),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

func applyFilter(cafes []domain.RankedCafe, filter CafeFilter) []domain.RankedCafe {
	if filter == (CafeFilter{}) {
		return cafes
	}
	filtered := make([]domain.RankedCafe, 0, len(cafes))
	for _, c := range cafes {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.WiFi && !c.Amenities.WiFi {
			continue
		}
		if filter.PowerOutlets && !c.Amenities.PowerOutlets {
			continue
		}
		if filter.QuietWorkspace && !c.Amenities.QuietWorkspace {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
