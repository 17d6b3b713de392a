package application

import (
	"strings"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

const (
	defaultCafeName    = "Unnamed Cafe"
	defaultCafeAddress = "Address not available"
)

// CafeFromCandidate derives the cafe shape stored for an external point.
// Only the store assigns IDs and timestamps.
func CafeFromCandidate(c domain.ExternalCandidate) domain.Cafe {
	tags := c.Tags
	if tags == nil {
		tags = map[string]string{}
	}

	return domain.Cafe{
		OSMID:        c.ExternalID,
		Name:         firstNonEmpty(tags["name"], defaultCafeName),
		Address:      formatAddress(tags),
		Location:     c.Point(),
		Category:     categoryFromTags(tags),
		Website:      firstNonEmpty(tags["website"], tags["contact:website"]),
		Phone:        firstNonEmpty(tags["phone"], tags["contact:phone"]),
		OpeningHours: strings.TrimSpace(tags["opening_hours"]),
		Amenities: domain.Amenities{
			WiFi:         tagIsYes(tags, "wifi"),
			PowerOutlets: tagIsYes(tags, "power_supply:socket"),
		},
		Tags: candidateTags(tags),
	}
}

func categoryFromTags(tags map[string]string) domain.Category {
	if tags["amenity"] == "cafe" {
		return domain.CategoryCafe
	}
	return domain.CategoryCoffeeShop
}

// formatAddress joins house number and street, appending the city when known.
func formatAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return defaultCafeAddress
	}
	if number := strings.TrimSpace(tags["addr:housenumber"]); number != "" {
		street = number + " " + street
	}
	if city := strings.TrimSpace(tags["addr:city"]); city != "" {
		return street + ", " + city
	}
	return street
}

func candidateTags(tags map[string]string) []string {
	result := []string{firstNonEmpty(tags["amenity"], "cafe")}
	seen := map[string]struct{}{result[0]: {}}
	for _, cuisine := range strings.Split(tags["cuisine"], ";") {
		cuisine = strings.TrimSpace(cuisine)
		if cuisine == "" {
			continue
		}
		if _, ok := seen[cuisine]; ok {
			continue
		}
		seen[cuisine] = struct{}{}
		result = append(result, cuisine)
	}
	return result
}

func tagIsYes(tags map[string]string, key string) bool {
	return tags[key] == "yes"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
