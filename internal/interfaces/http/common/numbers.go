package common

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// ParseFloat parses a float with fallback.
func ParseFloat(value string, fallback float64) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, false
	}
	return parsed, true
}

// ParseBool reports whether value is a truthy flag ("true", "1", "yes").
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ParsePoint reads latitude and longitude from query. It returns nil when
// both are absent and a validation error when only one is present or either
// is malformed or out of range.
func ParsePoint(query url.Values) (*domain.GeoPoint, error) {
	rawLat := strings.TrimSpace(query.Get("latitude"))
	rawLon := strings.TrimSpace(query.Get("longitude"))
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, apperror.Validation("latitude and longitude are required")
	}
	lat, okLat := ParseFloat(rawLat, 0)
	lon, okLon := ParseFloat(rawLon, 0)
	point := domain.GeoPoint{Latitude: lat, Longitude: lon}
	if !okLat || !okLon || !point.Valid() {
		return nil, apperror.Validation("latitude and longitude must be valid coordinates")
	}
	return &point, nil
}
