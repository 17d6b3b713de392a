package domain

import "time"

// Category is the kind of venue a cafe is.
type Category string

const (
	CategoryCoffeeShop Category = "coffee_shop"
	CategoryCafe       Category = "cafe"
	CategoryCoworking  Category = "coworking"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCoffeeShop, CategoryCafe, CategoryCoworking:
		return true
	}
	return false
}

// Amenities flags what a cafe offers to people working there.
type Amenities struct {
	WiFi           bool
	PowerOutlets   bool
	QuietWorkspace bool
}

// Cafe represents a publicly visible cafe.
// UserRating and ReviewCount are derived from the cafe's ratings and are only
// written by the rating aggregator.
type Cafe struct {
	ID           string
	OSMID        string
	Name         string
	Address      string
	Location     GeoPoint
	Category     Category
	Website      string
	Phone        string
	OpeningHours string
	Amenities    Amenities
	Tags         []string
	UserRating   float64
	ReviewCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExternalCandidate is a raw point of interest returned by a geodata source.
type ExternalCandidate struct {
	ExternalID string
	Latitude   float64
	Longitude  float64
	Tags       map[string]string
}

// Point returns the candidate's coordinates.
func (c ExternalCandidate) Point() GeoPoint {
	return GeoPoint{Latitude: c.Latitude, Longitude: c.Longitude}
}

// RankedCafe is a cafe annotated with its distance from a query origin.
type RankedCafe struct {
	Cafe
	DistanceKm float64
}
