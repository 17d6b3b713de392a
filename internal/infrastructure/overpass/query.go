// Package overpass fetches cafe points of interest from an OpenStreetMap
// Overpass API endpoint.
package overpass

import (
	"fmt"
	"strconv"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// kmPerDegree approximates the length of one degree on the Earth's surface.
// The same value is used for longitude, so boxes narrow toward the poles.
const kmPerDegree = 111.0

// BoundingBox is a south, west, north, east box in degrees.
type BoundingBox struct {
	South, West, North, East float64
}

// BoundingBoxAround returns the box of half-width radiusKm around center.
func BoundingBoxAround(center domain.GeoPoint, radiusKm float64) BoundingBox {
	delta := radiusKm / kmPerDegree
	return BoundingBox{
		South: center.Latitude - delta,
		West:  center.Longitude - delta,
		North: center.Latitude + delta,
		East:  center.Longitude + delta,
	}
}

func (b BoundingBox) String() string {
	return formatCoord(b.South) + "," + formatCoord(b.West) + "," + formatCoord(b.North) + "," + formatCoord(b.East)
}

// BuildQuery returns the Overpass QL query for cafes, coffee amenities and
// coffee restaurants inside box. serverTimeout is in seconds.
func BuildQuery(box BoundingBox, serverTimeout int) string {
	return fmt.Sprintf(`[out:json][timeout:%d][bbox:%s];
(
  node["amenity"="cafe"];
  way["amenity"="cafe"];
  node["amenity"="coffee"];
  way["amenity"="coffee"];
  node["amenity"="restaurant"]["cuisine"~"coffee"];
  way["amenity"="restaurant"]["cuisine"~"coffee"];
);
out center;`, serverTimeout, box)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
