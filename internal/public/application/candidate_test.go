package application

import (
	"reflect"
	"testing"

	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

func TestCafeFromCandidate(t *testing.T) {
	cases := []struct {
		name string
		in   domain.ExternalCandidate
		want domain.Cafe
	}{
		{
			name: "bare node gets defaults",
			in:   domain.ExternalCandidate{ExternalID: "n1", Latitude: 1, Longitude: 2},
			want: domain.Cafe{
				OSMID:    "n1",
				Name:     "Unnamed Cafe",
				Address:  "Address not available",
				Location: domain.GeoPoint{Latitude: 1, Longitude: 2},
				Category: domain.CategoryCoffeeShop,
				Tags:     []string{"cafe"},
			},
		},
		{
			name: "fully tagged cafe",
			in: domain.ExternalCandidate{
				ExternalID: "w42",
				Latitude:   40.7,
				Longitude:  -74,
				Tags: map[string]string{
					"name":                "Bean There",
					"amenity":             "cafe",
					"addr:housenumber":    "12",
					"addr:street":         "Main St",
					"addr:city":           "Springfield",
					"wifi":                "yes",
					"power_supply:socket": "yes",
					"contact:website":     "https://bean.example",
					"phone":               "+1 555 0100",
					"opening_hours":       "Mo-Fr 07:00-18:00",
					"cuisine":             "coffee_shop;cake",
				},
			},
			want: domain.Cafe{
				OSMID:        "w42",
				Name:         "Bean There",
				Address:      "12 Main St, Springfield",
				Location:     domain.GeoPoint{Latitude: 40.7, Longitude: -74},
				Category:     domain.CategoryCafe,
				Website:      "https://bean.example",
				Phone:        "+1 555 0100",
				OpeningHours: "Mo-Fr 07:00-18:00",
				Amenities:    domain.Amenities{WiFi: true, PowerOutlets: true},
				Tags:         []string{"cafe", "coffee_shop", "cake"},
			},
		},
		{
			name: "restaurant serving coffee with wifi not yes",
			in: domain.ExternalCandidate{
				ExternalID: "n7",
				Tags:       map[string]string{"amenity": "restaurant", "cuisine": "coffee", "wifi": "free", "addr:city": "Lisbon"},
			},
			want: domain.Cafe{
				OSMID:    "n7",
				Name:     "Unnamed Cafe",
				Address:  "Address not available",
				Category: domain.CategoryCoffeeShop,
				Tags:     []string{"restaurant", "coffee"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CafeFromCandidate(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CafeFromCandidate =\n%+v\nwant\n%+v", got, tc.want)
			}
		})
	}
}
