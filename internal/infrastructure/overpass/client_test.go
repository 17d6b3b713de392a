package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

const sampleResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 40.001, "lon": -73.001, "tags": {"amenity": "cafe", "name": "Joe's"}},
    {"type": "way", "id": 42, "center": {"lat": 40.002, "lon": -73.002}, "tags": {"amenity": "coffee"}},
    {"type": "node", "id": 7, "lat": 40.003, "lon": -73.003},
    {"type": "way", "id": 43, "tags": {"amenity": "cafe"}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.Endpoint = srv.URL
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1000
		cfg.Burst = 100
	}
	return NewClient(cfg)
}

func TestClientFetch(t *testing.T) {
	var gotQuery, gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotQuery = r.PostForm.Get("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}, Config{})

	candidates, err := client.FetchPointsOfInterest(context.Background(), domain.GeoPoint{Latitude: 40, Longitude: -73}, 1)
	if err != nil {
		t.Fatalf("FetchPointsOfInterest: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
	if !strings.Contains(gotQuery, "[bbox:") || !strings.Contains(gotQuery, "out center;") {
		t.Errorf("query = %q", gotQuery)
	}

	if len(candidates) != 3 {
		t.Fatalf("len = %d, want 3 (element without coordinates dropped)", len(candidates))
	}
	if c := candidates[0]; c.ExternalID != "n1" || c.Latitude != 40.001 || c.Tags["name"] != "Joe's" {
		t.Errorf("node candidate = %+v", c)
	}
	if c := candidates[1]; c.ExternalID != "w42" || c.Latitude != 40.002 || c.Longitude != -73.002 {
		t.Errorf("way candidate = %+v", c)
	}
	if c := candidates[2]; c.Tags == nil || len(c.Tags) != 0 {
		t.Errorf("untagged candidate tags = %#v, want empty map", c.Tags)
	}
}

func TestClientErrorsAreUpstream(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler, Config{})
			_, err := client.FetchPointsOfInterest(context.Background(), domain.GeoPoint{Latitude: 1, Longitude: 1}, 1)
			if !apperror.Is(err, apperror.KindUpstreamUnavailable) {
				t.Errorf("error = %v, want upstream unavailable", err)
			}
		})
	}
}

func TestClientTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.FetchPointsOfInterest(context.Background(), domain.GeoPoint{Latitude: 1, Longitude: 1}, 1)
	if !apperror.Is(err, apperror.KindUpstreamUnavailable) {
		t.Errorf("error = %v, want upstream unavailable", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %v, want timeout near 50ms", elapsed)
	}
}

func TestClientCircuitOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, Config{BreakerFailures: 2, BreakerCooldown: time.Hour})

	for i := 0; i < 5; i++ {
		_, err := client.FetchPointsOfInterest(context.Background(), domain.GeoPoint{Latitude: 1, Longitude: 1}, 1)
		if !apperror.Is(err, apperror.KindUpstreamUnavailable) {
			t.Fatalf("call %d error = %v, want upstream unavailable", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 before the circuit opened", got)
	}
}

func TestServerTimeout(t *testing.T) {
	if got := serverTimeout(MaxTimeout); got != 25 {
		t.Errorf("serverTimeout(30s) = %d, want 25", got)
	}
	if got := serverTimeout(time.Second); got != 1 {
		t.Errorf("serverTimeout(1s) = %d, want 1", got)
	}
}
