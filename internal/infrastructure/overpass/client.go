package overpass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/metrics"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

const (
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"
	// MaxTimeout is the ceiling for one Overpass round trip.
	MaxTimeout = 30 * time.Second

	defaultUserAgent = "bean-beacon-api/1.0"
	maxResponseBytes = 16 << 20
	breakerName      = "overpass"
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit; BreakerCooldown is how long it stays open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// Client calls the Overpass API. Failures are returned as upstream errors.
type Client struct {
	endpoint  string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]domain.ExternalCandidate]
}

// NewClient creates an Overpass client guarded by a rate limiter and a
// circuit breaker.
func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 2
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	metrics.GeoDataCircuitState.Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]domain.ExternalCandidate](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Caller cancellations say nothing about Overpass health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.GeoDataCircuitState.Set(stateValue(to))
		},
	})

	return &Client{
		endpoint:  endpoint,
		timeout:   timeout,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		breaker:   breaker,
	}
}

// FetchPointsOfInterest queries Overpass for cafe candidates within radiusKm
// of center.
func (c *Client) FetchPointsOfInterest(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.ExternalCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordGeoDataRequest(metrics.OutcomeRejected, 0)
		return nil, apperror.Upstream(err, "overpass rate limit wait")
	}

	query := BuildQuery(BoundingBoxAround(center, radiusKm), serverTimeout(c.timeout))
	start := time.Now()
	candidates, err := c.breaker.Execute(func() ([]domain.ExternalCandidate, error) {
		return c.post(ctx, query)
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordGeoDataRequest(metrics.OutcomeRejected, elapsed)
			return nil, apperror.Upstream(err, "overpass circuit open")
		}
		metrics.RecordGeoDataRequest(metrics.OutcomeError, elapsed)
		return nil, apperror.Upstream(err, "overpass request failed")
	}
	metrics.RecordGeoDataRequest(metrics.OutcomeSuccess, elapsed)
	return candidates, nil
}

func (c *Client) post(ctx context.Context, query string) ([]domain.ExternalCandidate, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	return payload.candidates(), nil
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *coordinates      `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (r response) candidates() []domain.ExternalCandidate {
	out := make([]domain.ExternalCandidate, 0, len(r.Elements))
	for _, el := range r.Elements {
		var lat, lon float64
		switch {
		case el.Lat != nil && el.Lon != nil:
			lat, lon = *el.Lat, *el.Lon
		case el.Center != nil:
			lat, lon = el.Center.Lat, el.Center.Lon
		default:
			continue
		}
		tags := el.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		out = append(out, domain.ExternalCandidate{
			ExternalID: externalID(el.Type, el.ID),
			Latitude:   lat,
			Longitude:  lon,
			Tags:       tags,
		})
	}
	return out
}

// externalID prefixes the OSM id with its element type initial ("n1",
// "w42") since node and way ids share a number space.
func externalID(kind string, id int64) string {
	prefix := "n"
	if kind != "" {
		prefix = kind[:1]
	}
	return fmt.Sprintf("%s%d", prefix, id)
}

// serverTimeout leaves the server a few seconds less than the client waits.
func serverTimeout(clientTimeout time.Duration) int {
	seconds := int((clientTimeout - 5*time.Second).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
