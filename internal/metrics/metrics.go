// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beanbeacon_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beanbeacon_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Overpass
	GeoDataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beanbeacon_geodata_requests_total",
			Help: "Requests to the external geodata source by outcome (success, error, rejected by the circuit breaker)",
		},
		[]string{"outcome"},
	)

	GeoDataRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beanbeacon_geodata_request_duration_seconds",
			Help:    "Latency of requests to the external geodata source",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	GeoDataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beanbeacon_geodata_cache_hits_total",
			Help: "Geodata lookups served from the response cache",
		},
	)

	GeoDataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beanbeacon_geodata_cache_misses_total",
			Help: "Geodata lookups that missed the response cache",
		},
	)

	GeoDataCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beanbeacon_geodata_circuit_state",
			Help: "Circuit breaker state for the geodata source (0 closed, 1 half-open, 2 open)",
		},
	)

	// Ingestion
	IngestedCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beanbeacon_ingested_candidates_total",
			Help: "External candidates processed by the backfill step, by outcome",
		},
		[]string{"outcome"},
	)

	BackfillRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beanbeacon_backfill_runs_total",
			Help: "Location queries that fell below the sufficiency threshold and triggered a backfill",
		},
	)

	// Ratings
	AggregateRefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beanbeacon_rating_aggregate_refresh_failures_total",
			Help: "Rating writes whose cafe aggregate could not be refreshed",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordGeoDataRequest records one call to the geodata source.
func RecordGeoDataRequest(outcome string, elapsed time.Duration) {
	GeoDataRequests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeRejected {
		GeoDataRequestDuration.Observe(elapsed.Seconds())
	}
}
