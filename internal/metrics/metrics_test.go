package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	counter := HTTPRequests.WithLabelValues(http.MethodGet, "/api/cafes", "200")
	before := testutil.ToFloat64(counter)

	RecordHTTPRequest(http.MethodGet, "/api/cafes", http.StatusOK, 15*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestRecordGeoDataRequest(t *testing.T) {
	success := GeoDataRequests.WithLabelValues(OutcomeSuccess)
	rejected := GeoDataRequests.WithLabelValues(OutcomeRejected)
	beforeSuccess := testutil.ToFloat64(success)
	beforeRejected := testutil.ToFloat64(rejected)

	RecordGeoDataRequest(OutcomeSuccess, time.Second)
	RecordGeoDataRequest(OutcomeRejected, 0)

	if got := testutil.ToFloat64(success); got != beforeSuccess+1 {
		t.Errorf("success counter = %v, want %v", got, beforeSuccess+1)
	}
	if got := testutil.ToFloat64(rejected); got != beforeRejected+1 {
		t.Errorf("rejected counter = %v, want %v", got, beforeRejected+1)
	}
}
