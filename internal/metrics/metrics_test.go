package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderObserveGeocode(t *testing.T) {
	before := testutil.ToFloat64(GeocodeRequestsTotal.WithLabelValues("forward", "ok"))
	Recorder{}.ObserveGeocode("forward", "ok", 120*time.Millisecond)
	after := testutil.ToFloat64(GeocodeRequestsTotal.WithLabelValues("forward", "ok"))
	assert.InDelta(t, 1, after-before, 0.0001)
}

func TestObserveLocateAndCache(t *testing.T) {
	before := testutil.ToFloat64(LocateRequestsTotal.WithLabelValues("timeout"))
	ObserveLocate("timeout")
	assert.InDelta(t, 1, testutil.ToFloat64(LocateRequestsTotal.WithLabelValues("timeout"))-before, 0.0001)

	hits := testutil.ToFloat64(PositionCacheTotal.WithLabelValues("hit"))
	ObservePositionCache(true)
	assert.InDelta(t, 1, testutil.ToFloat64(PositionCacheTotal.WithLabelValues("hit"))-hits, 0.0001)
}

func TestObserveFilter(t *testing.T) {
	before := testutil.ToFloat64(FilterTotal)
	ObserveFilter()
	assert.InDelta(t, 1, testutil.ToFloat64(FilterTotal)-before, 0.0001)
}

func TestObserveDisplayed(t *testing.T) {
	ObserveDisplayed(3)
	assert.InDelta(t, 3, testutil.ToFloat64(DisplayedResults), 0.0001)
	ObserveDisplayed(0)
	assert.InDelta(t, 0, testutil.ToFloat64(DisplayedResults), 0.0001)
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveFilter()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "explorer_filter_total")
	assert.Contains(t, string(body), "explorer_displayed_results")
}

func TestObserveHTTP(t *testing.T) {
	ObserveHTTP("/api/view", 200, 3*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDurationMs), 1)
}
