// Package metrics exposes Prometheus instrumentation for the explorer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_geocode_requests_total",
		Help: "Geocoding requests by operation and outcome",
	}, []string{"operation", "outcome"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_geocode_duration_ms",
		Help:    "Geocoding request duration in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"operation"})
	LocateRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_locate_requests_total",
		Help: "Current-location probes by outcome",
	}, []string{"outcome"})
	PositionCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_position_cache_total",
		Help: "Position cache lookups by result (hit, miss)",
	}, []string{"result"})
	FilterTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "explorer_filter_total",
		Help: "Filter/search invocations over the location store",
	})
	DisplayedResults = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_displayed_results",
		Help: "Records in the currently displayed result set",
	})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_http_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(LocateRequestsTotal)
	prometheus.MustRegister(PositionCacheTotal)
	prometheus.MustRegister(FilterTotal)
	prometheus.MustRegister(DisplayedResults)
	prometheus.MustRegister(HTTPRequestDurationMs)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder adapts the package collectors to the geocode client.
type Recorder struct{}

// ObserveGeocode records one geocoding request.
func (Recorder) ObserveGeocode(operation, outcome string, elapsed time.Duration) {
	GeocodeRequestsTotal.WithLabelValues(operation, outcome).Inc()
	GeocodeDurationMs.WithLabelValues(operation).Observe(float64(elapsed.Milliseconds()))
}

// ObserveLocate records one current-location probe.
func ObserveLocate(outcome string) {
	LocateRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObservePositionCache records a cache hit or miss.
func ObservePositionCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PositionCacheTotal.WithLabelValues(result).Inc()
}

// ObserveFilter records a filter run over the store.
func ObserveFilter() {
	FilterTotal.Inc()
}

// ObserveDisplayed records the size of the result set now on screen.
func ObserveDisplayed(n int) {
	DisplayedResults.Set(float64(n))
}

// ObserveHTTP records one API request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	HTTPRequestDurationMs.WithLabelValues(route, strconv.Itoa(status)).Observe(float64(elapsed.Milliseconds()))
}
