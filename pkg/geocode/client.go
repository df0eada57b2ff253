// Package geocode resolves free-text addresses to coordinates and
// coordinates back to addresses through an OpenCage-compatible REST API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/map-explorer/internal/model"
)

// DefaultBaseURL is the public OpenCage endpoint.
const DefaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// Client geocodes addresses. Each call issues exactly one request; there
// is no retry and no caching.
type Client interface {
	// ForwardGeocode resolves text to a synthetic landmark record. Blank
	// text fails with KindInput before any request is made.
	ForwardGeocode(ctx context.Context, text string) (*model.LocationRecord, error)

	// LookupAddress resolves a coordinate to its formatted address.
	LookupAddress(ctx context.Context, lat, lng float64) (model.AddressInfo, error)
}

// Recorder observes request outcomes. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	ObserveGeocode(operation, outcome string, elapsed time.Duration)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithAPIKey sets the key sent with every request.
func WithAPIKey(key string) Option {
	return func(g *geocoder) {
		g.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative
// leaves requests unlimited.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *geocoder) {
		g.recorder = r
	}
}

type geocoder struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	recorder   Recorder
	newID      func() string
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		newID:      newRecordID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *geocoder) observe(operation string, start time.Time, err error) {
	if g.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	g.recorder.ObserveGeocode(operation, outcome, time.Since(start))
}

// ReverseGeocode is the best-effort form of LookupAddress: any failure
// yields the "Address not available" placeholder.
func ReverseGeocode(ctx context.Context, c Client, lat, lng float64) model.AddressInfo {
	info, err := c.LookupAddress(ctx, lat, lng)
	if err != nil {
		return model.UnavailableAddress()
	}
	return info
}
