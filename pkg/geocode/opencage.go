package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/model"
)

// response is the subset of the OpenCage JSON response we read.
type response struct {
	Results []result `json:"results"`
}

type result struct {
	Geometry struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"geometry"`
	Formatted  string         `json:"formatted"`
	Components map[string]any `json:"components"`
}

func newRecordID() string {
	return uuid.NewString()
}

// ForwardGeocode resolves text to a record in the landmark category named
// after the formatted address.
func (g *geocoder) ForwardGeocode(ctx context.Context, text string) (rec *model.LocationRecord, err error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, NewInputError()
	}

	start := time.Now()
	defer func() { g.observe("forward", start, err) }()

	params := url.Values{
		"q":              {query},
		"key":            {g.apiKey},
		"limit":          {"1"},
		"no_annotations": {"1"},
	}
	res, err := g.get(ctx, params.Encode())
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geocode: forward resolved",
		zap.String("query", query),
		zap.String("formatted", res.Formatted),
		zap.Float64("lat", res.Geometry.Lat),
		zap.Float64("lng", res.Geometry.Lng),
	)

	return &model.LocationRecord{
		ID:          g.newID(),
		Name:        res.Formatted,
		Lat:         res.Geometry.Lat,
		Lng:         res.Geometry.Lng,
		Category:    model.CategoryLandmark,
		Description: "Searched location: " + query,
		Address:     res.Formatted,
	}, nil
}

// LookupAddress resolves a coordinate to its formatted address.
func (g *geocoder) LookupAddress(ctx context.Context, lat, lng float64) (info model.AddressInfo, err error) {
	start := time.Now()
	defer func() { g.observe("reverse", start, err) }()

	// The service accepts "lat+lng"; '+' decodes to the space separator.
	params := url.Values{
		"key":   {g.apiKey},
		"limit": {"1"},
	}
	rawQuery := "q=" + strconv.FormatFloat(lat, 'f', -1, 64) + "+" + strconv.FormatFloat(lng, 'f', -1, 64) +
		"&" + params.Encode()

	res, err := g.get(ctx, rawQuery)
	if err != nil {
		zap.L().Debug("geocode: reverse failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return model.UnavailableAddress(), err
	}

	components := make(map[string]string, len(res.Components))
	for k, v := range res.Components {
		components[k] = fmt.Sprint(v)
	}
	return model.AddressInfo{
		Address:    res.Formatted,
		Components: components,
		Success:    true,
	}, nil
}

// get performs one request and returns the first result.
func (g *geocoder) get(ctx context.Context, rawQuery string) (*result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, transportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+rawQuery, nil)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, decodeError(err)
	}
	if len(parsed.Results) == 0 {
		return nil, noResultsError()
	}
	return &parsed.Results[0], nil
}
