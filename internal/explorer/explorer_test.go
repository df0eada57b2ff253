package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/map-explorer/internal/locate"
	"github.com/sells-group/map-explorer/internal/metrics"
	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/resilience"
	"github.com/sells-group/map-explorer/internal/scene"
	"github.com/sells-group/map-explorer/internal/store"
	"github.com/sells-group/map-explorer/pkg/geocode"
)

type fakeGeocoder struct {
	forward func(ctx context.Context, text string) (*model.LocationRecord, error)
	lookup  func(ctx context.Context, lat, lng float64) (model.AddressInfo, error)

	forwardCalls atomic.Int32
	lookupCalls  atomic.Int32
}

func (f *fakeGeocoder) ForwardGeocode(ctx context.Context, text string) (*model.LocationRecord, error) {
	f.forwardCalls.Add(1)
	if f.forward == nil {
		return nil, errors.New("forward not configured")
	}
	return f.forward(ctx, text)
}

func (f *fakeGeocoder) LookupAddress(ctx context.Context, lat, lng float64) (model.AddressInfo, error) {
	f.lookupCalls.Add(1)
	if f.lookup == nil {
		return model.AddressInfo{Address: fmt.Sprintf("%.2f, %.2f", lat, lng), Success: true}, nil
	}
	return f.lookup(ctx, lat, lng)
}

type probeFunc func(ctx context.Context, opts locate.Options) (locate.Position, error)

func (f probeFunc) Locate(ctx context.Context, opts locate.Options) (locate.Position, error) {
	return f(ctx, opts)
}

func testConfig() Config {
	return Config{
		Center:            model.Coordinates{Lat: 40.7128, Lng: -74.0060},
		InitialZoom:       12,
		FocusZoom:         15,
		PinTTL:            time.Minute,
		AnnotateAddresses: true,
		LocateMode:        ModeEphemeral,
		LocateOptions:     locate.DefaultOptions(),
	}
}

func newTestExplorer(t *testing.T, gc geocode.Client, probe locate.Probe, cfg Config) (*Explorer, *scene.Scene) {
	t.Helper()
	st, err := store.New(store.Builtin())
	require.NoError(t, err)

	sc := scene.New(scene.Options{Center: cfg.Center, Zoom: cfg.InitialZoom})
	views := Views{
		Map:      sc.Map,
		List:     sc.List,
		Status:   sc.Status,
		Controls: sc.Controls,
		Coords:   sc.Coords,
	}
	if probe == nil {
		probe = locate.NewStaticProbe(40.7580, -73.9855)
	}
	e := New(st, gc, probe, views, cfg)
	t.Cleanup(e.Close)
	return e, sc
}

func assertInSync(t *testing.T, e *Explorer, sc *scene.Scene) {
	t.Helper()
	e.Read(func(st State) {
		assert.Equal(t, len(st.Results), sc.Map.MarkerCount(), "markers")
		assert.Equal(t, len(st.Results), sc.List.Count(), "list entries")
		for i, m := range sc.Map.Markers() {
			assert.Equal(t, st.Results[i].ID, m.ID)
		}
	})
}

func TestStartShowsAllLocations(t *testing.T) {
	gc := &fakeGeocoder{}
	e, sc := newTestExplorer(t, gc, nil, testConfig())

	e.Start(context.Background())
	e.Wait()

	assert.Len(t, e.Results(), 5)
	assertInSync(t, e, sc)
	assert.Equal(t, 12, sc.Map.View().Zoom)

	status := sc.Status.Current()
	require.NotNil(t, status)
	assert.Equal(t, WelcomeMessage, status.Text)
	assert.Equal(t, StatusSuccess, status.Kind)

	assert.EqualValues(t, 5, gc.lookupCalls.Load())
	for _, m := range sc.Map.Markers() {
		assert.False(t, m.AddressPending, m.ID)
		assert.NotContains(t, m.Popup, scene.AddressPending)
	}
}

func TestFilterKeepsMapAndListInSync(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		category model.Category
		want     []string
	}{
		{name: "everything", query: "", category: model.CategoryAll, want: []string{"1", "2", "3", "4", "5"}},
		{name: "by name", query: "central", category: "", want: []string{"1"}},
		{name: "by category", query: "", category: model.CategoryPark, want: []string{"1"}},
		{name: "query and category", query: "new york", category: model.CategoryLandmark, want: []string{"2", "3", "4", "5"}},
		{name: "no match", query: "zzz", category: model.CategoryAll, want: []string{}},
	}

	gc := &fakeGeocoder{}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := e.Filter(tt.query, tt.category)
			assert.Equal(t, tt.want, rs.IDs())
			assertInSync(t, e, sc)
		})
	}
}

func TestFilterDropsSelectionThatIsNoLongerShown(t *testing.T) {
	e, sc := newTestExplorer(t, &fakeGeocoder{}, nil, testConfig())
	e.Start(context.Background())

	_, err := e.Select("3")
	require.NoError(t, err)

	e.Filter("central", model.CategoryAll)
	e.Read(func(st State) {
		assert.Empty(t, st.Selected)
	})
	for _, entry := range sc.List.Entries() {
		assert.False(t, entry.Selected)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	gc := &fakeGeocoder{}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	for _, q := range []string{"", "   ", "\t\n"} {
		rec, err := e.SearchAddress(context.Background(), q)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, geocode.KindInput, geocode.KindOf(err))
	}

	assert.Zero(t, gc.forwardCalls.Load())
	assert.Len(t, e.Results(), 5)
	status := sc.Status.Current()
	require.NotNil(t, status)
	assert.Equal(t, geocode.MsgEmptyQuery, status.Text)
	assert.Equal(t, StatusError, status.Kind)
}

func TestSearchSuccessReplacesResults(t *testing.T) {
	gc := &fakeGeocoder{
		forward: func(_ context.Context, text string) (*model.LocationRecord, error) {
			return &model.LocationRecord{
				ID:          "geo-1",
				Name:        "Eiffel Tower, Paris, France",
				Lat:         48.8584,
				Lng:         2.2945,
				Category:    model.CategoryLandmark,
				Description: "Searched location: " + text,
				Address:     "Eiffel Tower, Paris, France",
			}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())
	e.Wait()
	lookupsBefore := gc.lookupCalls.Load()

	rec, err := e.SearchAddress(context.Background(), "Eiffel Tower")
	require.NoError(t, err)
	require.NotNil(t, rec)
	e.Wait()

	assert.Equal(t, []string{"geo-1"}, e.Results().IDs())
	assertInSync(t, e, sc)

	view := sc.Map.View()
	assert.Equal(t, 15, view.Zoom)
	assert.InDelta(t, 48.8584, view.Center.Lat, 1e-9)
	assert.Equal(t, "📍 Coordinates: 48.858400, 2.294500", sc.Coords.Text())

	status := sc.Status.Current()
	require.NotNil(t, status)
	assert.Equal(t, "Found: Eiffel Tower, Paris, France", status.Text)

	// The record already carries its address.
	assert.Equal(t, lookupsBefore, gc.lookupCalls.Load())
	assert.True(t, sc.Controls.Enabled(ControlSearch))
}

func TestDisplayedGaugeFollowsEveryReplacement(t *testing.T) {
	gc := &fakeGeocoder{
		forward: func(_ context.Context, text string) (*model.LocationRecord, error) {
			return &model.LocationRecord{
				ID:       "geo-1",
				Name:     "Eiffel Tower, Paris, France",
				Lat:      48.8584,
				Lng:      2.2945,
				Category: model.CategoryLandmark,
				Address:  "Eiffel Tower, Paris, France",
			}, nil
		},
	}
	cfg := testConfig()
	cfg.LocateMode = ModeReplace
	probe := probeFunc(func(context.Context, locate.Options) (locate.Position, error) {
		return locate.Position{Lat: 40.7, Lng: -74}, nil
	})
	e, _ := newTestExplorer(t, gc, probe, cfg)

	e.Start(context.Background())
	e.Wait()
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.DisplayedResults), 0.0001)

	_, err := e.SearchAddress(context.Background(), "Eiffel Tower")
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DisplayedResults), 0.0001)

	e.Filter("park", model.CategoryAll)
	e.Wait()
	assert.InDelta(t, float64(len(e.Results())), testutil.ToFloat64(metrics.DisplayedResults), 0.0001)

	_, err = e.Locate(context.Background())
	require.NoError(t, err)
	e.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DisplayedResults), 0.0001)
}

func TestSearchFailureLeavesResultsUntouched(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "no results",
			err:  &geocode.Error{Kind: geocode.KindNoResults, Reason: geocode.MsgNoResults},
			want: "Search failed: " + geocode.MsgNoResults,
		},
		{
			name: "http status",
			err:  &geocode.Error{Kind: geocode.KindTransport, Status: 500, Reason: "API request failed: 500"},
			want: "Search failed: API request failed: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := &fakeGeocoder{
				forward: func(context.Context, string) (*model.LocationRecord, error) { return nil, tt.err },
			}
			e, sc := newTestExplorer(t, gc, nil, testConfig())
			e.Start(context.Background())
			e.Filter("bridge", model.CategoryAll)

			rec, err := e.SearchAddress(context.Background(), "nowhere")
			require.Error(t, err)
			assert.Nil(t, rec)

			assert.Equal(t, []string{"3"}, e.Results().IDs())
			assertInSync(t, e, sc)

			status := sc.Status.Current()
			require.NotNil(t, status)
			assert.Equal(t, tt.want, status.Text)
			assert.Equal(t, StatusError, status.Kind)
			assert.True(t, sc.Controls.Enabled(ControlSearch))
		})
	}
}

func TestSearchControlBusy(t *testing.T) {
	release := make(chan struct{})
	gc := &fakeGeocoder{
		forward: func(ctx context.Context, text string) (*model.LocationRecord, error) {
			<-release
			return &model.LocationRecord{ID: "geo", Name: text, Lat: 1, Lng: 2, Category: model.CategoryLandmark, Address: text}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = e.SearchAddress(context.Background(), "first")
	}()

	assert.Eventually(t, func() bool {
		return !sc.Controls.Enabled(ControlSearch)
	}, time.Second, 5*time.Millisecond)

	e.Read(func(st State) {
		assert.Equal(t, []string{ControlSearch}, st.Busy)
	})

	_, err := e.SearchAddress(context.Background(), "second")
	assert.ErrorIs(t, err, ErrControlBusy)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.EqualValues(t, 1, gc.forwardCalls.Load())
	assert.True(t, sc.Controls.Enabled(ControlSearch))
	assert.Equal(t, []string{"geo"}, e.Results().IDs())
}

func TestSearchSupersededByFilter(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gc := &fakeGeocoder{
		forward: func(context.Context, string) (*model.LocationRecord, error) {
			close(started)
			<-release
			return &model.LocationRecord{ID: "geo", Name: "Somewhere", Lat: 1, Lng: 2, Category: model.CategoryLandmark, Address: "x"}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := e.SearchAddress(context.Background(), "somewhere")
		done <- err
	}()

	<-started
	e.Filter("central", model.CategoryAll)
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, []string{"1"}, e.Results().IDs())
	assertInSync(t, e, sc)
}

func TestLocateEphemeralPinExpires(t *testing.T) {
	gc := &fakeGeocoder{
		lookup: func(context.Context, float64, float64) (model.AddressInfo, error) {
			return model.AddressInfo{Address: "Times Sq, New York", Success: true}, nil
		},
	}
	cfg := testConfig()
	cfg.PinTTL = 50 * time.Millisecond
	e, sc := newTestExplorer(t, gc, locate.NewStaticProbe(40.758, -73.9855), cfg)
	e.Start(context.Background())

	rec, err := e.Locate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, CurrentName, rec.Name)
	assert.Equal(t, model.CategoryCurrent, rec.Category)
	assert.Equal(t, "Times Sq, New York", rec.Description)
	assert.Contains(t, rec.ID, "current-")

	pin := sc.Map.Pin()
	require.NotNil(t, pin)
	assert.Equal(t, rec.ID, pin.ID)
	assert.Contains(t, pin.Popup, "Times Sq, New York")
	assert.Equal(t, model.CurrentIcon, pin.Icon)

	// The displayed results are untouched.
	assert.Len(t, e.Results(), 5)
	assertInSync(t, e, sc)
	assert.Equal(t, 15, sc.Map.View().Zoom)

	status := sc.Status.Current()
	require.NotNil(t, status)
	assert.Equal(t, LocatedMessage, status.Text)

	assert.Eventually(t, func() bool {
		return sc.Map.Pin() == nil
	}, time.Second, 5*time.Millisecond)
	e.Read(func(st State) {
		assert.Nil(t, st.Pin)
	})
	assert.True(t, sc.Controls.Enabled(ControlLocate))
}

func TestLocateKeepsDescriptionWhenLookupFails(t *testing.T) {
	gc := &fakeGeocoder{
		lookup: func(context.Context, float64, float64) (model.AddressInfo, error) {
			return model.AddressInfo{}, errors.New("boom")
		},
	}
	cfg := testConfig()
	cfg.AnnotateAddresses = false
	e, sc := newTestExplorer(t, gc, nil, cfg)
	e.Start(context.Background())

	rec, err := e.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentDescription, rec.Description)

	pin := sc.Map.Pin()
	require.NotNil(t, pin)
	assert.Contains(t, pin.Popup, model.AddressUnavailable)
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "permission denied",
			err:  locate.NewError(locate.CodePermissionDenied, nil),
			want: "Unable to retrieve your location. Please allow location access in your browser settings.",
		},
		{
			name: "position unavailable",
			err:  locate.NewError(locate.CodePositionUnavailable, nil),
			want: "Unable to retrieve your location. Location information is unavailable.",
		},
		{
			name: "timeout",
			err:  context.DeadlineExceeded,
			want: "Unable to retrieve your location. Location request timed out. Please try again.",
		},
		{
			name: "unknown",
			err:  errors.New("sensor on fire"),
			want: "Unable to retrieve your location. An unknown error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := probeFunc(func(context.Context, locate.Options) (locate.Position, error) {
				return locate.Position{}, tt.err
			})
			e, sc := newTestExplorer(t, &fakeGeocoder{}, probe, testConfig())
			e.Start(context.Background())

			rec, err := e.Locate(context.Background())
			require.Error(t, err)
			assert.Nil(t, rec)

			var le *locate.Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.want, le.Message())

			status := sc.Status.Current()
			require.NotNil(t, status)
			assert.Equal(t, tt.want, status.Text)
			assert.Equal(t, StatusError, status.Kind)

			assert.Nil(t, sc.Map.Pin())
			assert.Len(t, e.Results(), 5)
			assert.True(t, sc.Controls.Enabled(ControlLocate))
		})
	}
}

func TestLocateDisabledProbe(t *testing.T) {
	e, _ := newTestExplorer(t, &fakeGeocoder{}, locate.DisabledProbe{}, testConfig())
	e.Start(context.Background())

	_, err := e.Locate(context.Background())
	var le *locate.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, locate.CodePermissionDenied, le.Code)
}

func TestLocateReplaceMode(t *testing.T) {
	cfg := testConfig()
	cfg.LocateMode = ModeReplace
	cfg.PinTTL = 20 * time.Millisecond
	e, sc := newTestExplorer(t, &fakeGeocoder{}, locate.NewStaticProbe(51.5074, -0.1278), cfg)
	e.Start(context.Background())

	rec, err := e.Locate(context.Background())
	require.NoError(t, err)

	e.Read(func(st State) {
		assert.Nil(t, st.Pin)
		require.Len(t, st.Results, 1)
		assert.Equal(t, rec.ID, st.Results[0].ID)
		assert.Equal(t, model.CategoryCurrent, st.Results[0].Category)
	})
	assertInSync(t, e, sc)
	assert.Nil(t, sc.Map.Pin())

	// Replace mode never expires.
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, e.Results(), 1)
	assert.Equal(t, 1, sc.Map.MarkerCount())
}

func TestSelect(t *testing.T) {
	e, sc := newTestExplorer(t, &fakeGeocoder{}, nil, testConfig())
	e.Start(context.Background())

	rec, err := e.Select("3")
	require.NoError(t, err)
	assert.Equal(t, "Brooklyn Bridge, New York", rec.Name)

	view := sc.Map.View()
	assert.Equal(t, 15, view.Zoom)
	assert.InDelta(t, rec.Lat, view.Center.Lat, 1e-9)
	assert.InDelta(t, rec.Lng, view.Center.Lng, 1e-9)

	open := sc.Map.Open()
	require.NotNil(t, open)
	assert.Equal(t, "3", open.MarkerID)

	for _, entry := range sc.List.Entries() {
		assert.Equal(t, entry.ID == "3", entry.Selected, entry.ID)
	}
	e.Read(func(st State) {
		assert.Equal(t, "3", st.Selected)
	})

	_, err = e.Select("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectCurrentPin(t *testing.T) {
	e, sc := newTestExplorer(t, &fakeGeocoder{}, nil, testConfig())
	e.Start(context.Background())

	rec, err := e.Locate(context.Background())
	require.NoError(t, err)

	got, err := e.Select(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	open := sc.Map.Open()
	require.NotNil(t, open)
	assert.Equal(t, rec.ID, open.MarkerID)
}

func TestInspectPoint(t *testing.T) {
	gc := &fakeGeocoder{
		lookup: func(_ context.Context, lat, lng float64) (model.AddressInfo, error) {
			return model.AddressInfo{Address: "10 Downing St, London", Success: true}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())
	e.Wait()

	addr, err := e.InspectPoint(context.Background(), 51.5034, -0.1276)
	require.NoError(t, err)
	assert.True(t, addr.Success)
	assert.Equal(t, "10 Downing St, London", addr.Address)

	open := sc.Map.Open()
	require.NotNil(t, open)
	require.NotNil(t, open.Point)
	assert.Contains(t, open.Point.Content, "Clicked Location")
	assert.Contains(t, open.Point.Content, "10 Downing St, London")
	assert.Equal(t, "📍 Coordinates: 51.503400, -0.127600", sc.Coords.Text())

	// Markers are untouched.
	assert.Len(t, e.Results(), 5)
	assertInSync(t, e, sc)
}

func TestInspectPointLookupFailure(t *testing.T) {
	gc := &fakeGeocoder{
		lookup: func(context.Context, float64, float64) (model.AddressInfo, error) {
			return model.AddressInfo{}, &geocode.Error{Kind: geocode.KindTransport, Reason: "API request failed"}
		},
	}
	cfg := testConfig()
	cfg.AnnotateAddresses = false
	e, sc := newTestExplorer(t, gc, nil, cfg)
	e.Start(context.Background())

	addr, err := e.InspectPoint(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.False(t, addr.Success)
	assert.Equal(t, model.AddressUnavailable, addr.Address)

	open := sc.Map.Open()
	require.NotNil(t, open)
	require.NotNil(t, open.Point)
	assert.Contains(t, open.Point.Content, model.AddressUnavailable)
}

func TestInspectPointInvalidCoordinates(t *testing.T) {
	gc := &fakeGeocoder{}
	cfg := testConfig()
	cfg.AnnotateAddresses = false
	e, sc := newTestExplorer(t, gc, nil, cfg)
	e.Start(context.Background())

	for _, c := range []model.Coordinates{{Lat: 91, Lng: 0}, {Lat: 0, Lng: -181}} {
		_, err := e.InspectPoint(context.Background(), c.Lat, c.Lng)
		assert.ErrorIs(t, err, ErrInvalidCoordinates)
	}
	assert.Zero(t, gc.lookupCalls.Load())
	assert.Nil(t, sc.Map.Open())
}

func TestAnnotationDisabled(t *testing.T) {
	gc := &fakeGeocoder{}
	cfg := testConfig()
	cfg.AnnotateAddresses = false
	e, sc := newTestExplorer(t, gc, nil, cfg)

	e.Start(context.Background())
	e.Wait()

	assert.Zero(t, gc.lookupCalls.Load())
	for _, m := range sc.Map.Markers() {
		assert.False(t, m.AddressPending)
		assert.Contains(t, m.Popup, model.AddressUnavailable)
	}
}

func TestAnnotationPatchesPopupsWhenLookupsFinish(t *testing.T) {
	gate := make(chan struct{})
	gc := &fakeGeocoder{
		lookup: func(ctx context.Context, lat, lng float64) (model.AddressInfo, error) {
			select {
			case <-gate:
			case <-ctx.Done():
				return model.AddressInfo{}, ctx.Err()
			}
			return model.AddressInfo{Address: "Resolved Address", Success: true}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	for _, m := range sc.Map.Markers() {
		assert.True(t, m.AddressPending)
		assert.Contains(t, m.Popup, scene.AddressPending)
	}

	close(gate)
	e.Wait()

	for _, m := range sc.Map.Markers() {
		assert.False(t, m.AddressPending)
		assert.Contains(t, m.Popup, "Resolved Address")
	}
}

func TestStaleAnnotationIsDropped(t *testing.T) {
	var first atomic.Bool
	first.Store(true)
	gate := make(chan struct{})
	gc := &fakeGeocoder{
		lookup: func(context.Context, float64, float64) (model.AddressInfo, error) {
			if first.Load() {
				<-gate
				return model.AddressInfo{Address: "Stale", Success: true}, nil
			}
			return model.AddressInfo{Address: "Fresh", Success: true}, nil
		},
	}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())

	first.Store(false)
	e.Filter("central", model.CategoryAll)

	assert.Eventually(t, func() bool {
		ms := sc.Map.Markers()
		return len(ms) == 1 && !ms[0].AddressPending
	}, time.Second, 5*time.Millisecond)

	close(gate)
	e.Wait()

	ms := sc.Map.Markers()
	require.Len(t, ms, 1)
	assert.Contains(t, ms[0].Popup, "Fresh")
	assert.NotContains(t, ms[0].Popup, "Stale")
}

func TestFitResults(t *testing.T) {
	cfg := testConfig()
	cfg.AnnotateAddresses = false
	e, sc := newTestExplorer(t, &fakeGeocoder{}, nil, cfg)
	e.Start(context.Background())

	assert.True(t, e.FitResults())
	view := sc.Map.View()
	require.NotNil(t, view.Bounds)
	assert.InDelta(t, 40.6892, view.Bounds.South, 1e-4)

	e.Filter("zzz", model.CategoryAll)
	assert.False(t, e.FitResults())
}

func TestCloseStopsAnnotations(t *testing.T) {
	gc := &fakeGeocoder{}
	e, sc := newTestExplorer(t, gc, nil, testConfig())
	e.Start(context.Background())
	e.Close()

	calls := gc.lookupCalls.Load()
	e.Filter("", model.CategoryAll)
	assert.Equal(t, calls, gc.lookupCalls.Load())
	for _, m := range sc.Map.Markers() {
		assert.False(t, m.AddressPending)
	}
}

func TestAnnotationBreakerStopsLookups(t *testing.T) {
	gc := &fakeGeocoder{
		lookup: func(context.Context, float64, float64) (model.AddressInfo, error) {
			return model.UnavailableAddress(), &geocode.Error{Kind: geocode.KindTransport, Status: 503, Reason: "API request failed: 503"}
		},
	}
	cfg := testConfig()
	cfg.AnnotationBreaker = resilience.NewBreaker(resilience.BreakerConfig{
		Name:      "annotations",
		Threshold: 2,
		Cooldown:  time.Minute,
		Trips:     geocode.IsServiceFailure,
	})
	e, sc := newTestExplorer(t, gc, nil, cfg)

	e.Start(context.Background())
	e.Wait()
	require.Equal(t, resilience.Open, cfg.AnnotationBreaker.State())
	calls := gc.lookupCalls.Load()

	e.Filter("", model.CategoryAll)
	e.Wait()

	assert.Equal(t, calls, gc.lookupCalls.Load())
	for _, m := range sc.Map.Markers() {
		assert.False(t, m.AddressPending)
		assert.Contains(t, m.Popup, model.AddressUnavailable)
	}
}
