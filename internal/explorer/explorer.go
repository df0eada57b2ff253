// Package explorer owns the application state of the map explorer: the
// displayed ResultSet, the selection, the current-location pin and the
// busy state of each control. Every user action goes through it.
package explorer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/locate"
	"github.com/sells-group/map-explorer/internal/metrics"
	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/resilience"
	"github.com/sells-group/map-explorer/internal/search"
	"github.com/sells-group/map-explorer/internal/store"
	"github.com/sells-group/map-explorer/pkg/geocode"
)

// Locate modes.
const (
	// ModeEphemeral shows the located position as a pin that expires;
	// the displayed ResultSet is left alone.
	ModeEphemeral = "ephemeral"
	// ModeReplace makes the located position the whole ResultSet.
	ModeReplace = "replace"
)

// User-facing text.
const (
	WelcomeMessage     = "🚀 Ready! Search any location worldwide"
	LocatedMessage     = "Found your current location!"
	CurrentName        = "Your Current Location"
	CurrentDescription = "Your current position"
)

var (
	// ErrControlBusy is returned when the triggering control is disabled
	// because its previous request is still running.
	ErrControlBusy = errors.New("explorer: control busy")
	// ErrSuperseded is returned when a newer action replaced the results
	// while this one was in flight; its result is discarded.
	ErrSuperseded = errors.New("explorer: superseded by a newer action")
	// ErrNotFound is returned by Select for ids that are not displayed.
	ErrNotFound = errors.New("explorer: location not found")
	// ErrInvalidCoordinates is returned for points outside WGS84 bounds.
	ErrInvalidCoordinates = errors.New("explorer: coordinates out of range")
)

// Config holds display and behaviour settings.
type Config struct {
	Center            model.Coordinates
	InitialZoom       int
	FocusZoom         int
	PinTTL            time.Duration
	AnnotateAddresses bool
	LocateMode        string
	LocateOptions     locate.Options
	// AnnotationBreaker, when set, guards background popup lookups so a
	// failing geocoder is not called once per marker.
	AnnotationBreaker *resilience.Breaker
}

// State is a read-only view of the controller state.
type State struct {
	Results  model.ResultSet
	Selected string
	Pin      *model.LocationRecord
	Busy     []string
}

// Explorer coordinates the store, the geocoder, the location probe and
// the views.
type Explorer struct {
	store    *store.Store
	geocoder geocode.Client
	probe    locate.Probe
	cfg      Config
	views    Views
	sync     *Syncer
	newID    func() string

	mu       sync.Mutex
	results  model.ResultSet
	selected string
	pin      *model.LocationRecord
	pinTimer *time.Timer
	busy     map[string]bool
	// action is bumped by every trigger that will replace the results;
	// a completion carrying an older token is stale.
	action uint64
	// display is bumped every time the results are replaced; popup
	// patches carrying an older value are dropped.
	display uint64
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Explorer. Call Start before serving user actions.
func New(st *store.Store, gc geocode.Client, probe locate.Probe, views Views, cfg Config) *Explorer {
	if cfg.LocateMode == "" {
		cfg.LocateMode = ModeEphemeral
	}
	if cfg.PinTTL <= 0 {
		cfg.PinTTL = 5 * time.Second
	}
	if cfg.FocusZoom == 0 {
		cfg.FocusZoom = 15
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Explorer{
		store:    st,
		geocoder: gc,
		probe:    probe,
		cfg:      cfg,
		views:    views,
		sync:     NewSyncer(views.Map, views.List),
		newID:    uuid.NewString,
		busy:     make(map[string]bool),
		results:  model.ResultSet{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start sets the initial view, displays the whole store and greets the
// user. Background popup lookups are bound to ctx.
func (e *Explorer) Start(ctx context.Context) {
	e.mu.Lock()
	e.cancel()
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.views.Map.SetView(e.cfg.Center, e.cfg.InitialZoom)
	e.mu.Unlock()

	e.Filter("", model.CategoryAll)
	e.views.Status.Show(WelcomeMessage, StatusSuccess)
}

// Filter displays the store records matching query and category.
func (e *Explorer) Filter(query string, category model.Category) model.ResultSet {
	rs := search.Search(e.store.Records(), query, category)

	e.mu.Lock()
	e.action++
	e.displayLocked(rs, nil)
	e.mu.Unlock()

	metrics.ObserveFilter()
	zap.L().Debug("explorer: filter applied",
		zap.String("query", query),
		zap.String("category", string(category)),
		zap.Int("results", len(rs)),
	)
	return rs.Clone()
}

// SearchAddress geocodes text and, on success, displays the single
// result. On failure the displayed results are left untouched.
func (e *Explorer) SearchAddress(ctx context.Context, text string) (*model.LocationRecord, error) {
	if strings.TrimSpace(text) == "" {
		e.views.Status.Show(geocode.MsgEmptyQuery, StatusError)
		return nil, geocode.NewInputError()
	}
	if !e.acquire(ControlSearch) {
		return nil, ErrControlBusy
	}
	defer e.release(ControlSearch)

	token := e.nextAction()
	rec, err := e.geocoder.ForwardGeocode(ctx, text)
	if err != nil {
		e.views.Status.Show("Search failed: "+geocode.Reason(err), StatusError)
		zap.L().Info("explorer: search failed",
			zap.String("query", text),
			zap.String("kind", geocode.KindOf(err).String()),
			zap.Error(err),
		)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.action {
		zap.L().Debug("explorer: discarding stale search result", zap.String("query", text))
		return nil, ErrSuperseded
	}
	e.displayLocked(model.ResultSet{*rec}, nil)
	e.focusLocked(*rec)
	e.views.Status.Show("Found: "+rec.Name, StatusSuccess)
	return rec, nil
}

// Locate probes the current position and marks it on the map.
func (e *Explorer) Locate(ctx context.Context) (*model.LocationRecord, error) {
	if !e.acquire(ControlLocate) {
		return nil, ErrControlBusy
	}
	defer e.release(ControlLocate)

	var token uint64
	if e.cfg.LocateMode == ModeReplace {
		token = e.nextAction()
	}

	pos, err := e.probe.Locate(ctx, e.cfg.LocateOptions)
	if err != nil {
		le := locate.Classify(err)
		e.views.Status.Show(le.Message(), StatusError)
		return nil, le
	}

	rec := model.LocationRecord{
		ID:          "current-" + e.newID(),
		Name:        CurrentName,
		Lat:         pos.Lat,
		Lng:         pos.Lng,
		Category:    model.CategoryCurrent,
		Description: CurrentDescription,
	}
	addr := geocode.ReverseGeocode(ctx, e.geocoder, pos.Lat, pos.Lng)
	if addr.Success {
		rec.Description = addr.Address
		rec.Address = addr.Address
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.LocateMode == ModeReplace {
		if token != e.action {
			return nil, ErrSuperseded
		}
		e.clearPinLocked()
		e.displayLocked(model.ResultSet{rec}, map[string]model.AddressInfo{rec.ID: addr})
	} else {
		e.setPinLocked(rec, addr)
	}
	e.focusLocked(rec)
	e.views.Status.Show(LocatedMessage, StatusSuccess)
	return &rec, nil
}

// Select focuses the displayed record with id: the map centres on it,
// its popup opens and its list entry is highlighted.
func (e *Explorer) Select(id string) (*model.LocationRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.results.Find(id)
	if !ok && e.pin != nil && e.pin.ID == id {
		rec, ok = *e.pin, true
	}
	if !ok {
		return nil, ErrNotFound
	}
	e.selected = id
	e.focusLocked(rec)
	e.sync.Focus(id)
	return &rec, nil
}

// InspectPoint reverse geocodes an arbitrary map point and opens a popup
// there.
func (e *Explorer) InspectPoint(ctx context.Context, lat, lng float64) (model.AddressInfo, error) {
	c := model.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return model.AddressInfo{}, ErrInvalidCoordinates
	}

	e.mu.Lock()
	e.views.Coords.ShowCoordinates(c)
	e.mu.Unlock()

	addr := geocode.ReverseGeocode(ctx, e.geocoder, lat, lng)

	e.mu.Lock()
	e.views.Map.ShowPointPopup(c, addr)
	e.mu.Unlock()
	return addr, nil
}

// FitResults frames all displayed markers. It reports false when nothing
// is displayed.
func (e *Explorer) FitResults() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.views.Map.FitBounds()
}

// Read calls fn with the current state while holding the state lock, so
// views read inside fn are consistent with it.
func (e *Explorer) Read(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Results:  e.results.Clone(),
		Selected: e.selected,
	}
	if e.pin != nil {
		p := *e.pin
		st.Pin = &p
	}
	for name := range e.busy {
		st.Busy = append(st.Busy, name)
	}
	sort.Strings(st.Busy)
	fn(st)
}

// Results returns the displayed ResultSet.
func (e *Explorer) Results() model.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results.Clone()
}

// Wait blocks until background popup lookups have finished.
func (e *Explorer) Wait() {
	e.wg.Wait()
}

// Close cancels background work, removes the pin timer and waits for
// outstanding lookups.
func (e *Explorer) Close() {
	e.mu.Lock()
	e.closed = true
	e.cancel()
	if e.pinTimer != nil {
		e.pinTimer.Stop()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Explorer) acquire(control string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[control] {
		return false
	}
	e.busy[control] = true
	e.views.Controls.SetEnabled(control, false)
	return true
}

func (e *Explorer) release(control string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.busy, control)
	e.views.Controls.SetEnabled(control, true)
}

func (e *Explorer) nextAction() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.action++
	return e.action
}

// displayLocked replaces the displayed results. Popups of records in
// known are filled immediately; the rest are looked up in the background
// unless the record already carries an address.
func (e *Explorer) displayLocked(rs model.ResultSet, known map[string]model.AddressInfo) {
	e.display++
	gen := e.display
	e.results = rs.Clone()
	if _, ok := e.results.Find(e.selected); !ok && (e.pin == nil || e.pin.ID != e.selected) {
		e.selected = ""
	}

	e.sync.Apply(rs)
	metrics.ObserveDisplayed(len(rs))

	for _, r := range rs {
		if addr, ok := known[r.ID]; ok {
			e.views.Map.SetMarkerAddress(r.ID, addr)
			continue
		}
		if r.Address != "" {
			continue
		}
		if !e.cfg.AnnotateAddresses || e.closed {
			e.views.Map.SetMarkerAddress(r.ID, model.UnavailableAddress())
			continue
		}
		e.annotate(gen, r)
	}
}

func (e *Explorer) annotate(gen uint64, r model.LocationRecord) {
	ctx := e.ctx
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		addr := e.annotationAddress(ctx, r)

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.display != gen {
			return
		}
		e.views.Map.SetMarkerAddress(r.ID, addr)
	}()
}

func (e *Explorer) annotationAddress(ctx context.Context, r model.LocationRecord) model.AddressInfo {
	b := e.cfg.AnnotationBreaker
	if b == nil {
		return geocode.ReverseGeocode(ctx, e.geocoder, r.Lat, r.Lng)
	}
	addr, err := resilience.Call(ctx, b, func(ctx context.Context) (model.AddressInfo, error) {
		return e.geocoder.LookupAddress(ctx, r.Lat, r.Lng)
	})
	if err != nil {
		return model.UnavailableAddress()
	}
	return addr
}

func (e *Explorer) focusLocked(rec model.LocationRecord) {
	e.views.Map.SetView(rec.Coordinates(), e.cfg.FocusZoom)
	e.views.Coords.ShowCoordinates(rec.Coordinates())
}

func (e *Explorer) setPinLocked(rec model.LocationRecord, addr model.AddressInfo) {
	e.clearPinLocked()
	e.pin = &rec
	e.views.Map.SetCurrentPin(rec)
	e.views.Map.SetMarkerAddress(rec.ID, addr)

	id := rec.ID
	e.pinTimer = time.AfterFunc(e.cfg.PinTTL, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.pin == nil || e.pin.ID != id {
			return
		}
		e.views.Map.ClearCurrentPin(id)
		e.pin = nil
		if e.selected == id {
			e.selected = ""
		}
	})
}

func (e *Explorer) clearPinLocked() {
	if e.pinTimer != nil {
		e.pinTimer.Stop()
		e.pinTimer = nil
	}
	if e.pin != nil {
		e.views.Map.ClearCurrentPin(e.pin.ID)
		if e.selected == e.pin.ID {
			e.selected = ""
		}
		e.pin = nil
	}
}
