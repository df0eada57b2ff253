package scene

import (
	"sync"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/map-explorer/internal/model"
)

// Marker is a rendered map marker.
type Marker struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Lat            float64        `json:"lat"`
	Lng            float64        `json:"lng"`
	Category       model.Category `json:"category"`
	Icon           model.Icon     `json:"icon"`
	Popup          string         `json:"popup"`
	AddressPending bool           `json:"address_pending"`

	record  model.LocationRecord
	address *model.AddressInfo
}

func newMarker(rec model.LocationRecord, icon model.Icon) *Marker {
	m := &Marker{
		ID:       rec.ID,
		Name:     rec.Name,
		Lat:      rec.Lat,
		Lng:      rec.Lng,
		Category: rec.Category,
		Icon:     icon,
		record:   rec,
	}
	if rec.Address != "" {
		m.address = &model.AddressInfo{Address: rec.Address, Success: true}
	}
	m.render()
	return m
}

func (m *Marker) render() {
	m.AddressPending = m.address == nil
	m.Popup = renderMarkerPopup(m.record, m.address)
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Viewport is the visible map region. Bounds is set after FitBounds and
// cleared by the next SetView.
type Viewport struct {
	Center model.Coordinates `json:"center"`
	Zoom   int               `json:"zoom"`
	Bounds *Bounds           `json:"bounds,omitempty"`
}

// PointPopup is a popup anchored to a coordinate rather than a marker.
type PointPopup struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Content string  `json:"content"`
}

// OpenPopup describes the popup currently open, if any. Exactly one of
// MarkerID and Point is set.
type OpenPopup struct {
	MarkerID string      `json:"marker_id,omitempty"`
	Point    *PointPopup `json:"point,omitempty"`
}

// Map holds markers, the current-location pin, the viewport and the open
// popup.
type Map struct {
	mu      sync.RWMutex
	markers []*Marker
	index   map[string]*Marker
	pin     *Marker
	view    Viewport
	open    *OpenPopup
}

// NewMap creates an empty map centred on center.
func NewMap(center model.Coordinates, zoom int) *Map {
	return &Map{
		index: make(map[string]*Marker),
		view:  Viewport{Center: center, Zoom: zoom},
	}
}

// ClearMarkers removes every result marker. The current-location pin is
// kept.
func (m *Map) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = nil
	m.index = make(map[string]*Marker)
	if m.open != nil && m.open.MarkerID != "" && (m.pin == nil || m.pin.ID != m.open.MarkerID) {
		m.open = nil
	}
}

// AddMarker adds a result marker for rec. Its popup shows a pending
// address unless rec already carries one.
func (m *Map) AddMarker(rec model.LocationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := newMarker(rec, model.IconFor(rec.Category))
	if old, ok := m.index[rec.ID]; ok {
		*old = *mk
		return
	}
	m.markers = append(m.markers, mk)
	m.index[rec.ID] = mk
}

// SetMarkerAddress patches the popup of marker id in place. It reports
// false when no such marker exists any more.
func (m *Map) SetMarkerAddress(id string, addr model.AddressInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := m.lookup(id)
	if mk == nil {
		return false
	}
	a := addr
	mk.address = &a
	mk.render()
	return true
}

func (m *Map) lookup(id string) *Marker {
	if mk, ok := m.index[id]; ok {
		return mk
	}
	if m.pin != nil && m.pin.ID == id {
		return m.pin
	}
	return nil
}

// MarkerCount returns the number of result markers, excluding the pin.
func (m *Map) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// SetCurrentPin replaces the current-location pin.
func (m *Map) SetCurrentPin(rec model.LocationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pin != nil && m.open != nil && m.open.MarkerID == m.pin.ID {
		m.open = nil
	}
	m.pin = newMarker(rec, model.CurrentIcon)
}

// ClearCurrentPin removes the pin if it is still the one with id.
func (m *Map) ClearCurrentPin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pin == nil || m.pin.ID != id {
		return false
	}
	if m.open != nil && m.open.MarkerID == id {
		m.open = nil
	}
	m.pin = nil
	return true
}

// SetView centres the map.
func (m *Map) SetView(c model.Coordinates, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = Viewport{Center: c, Zoom: zoom}
}

// FitBounds frames every result marker and the pin. It reports false
// when there is nothing to frame.
func (m *Map) FitBounds() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bounds()
	if !ok {
		return false
	}
	m.view.Bounds = &b
	m.view.Center = model.Coordinates{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
	return true
}

func (m *Map) bounds() (Bounds, bool) {
	gb := geom.NewBounds(geom.XY)
	extend := func(mk *Marker) {
		gb.Extend(geom.NewPointFlat(geom.XY, []float64{mk.Lng, mk.Lat}))
	}
	for _, mk := range m.markers {
		extend(mk)
	}
	if m.pin != nil {
		extend(m.pin)
	}
	if gb.IsEmpty() {
		return Bounds{}, false
	}
	return Bounds{West: gb.Min(0), South: gb.Min(1), East: gb.Max(0), North: gb.Max(1)}, true
}

// OpenPopup opens the popup of marker id.
func (m *Map) OpenPopup(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup(id) == nil {
		return false
	}
	m.open = &OpenPopup{MarkerID: id}
	return true
}

// ShowPointPopup opens a free-standing popup at c describing addr.
func (m *Map) ShowPointPopup(c model.Coordinates, addr model.AddressInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = &OpenPopup{Point: &PointPopup{Lat: c.Lat, Lng: c.Lng, Content: renderPointPopup(c, addr)}}
}

// Markers returns copies of the result markers in display order.
func (m *Map) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Marker, len(m.markers))
	for i, mk := range m.markers {
		out[i] = *mk
	}
	return out
}

// Pin returns a copy of the current-location pin, or nil.
func (m *Map) Pin() *Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pin == nil {
		return nil
	}
	p := *m.pin
	return &p
}

// View returns the viewport.
func (m *Map) View() Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.view
	if v.Bounds != nil {
		b := *v.Bounds
		v.Bounds = &b
	}
	return v
}

// Open returns the open popup, or nil.
func (m *Map) Open() *OpenPopup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.open == nil {
		return nil
	}
	o := *m.open
	return &o
}
