// Package scene holds the render-ready state of the explorer UI: map
// markers and popups, the results list, the status banner, control
// states and the coordinates readout. Front ends draw a Snapshot.
package scene

import (
	"sync"
	"time"

	"github.com/sells-group/map-explorer/internal/model"
)

// Options configures a new Scene.
type Options struct {
	Center    model.Coordinates
	Zoom      int
	StatusTTL time.Duration
}

// Scene groups the presentation adapters.
type Scene struct {
	Map      *Map
	List     *List
	Status   *Status
	Controls *Controls
	Coords   *CoordinatesDisplay
}

// New creates an empty scene.
func New(opts Options) *Scene {
	return &Scene{
		Map:      NewMap(opts.Center, opts.Zoom),
		List:     NewList(),
		Status:   NewStatus(opts.StatusTTL),
		Controls: NewControls(),
		Coords:   &CoordinatesDisplay{},
	}
}

// Snapshot is everything a front end needs to draw the UI.
type Snapshot struct {
	View             Viewport       `json:"view"`
	Markers          []Marker       `json:"markers"`
	CurrentPin       *Marker        `json:"current_pin,omitempty"`
	OpenPopup        *OpenPopup     `json:"open_popup,omitempty"`
	List             []ListEntry    `json:"list"`
	Count            int            `json:"count"`
	Status           *StatusMessage `json:"status,omitempty"`
	DisabledControls []string       `json:"disabled_controls"`
	Coordinates      string         `json:"coordinates,omitempty"`
}

// Snapshot reads every adapter. Callers that need a consistent view
// across adapters hold the explorer's state lock while calling it.
func (s *Scene) Snapshot() Snapshot {
	entries := s.List.Entries()
	return Snapshot{
		View:             s.Map.View(),
		Markers:          s.Map.Markers(),
		CurrentPin:       s.Map.Pin(),
		OpenPopup:        s.Map.Open(),
		List:             entries,
		Count:            len(entries),
		Status:           s.Status.Current(),
		DisabledControls: s.Controls.Disabled(),
		Coordinates:      s.Coords.Text(),
	}
}

// CoordinatesDisplay is the coordinates readout under the map.
type CoordinatesDisplay struct {
	mu   sync.RWMutex
	text string
}

// ShowCoordinates updates the readout to six decimals.
func (d *CoordinatesDisplay) ShowCoordinates(c model.Coordinates) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = "📍 Coordinates: " + c.String()
}

// Text returns the readout, empty until the first update.
func (d *CoordinatesDisplay) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}
