package explorer

import "github.com/sells-group/map-explorer/internal/model"

// Control names.
const (
	ControlSearch = "search"
	ControlLocate = "locate"
)

// Status kinds.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MapView renders markers, popups and the viewport.
type MapView interface {
	ClearMarkers()
	AddMarker(rec model.LocationRecord)
	SetMarkerAddress(id string, addr model.AddressInfo) bool
	MarkerCount() int
	SetCurrentPin(rec model.LocationRecord)
	ClearCurrentPin(id string) bool
	SetView(c model.Coordinates, zoom int)
	FitBounds() bool
	OpenPopup(id string) bool
	ShowPointPopup(c model.Coordinates, addr model.AddressInfo)
}

// ListView renders the ordered results list.
type ListView interface {
	Render(rs model.ResultSet)
	Select(id string) bool
}

// StatusView shows transient messages.
type StatusView interface {
	Show(text, kind string)
}

// ControlView enables and disables input controls.
type ControlView interface {
	SetEnabled(name string, enabled bool)
}

// CoordinatesView shows the last focused coordinate.
type CoordinatesView interface {
	ShowCoordinates(c model.Coordinates)
}

// Views bundles the presentation adapters.
type Views struct {
	Map      MapView
	List     ListView
	Status   StatusView
	Controls ControlView
	Coords   CoordinatesView
}
