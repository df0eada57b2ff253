package scene

import (
	"bytes"
	"html/template"

	"github.com/sells-group/map-explorer/internal/model"
)

// AddressPending is shown in a popup until its reverse lookup finishes.
const AddressPending = "Looking up address…"

var markerPopupTmpl = template.Must(template.New("marker").Parse(
	`<div class="popup">` +
		`<h3 class="popup-title">{{.Name}}</h3>` +
		`<div class="popup-address"><strong>📍 Address:</strong><br><span>{{.Address}}</span></div>` +
		`{{if .Description}}<div class="popup-description"><strong>📝 Description:</strong><br>{{.Description}}</div>{{end}}` +
		`{{if .Image}}<img class="popup-image" src="{{.Image}}" alt="{{.Name}}">{{end}}` +
		`<div class="popup-coords">📍 {{.Coords}}</div>` +
		`</div>`))

var pointPopupTmpl = template.Must(template.New("point").Parse(
	`<div class="popup">` +
		`<h4 class="popup-title">Clicked Location</h4>` +
		`<div class="popup-address"><strong>📍 Address:</strong><br><span>{{.Address}}</span></div>` +
		`<div class="popup-coords">{{.Coords}}</div>` +
		`</div>`))

type popupData struct {
	Name        string
	Address     string
	Description string
	Image       string
	Coords      string
}

// addressText picks what the popup shows for addr. A nil addr means the
// lookup has not finished yet.
func addressText(addr *model.AddressInfo) string {
	switch {
	case addr == nil:
		return AddressPending
	case addr.Success && addr.Address != "":
		return addr.Address
	default:
		return model.AddressUnavailable
	}
}

func renderMarkerPopup(rec model.LocationRecord, addr *model.AddressInfo) string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = markerPopupTmpl.Execute(&buf, popupData{
		Name:        rec.Name,
		Address:     addressText(addr),
		Description: rec.Description,
		Image:       rec.Image,
		Coords:      rec.Coordinates().String(),
	})
	return buf.String()
}

func renderPointPopup(c model.Coordinates, addr model.AddressInfo) string {
	var buf bytes.Buffer
	_ = pointPopupTmpl.Execute(&buf, popupData{
		Address: addressText(&addr),
		Coords:  c.String(),
	})
	return buf.String()
}
