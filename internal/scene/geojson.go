package scene

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/map-explorer/internal/model"
)

// FeatureCollection encodes rs as a GeoJSON FeatureCollection of points
// carrying the record fields and icon styling as properties.
func FeatureCollection(rs model.ResultSet) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(rs))}
	for _, r := range rs {
		icon := model.IconFor(r.Category)
		props := map[string]any{
			"name":        r.Name,
			"category":    string(r.Category),
			"description": r.Description,
			"color":       icon.Color,
			"glyph":       icon.Glyph,
		}
		if r.Image != "" {
			props["image"] = r.Image
		}
		if r.Address != "" {
			props["address"] = r.Address
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Lng, r.Lat}),
			Properties: props,
		})
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "scene: encode geojson")
	}
	return data, nil
}
