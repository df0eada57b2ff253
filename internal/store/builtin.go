package store

import (
	"context"

	"github.com/sells-group/map-explorer/internal/model"
)

// Builtin returns the default New York location set.
func Builtin() []model.LocationRecord {
	return []model.LocationRecord{
		{
			ID:          "1",
			Name:        "Central Park, New York",
			Lat:         40.7812,
			Lng:         -73.9665,
			Category:    model.CategoryPark,
			Description: "A large public park in Manhattan with walking paths and lakes.",
		},
		{
			ID:          "2",
			Name:        "Times Square, New York",
			Lat:         40.7580,
			Lng:         -73.9855,
			Category:    model.CategoryLandmark,
			Description: "Famous commercial intersection and entertainment hub.",
		},
		{
			ID:          "3",
			Name:        "Brooklyn Bridge, New York",
			Lat:         40.7061,
			Lng:         -73.9969,
			Category:    model.CategoryLandmark,
			Description: "Historic bridge connecting Manhattan and Brooklyn.",
		},
		{
			ID:          "4",
			Name:        "Statue of Liberty, New York",
			Lat:         40.6892,
			Lng:         -74.0445,
			Category:    model.CategoryLandmark,
			Description: "Iconic statue in New York Harbor.",
		},
		{
			ID:          "5",
			Name:        "Empire State Building, New York",
			Lat:         40.7484,
			Lng:         -73.9857,
			Category:    model.CategoryLandmark,
			Description: "Famous skyscraper with observation decks.",
		},
	}
}

// BuiltinLoader serves the built-in set.
type BuiltinLoader struct{}

// Load implements Loader.
func (BuiltinLoader) Load(context.Context) ([]model.LocationRecord, error) {
	return Builtin(), nil
}
