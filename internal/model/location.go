package model

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// LocationRecord is a named point of interest shown on the map and in the
// results list. Records are values: copying one never aliases another.
type LocationRecord struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Lat         float64  `json:"lat" yaml:"lat" validate:"latitude"`
	Lng         float64  `json:"lng" yaml:"lng" validate:"longitude"`
	Category    Category `json:"category" yaml:"category" validate:"required"`
	Description string   `json:"description" yaml:"description"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty" validate:"omitempty,url"`
	// Address is the formatted address when one is known up front, e.g.
	// for a geocoded search result.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Coordinates returns the record position.
func (r LocationRecord) Coordinates() Coordinates {
	return Coordinates{Lat: r.Lat, Lng: r.Lng}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the record is displayable: it has an id and a name,
// and its coordinates lie within WGS84 bounds.
func (r LocationRecord) Validate() error {
	if err := recordValidator().Struct(r); err != nil {
		return eris.Wrapf(err, "model: invalid location %q", r.ID)
	}
	return nil
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are within range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String formats the pair to six decimals, the precision of the
// coordinates readout.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng)
}

// Short formats the pair to four decimals for list entries.
func (c Coordinates) Short() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

// ResultSet is the ordered collection currently displayed. A new ResultSet
// always replaces its predecessor in full.
type ResultSet []LocationRecord

// Len returns the number of records.
func (rs ResultSet) Len() int { return len(rs) }

// IDs returns record ids in display order.
func (rs ResultSet) IDs() []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// Find returns the record with the given id.
func (rs ResultSet) Find(id string) (LocationRecord, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return LocationRecord{}, false
}

// Clone returns an independent copy.
func (rs ResultSet) Clone() ResultSet {
	if rs == nil {
		return ResultSet{}
	}
	out := make(ResultSet, len(rs))
	copy(out, rs)
	return out
}
