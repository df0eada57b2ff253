package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/model"
)

// Loader produces the initial location set. Loaders run once at startup;
// nothing is ever written back through them.
type Loader interface {
	Load(ctx context.Context) ([]model.LocationRecord, error)
}

// Store is the immutable, ordered collection of known locations.
type Store struct {
	records []model.LocationRecord
	index   map[string]int
}

// New validates records and builds a Store preserving their order. Ids
// must be unique.
func New(records []model.LocationRecord) (*Store, error) {
	s := &Store{
		records: make([]model.LocationRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, eris.Wrap(err, "store: new")
		}
		if _, dup := s.index[r.ID]; dup {
			return nil, eris.Errorf("store: duplicate location id %q", r.ID)
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return s, nil
}

// Load runs the loader and builds a Store from its output.
func Load(ctx context.Context, l Loader) (*Store, error) {
	records, err := l.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: load")
	}
	s, err := New(records)
	if err != nil {
		return nil, err
	}
	zap.L().Info("store: locations loaded", zap.Int("count", s.Len()))
	return s, nil
}

// Records returns a copy of all records in store order.
func (s *Store) Records() []model.LocationRecord {
	out := make([]model.LocationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (model.LocationRecord, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.LocationRecord{}, false
	}
	return s.records[i], true
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }
