package explorer

import "github.com/sells-group/map-explorer/internal/model"

// Syncer keeps the list and the map in lock-step with the displayed
// ResultSet: one marker and one list entry per record, linked by id.
type Syncer struct {
	m MapView
	l ListView
}

// NewSyncer pairs a map and a list.
func NewSyncer(m MapView, l ListView) *Syncer {
	return &Syncer{m: m, l: l}
}

// Apply replaces what is displayed with rs. Existing markers are torn
// down before any new marker is added, so markers never accumulate.
func (s *Syncer) Apply(rs model.ResultSet) {
	s.m.ClearMarkers()
	for _, r := range rs {
		s.m.AddMarker(r)
	}
	s.l.Render(rs)
}

// Focus highlights id in the list and opens its popup.
func (s *Syncer) Focus(id string) bool {
	listed := s.l.Select(id)
	opened := s.m.OpenPopup(id)
	return listed || opened
}
