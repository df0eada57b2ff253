package scene

import (
	"sync"

	"github.com/sells-group/map-explorer/internal/model"
)

// ListEntry is one row of the results list.
type ListEntry struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    model.Category `json:"category"`
	Description string         `json:"description"`
	Coords      string         `json:"coords"`
	Icon        model.Icon     `json:"icon"`
	Selected    bool           `json:"selected"`
}

// List is the ordered results list with its count.
type List struct {
	mu       sync.RWMutex
	entries  []ListEntry
	selected string
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Render replaces the entries with rs, in order. Selection survives only
// if the selected id is still present.
func (l *List) Render(rs model.ResultSet) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]ListEntry, len(rs))
	keep := false
	for i, r := range rs {
		l.entries[i] = ListEntry{
			ID:          r.ID,
			Name:        r.Name,
			Category:    r.Category,
			Description: r.Description,
			Coords:      r.Coordinates().Short(),
			Icon:        model.IconFor(r.Category),
		}
		if r.ID == l.selected {
			keep = true
		}
	}
	if !keep {
		l.selected = ""
	}
}

// Select marks entry id as selected. It reports false if id is not listed.
func (l *List) Select(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ID == id {
			l.selected = id
			return true
		}
	}
	return false
}

// Entries returns a copy of the entries.
func (l *List) Entries() []ListEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ListEntry, len(l.entries))
	copy(out, l.entries)
	for i := range out {
		out[i].Selected = out[i].ID == l.selected
	}
	return out
}

// Count returns the number of entries.
func (l *List) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
