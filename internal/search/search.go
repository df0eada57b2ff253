// Package search filters the location set by free text and category.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/map-explorer/internal/model"
)

// Search returns the records whose name or description contains query
// and whose category matches. query is trimmed and matched
// case-insensitively; an empty query matches everything. category
// "all" (or empty) disables category filtering; any other value must
// match exactly. Input order is preserved and records are never
// modified. An empty result is not an error.
func Search(records []model.LocationRecord, query string, category model.Category) model.ResultSet {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	anyCategory := category == "" || category == model.CategoryAll

	out := make(model.ResultSet, 0, len(records))
	for _, r := range records {
		if !anyCategory && r.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(r.Name), needle) &&
			!strings.Contains(fold.String(r.Description), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories lists the distinct categories present in records, in
// first-seen order.
func Categories(records []model.LocationRecord) []model.Category {
	seen := make(map[model.Category]bool)
	var out []model.Category
	for _, r := range records {
		if seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}
