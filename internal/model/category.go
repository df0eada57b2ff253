package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category classifies a location. The set is open: values outside the
// known constants are valid and render with the fallback icon.
type Category string

const (
	CategoryLandmark   Category = "landmark"
	CategoryPark       Category = "park"
	CategoryMuseum     Category = "museum"
	CategoryRestaurant Category = "restaurant"
	CategoryCurrent    Category = "current"

	// CategoryAll is the filter value that disables category matching.
	CategoryAll Category = "all"
)

// Icon is the marker styling for a category.
type Icon struct {
	Color string `json:"color"`
	Glyph string `json:"glyph"`
}

// FallbackIcon styles categories without a dedicated icon, including
// geocoded search results rendered outside the palette.
var FallbackIcon = Icon{Color: "#667eea", Glyph: "📌"}

// CurrentIcon styles the current-location pin.
var CurrentIcon = Icon{Color: "#9b59b6", Glyph: "📍"}

var palette = map[Category]Icon{
	CategoryLandmark:   {Color: "#e74c3c", Glyph: "🏛️"},
	CategoryPark:       {Color: "#27ae60", Glyph: "🌳"},
	CategoryMuseum:     {Color: "#3498db", Glyph: "🏛️"},
	CategoryRestaurant: {Color: "#f39c12", Glyph: "🍽️"},
	CategoryCurrent:    CurrentIcon,
}

// IconFor returns the icon for a category. It never fails.
func IconFor(c Category) Icon {
	if icon, ok := palette[c]; ok {
		return icon
	}
	return FallbackIcon
}

// KnownCategories returns the categories with a dedicated icon, in the
// order the category selector lists them.
func KnownCategories() []Category {
	return []Category{CategoryLandmark, CategoryPark, CategoryMuseum, CategoryRestaurant}
}

// Label is the human-readable name shown in the category selector.
func (c Category) Label() string {
	if c == CategoryAll {
		return "All Categories"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}
