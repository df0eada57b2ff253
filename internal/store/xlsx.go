package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/map-explorer/internal/model"
)

// XLSXLoader reads locations from a workbook sheet whose first row names
// the columns id, name, lat, lng, category, description and optionally
// image. Column order is free; blank rows are skipped.
type XLSXLoader struct {
	Path      string
	SheetName string // if empty, the first sheet is used
}

var requiredColumns = []string{"id", "name", "lat", "lng", "category"}

// Load implements Loader.
func (l XLSXLoader) Load(ctx context.Context) ([]model.LocationRecord, error) {
	f, err := xlsx.OpenFile(l.Path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	var sheet *xlsx.Sheet
	if l.SheetName != "" {
		s, ok := f.Sheet[l.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", l.SheetName)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.New("xlsx: workbook has no sheets")
		}
		sheet = f.Sheets[0]
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: sheet is empty")
	}

	cols := make(map[string]int)
	for i, cell := range sheet.Rows[0].Cells {
		cols[strings.ToLower(strings.TrimSpace(cell.String()))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("xlsx: missing column %q", name)
		}
	}

	var records []model.LocationRecord
	for n, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i].String())
		}
		if cell("id") == "" && cell("name") == "" {
			continue
		}

		lat, err := strconv.ParseFloat(cell("lat"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: row %d lat", n+2)
		}
		lng, err := strconv.ParseFloat(cell("lng"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: row %d lng", n+2)
		}

		records = append(records, model.LocationRecord{
			ID:          cell("id"),
			Name:        cell("name"),
			Lat:         lat,
			Lng:         lng,
			Category:    model.Category(cell("category")),
			Description: cell("description"),
			Image:       cell("image"),
		})
	}
	return records, nil
}
