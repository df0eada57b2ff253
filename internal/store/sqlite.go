package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/map-explorer/internal/model"
)

// locationsQuery reads the location table in display order. Both SQL
// loaders expect the same schema:
//
//	CREATE TABLE locations (
//		id          TEXT PRIMARY KEY,
//		position    INTEGER NOT NULL,
//		name        TEXT NOT NULL,
//		lat         DOUBLE PRECISION NOT NULL,
//		lng         DOUBLE PRECISION NOT NULL,
//		category    TEXT NOT NULL,
//		description TEXT NOT NULL DEFAULT '',
//		image       TEXT
//	);
const locationsQuery = `SELECT id, name, lat, lng, category, description, COALESCE(image, '') FROM locations ORDER BY position, id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (model.LocationRecord, error) {
	var (
		r        model.LocationRecord
		category string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng, &category, &r.Description, &r.Image); err != nil {
		return model.LocationRecord{}, err
	}
	r.Category = model.Category(category)
	return r, nil
}

// SQLiteLoader reads locations from a SQLite database file.
type SQLiteLoader struct {
	DSN string
}

// Load implements Loader.
func (l SQLiteLoader) Load(ctx context.Context) ([]model.LocationRecord, error) {
	db, err := sql.Open("sqlite", l.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	defer db.Close() //nolint:errcheck
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA query_only=ON"); err != nil {
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA query_only")
	}

	rows, err := db.QueryContext(ctx, locationsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query locations")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.LocationRecord
	for rows.Next() {
		r, err := scanLocation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate locations")
	}
	return records, nil
}
