package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/map-explorer/internal/model"
)

// Pool is the subset of pgxpool.Pool the loader needs. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads locations from a Postgres table.
type PostgresLoader struct {
	pool    Pool
	closeFn func()
}

// NewPostgresLoader connects a small pool to connString.
func NewPostgresLoader(ctx context.Context, connString string) (*PostgresLoader, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	// Only a single startup read goes through this pool.
	pgxCfg.MaxConns = 2
	pgxCfg.MinConns = 0
	pgxCfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresLoader{pool: pool, closeFn: pool.Close}, nil
}

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context) ([]model.LocationRecord, error) {
	rows, err := l.pool.Query(ctx, locationsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query locations")
	}
	defer rows.Close()

	var records []model.LocationRecord
	for rows.Next() {
		r, err := scanLocation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan location")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate locations")
	}
	return records, nil
}

// Close releases the pool.
func (l *PostgresLoader) Close() {
	if l.closeFn != nil {
		l.closeFn()
	}
}
