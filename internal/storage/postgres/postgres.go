// Package postgres implements the export stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool and pings it.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// uniqueDates returns ErrDuplicateKey if a date repeats. ON CONFLICT would
// otherwise let the later row silently win inside one batch.
func uniqueDates(dates []domain.TradeDate) error {
	seen := make(map[domain.TradeDate]struct{}, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			return storage.ErrDuplicateKey
		}
		seen[d] = struct{}{}
	}
	return nil
}

// nullable converts between null.Float and the *float64 pgx binds to
// DOUBLE PRECISION NULL columns. NaN and ±Inf are stored as-is.
func nullable(v null.Float) *float64 {
	return v.Ptr()
}
