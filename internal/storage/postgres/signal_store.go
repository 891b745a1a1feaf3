package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
// Futures bars are not persisted with signals; read them from factor_rows.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// UpsertBulk writes rows in one transaction, replacing rows already stored
// for the same (instrument, variant, date). Fails entire batch on a repeated date.
func (s *SignalStore) UpsertBulk(ctx context.Context, instrument string, variant domain.Variant, rows []domain.SignalRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" || !variant.IsValid() {
		return storage.ErrInvalidInput
	}
	dates := make([]domain.TradeDate, len(rows))
	for i, r := range rows {
		if !r.Sig.IsValid() {
			return storage.ErrInvalidInput
		}
		dates[i] = r.Date
	}
	if err := uniqueDates(dates); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO signals (
			instrument, variant, trade_date, date_time,
			factor, buy, sell, inflow_tense, sig
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (instrument, variant, trade_date) DO UPDATE SET
			date_time    = EXCLUDED.date_time,
			factor       = EXCLUDED.factor,
			buy          = EXCLUDED.buy,
			sell         = EXCLUDED.sell,
			inflow_tense = EXCLUDED.inflow_tense,
			sig          = EXCLUDED.sig,
			created_at   = now()
	`
	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			instrument, string(variant), int32(r.Date), r.DateTime,
			nullable(r.Factor), nullable(r.Buy), nullable(r.Sell), nullable(r.InflowTense),
			int16(r.Sig),
		)
		if err != nil {
			return fmt.Errorf("upsert signal %s: %w", r.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByVariant retrieves a series ordered by date ASC. Returns ErrNotFound if empty.
func (s *SignalStore) GetByVariant(ctx context.Context, instrument string, variant domain.Variant) ([]domain.SignalRow, error) {
	query := `
		SELECT trade_date, date_time, factor, buy, sell, inflow_tense, sig
		FROM signals
		WHERE instrument = $1 AND variant = $2
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, instrument, string(variant))
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var result []domain.SignalRow
	for rows.Next() {
		var (
			r                        domain.SignalRow
			date                     int32
			dateTime                 time.Time
			factor, buy, sell, ratio *float64
			sig                      int16
		)
		if err := rows.Scan(&date, &dateTime, &factor, &buy, &sell, &ratio, &sig); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		r.Date = domain.TradeDate(date)
		r.DateTime = dateTime.UTC()
		r.Factor = null.FloatFromPtr(factor)
		r.Buy = null.FloatFromPtr(buy)
		r.Sell = null.FloatFromPtr(sell)
		r.InflowTense = null.FloatFromPtr(ratio)
		r.Sig = domain.Signal(sig)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}
