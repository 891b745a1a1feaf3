package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using ClickHouse.
type SignalStore struct {
	conn *Conn
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(conn *Conn) *SignalStore {
	return &SignalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// UpsertBulk writes a series in a single batch, replacing earlier writes of
// the same (instrument, variant, date). Fails entire batch on a repeated date.
func (s *SignalStore) UpsertBulk(ctx context.Context, instrument string, variant domain.Variant, rows []domain.SignalRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" || !variant.IsValid() {
		return storage.ErrInvalidInput
	}

	seen := make(map[domain.TradeDate]struct{}, len(rows))
	for _, r := range rows {
		if !r.Sig.IsValid() {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Date]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Date] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO signals (
			instrument, variant, trade_date, date_time,
			factor, buy, sell, inflow_tense, sig, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := rowVersion()
	for _, r := range rows {
		err = batch.Append(
			instrument, string(variant), uint32(r.Date), r.DateTime,
			r.Factor.Ptr(), r.Buy.Ptr(), r.Sell.Ptr(), r.InflowTense.Ptr(),
			int8(r.Sig), version,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByVariant retrieves a series ordered by date ASC. Returns ErrNotFound if empty.
func (s *SignalStore) GetByVariant(ctx context.Context, instrument string, variant domain.Variant) ([]domain.SignalRow, error) {
	query := `
		SELECT trade_date, date_time, factor, buy, sell, inflow_tense, sig
		FROM signals FINAL
		WHERE instrument = ? AND variant = ?
		ORDER BY trade_date ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument, string(variant))
	if err != nil {
		return nil, fmt.Errorf("query by variant: %w", err)
	}
	defer rows.Close()

	var result []domain.SignalRow
	for rows.Next() {
		var (
			r                        domain.SignalRow
			date                     uint32
			dateTime                 time.Time
			factor, buy, sell, ratio *float64
			sig                      int8
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
