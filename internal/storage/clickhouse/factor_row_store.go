package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

// FactorRowStore implements storage.FactorRowStore using ClickHouse.
type FactorRowStore struct {
	conn *Conn
}

// NewFactorRowStore creates a new FactorRowStore.
func NewFactorRowStore(conn *Conn) *FactorRowStore {
	return &FactorRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FactorRowStore = (*FactorRowStore)(nil)

// UpsertBulk writes rows in a single batch. Rows replace earlier writes of
// the same (instrument, date) once merged; reads use FINAL so the latest
// version is returned right away. Fails entire batch on a repeated date.
func (s *FactorRowStore) UpsertBulk(ctx context.Context, instrument string, rows []domain.FactorRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" {
		return storage.ErrInvalidInput
	}

	seen := make(map[domain.TradeDate]struct{}, len(rows))
	for _, r := range rows {
		if _, exists := seen[r.Date]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Date] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO factor_rows (
			instrument, trade_date, date_time, factor,
			has_futures, futures_open, futures_high, futures_low, futures_close,
			futures_volume, futures_amount, futures_return,
			buy, sell, inflow_tense, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := rowVersion()
	for _, r := range rows {
		var hasFutures uint8
		var open, high, low, closePx, volume, amount, ret *float64
		if f := r.Futures; f != nil {
			hasFutures = 1
			open, high, low, closePx = &f.Open, &f.High, &f.Low, &f.Close
			volume, amount, ret = &f.Volume, &f.Amount, &f.Return
		}

		err = batch.Append(
			instrument, uint32(r.Date), r.DateTime, r.Factor.Ptr(),
			hasFutures, open, high, low, closePx,
			volume, amount, ret,
			r.Buy.Ptr(), r.Sell.Ptr(), r.InflowTense.Ptr(), version,
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

// GetByDateRange retrieves rows within [start, end] (inclusive), ordered by date ASC.
func (s *FactorRowStore) GetByDateRange(ctx context.Context, instrument string, start, end domain.TradeDate) ([]domain.FactorRow, error) {
	query := `
		SELECT
			trade_date, date_time, factor,
			has_futures, futures_open, futures_high, futures_low, futures_close,
			futures_volume, futures_amount, futures_return,
			buy, sell, inflow_tense
		FROM factor_rows FINAL
		WHERE instrument = ? AND trade_date >= ? AND trade_date <= ?
		ORDER BY trade_date ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument, uint32(start), uint32(end))
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanFactorRows(rows)
}

func scanFactorRows(rows chRows) ([]domain.FactorRow, error) {
	var result []domain.FactorRow

	for rows.Next() {
		var (
			r                        domain.FactorRow
			date                     uint32
			dateTime                 time.Time
			hasFutures               uint8
			factor, buy, sell, ratio *float64
			open, high, low, closePx *float64
			volume, amount, ret      *float64
		)

		err := rows.Scan(
			&date, &dateTime, &factor,
			&hasFutures, &open, &high, &low, &closePx,
			&volume, &amount, &ret,
			&buy, &sell, &ratio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan factor row: %w", err)
		}

		r.Date = domain.TradeDate(date)
		r.DateTime = dateTime.UTC()
		r.Factor = null.FloatFromPtr(factor)
		r.Buy = null.FloatFromPtr(buy)
		r.Sell = null.FloatFromPtr(sell)
		r.InflowTense = null.FloatFromPtr(ratio)
		if hasFutures == 1 {
			r.Futures = &domain.FuturesDailyRecord{
				Date:   r.Date,
				Open:   null.FloatFromPtr(open).Float64,
				High:   null.FloatFromPtr(high).Float64,
				Low:    null.FloatFromPtr(low).Float64,
				Close:  null.FloatFromPtr(closePx).Float64,
				Volume: null.FloatFromPtr(volume).Float64,
				Amount: null.FloatFromPtr(amount).Float64,
				Return: null.FloatFromPtr(ret).Float64,
			}
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate factor rows: %w", err)
	}
	return result, nil
}
