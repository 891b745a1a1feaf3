package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

// FactorRowStore implements storage.FactorRowStore using PostgreSQL.
type FactorRowStore struct {
	pool *Pool
}

// NewFactorRowStore creates a new FactorRowStore.
func NewFactorRowStore(pool *Pool) *FactorRowStore {
	return &FactorRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FactorRowStore = (*FactorRowStore)(nil)

const upsertFactorRowSQL = `
	INSERT INTO factor_rows (
		instrument, trade_date, date_time, factor,
		has_futures, futures_open, futures_high, futures_low, futures_close,
		futures_volume, futures_amount, futures_return,
		buy, sell, inflow_tense
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12,
		$13, $14, $15
	)
	ON CONFLICT (instrument, trade_date) DO UPDATE SET
		date_time      = EXCLUDED.date_time,
		factor         = EXCLUDED.factor,
		has_futures    = EXCLUDED.has_futures,
		futures_open   = EXCLUDED.futures_open,
		futures_high   = EXCLUDED.futures_high,
		futures_low    = EXCLUDED.futures_low,
		futures_close  = EXCLUDED.futures_close,
		futures_volume = EXCLUDED.futures_volume,
		futures_amount = EXCLUDED.futures_amount,
		futures_return = EXCLUDED.futures_return,
		buy            = EXCLUDED.buy,
		sell           = EXCLUDED.sell,
		inflow_tense   = EXCLUDED.inflow_tense,
		created_at     = now()
`

// UpsertBulk writes rows in one transaction, replacing rows already stored
// for the same (instrument, date). Fails entire batch on a repeated date.
func (s *FactorRowStore) UpsertBulk(ctx context.Context, instrument string, rows []domain.FactorRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" {
		return storage.ErrInvalidInput
	}
	dates := make([]domain.TradeDate, len(rows))
	for i, r := range rows {
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

	for _, r := range rows {
		args := append([]any{instrument, int32(r.Date), r.DateTime, nullable(r.Factor)}, futuresArgs(r.Futures)...)
		args = append(args, nullable(r.Buy), nullable(r.Sell), nullable(r.InflowTense))

		if _, err := tx.Exec(ctx, upsertFactorRowSQL, args...); err != nil {
			return fmt.Errorf("upsert factor row %s: %w", r.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDateRange retrieves rows within [start, end] (inclusive), ordered by date ASC.
func (s *FactorRowStore) GetByDateRange(ctx context.Context, instrument string, start, end domain.TradeDate) ([]domain.FactorRow, error) {
	query := `
		SELECT trade_date, date_time, factor,
			has_futures, futures_open, futures_high, futures_low, futures_close,
			futures_volume, futures_amount, futures_return,
			buy, sell, inflow_tense
		FROM factor_rows
		WHERE instrument = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, instrument, int32(start), int32(end))
	if err != nil {
		return nil, fmt.Errorf("query factor rows: %w", err)
	}
	defer rows.Close()

	var result []domain.FactorRow
	for rows.Next() {
		r, err := scanFactorRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate factor rows: %w", err)
	}
	return result, nil
}

func scanFactorRow(row pgx.Row) (domain.FactorRow, error) {
	var (
		r                        domain.FactorRow
		date                     int32
		dateTime                 time.Time
		hasFutures               bool
		factor, buy, sell, ratio *float64
		open, high, low, close   *float64
		volume, amount, ret      *float64
	)

	err := row.Scan(
		&date, &dateTime, &factor,
		&hasFutures, &open, &high, &low, &close,
		&volume, &amount, &ret,
		&buy, &sell, &ratio,
	)
	if err != nil {
		return r, fmt.Errorf("scan factor row: %w", err)
	}

	r.Date = domain.TradeDate(date)
	r.DateTime = dateTime.UTC()
	r.Factor = null.FloatFromPtr(factor)
	r.Buy = null.FloatFromPtr(buy)
	r.Sell = null.FloatFromPtr(sell)
	r.InflowTense = null.FloatFromPtr(ratio)
	if hasFutures {
		r.Futures = &domain.FuturesDailyRecord{
			Date:   r.Date,
			Open:   deref(open),
			High:   deref(high),
			Low:    deref(low),
			Close:  deref(close),
			Volume: deref(volume),
			Amount: deref(amount),
			Return: deref(ret),
		}
	}
	return r, nil
}

// futuresArgs returns has_futures followed by the seven bar columns.
func futuresArgs(f *domain.FuturesDailyRecord) []any {
	if f == nil {
		return []any{false, nil, nil, nil, nil, nil, nil, nil}
	}
	return []any{true, f.Open, f.High, f.Low, f.Close, f.Volume, f.Amount, f.Return}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
