package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/duckdb/duckdb-go/v2"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

const holdingsTable = "connect_holdings"

// StockRecordStore implements storage.StockRecordStore over the connect_holdings table.
type StockRecordStore struct {
	db *sql.DB
}

// NewStockRecordStore creates a new StockRecordStore.
func NewStockRecordStore(db *sql.DB) *StockRecordStore {
	return &StockRecordStore{db: db}
}

// Compile-time interface check.
var _ storage.StockRecordStore = (*StockRecordStore)(nil)

// InsertBulk appends records through the DuckDB appender. Fails entire batch on duplicate.
func (s *StockRecordStore) InsertBulk(ctx context.Context, records []domain.StockDailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	type key struct {
		date domain.TradeDate
		code string
	}
	seen := make(map[key]struct{}, len(records))
	for _, r := range records {
		if r.Code == "" || !r.Date.Valid() {
			return storage.ErrInvalidInput
		}
		k := key{r.Date, r.Code}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, r := range records {
		exists, err := s.exists(ctx, r.Date, r.Code)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get database conn: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(dc any) error {
		driverConn, ok := dc.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver conn type %T", dc)
		}

		appender, err := duckdb.NewAppenderFromConn(driverConn, "", holdingsTable)
		if err != nil {
			return fmt.Errorf("new appender: %w", err)
		}
		closed := false
		defer func() {
			if !closed {
				_ = appender.Close()
			}
		}()

		for _, r := range records {
			if err := appender.AppendRow(int32(r.Date), r.Code, r.Close, r.Amount, r.OI); err != nil {
				return fmt.Errorf("append %s %s: %w", r.Code, r.Date, err)
			}
		}

		closed = true
		if err := appender.Close(); err != nil {
			return fmt.Errorf("close appender: %w", err)
		}
		return nil
	})
}

// GetByDateRange retrieves records within [start, end] (inclusive), ordered by code, date.
func (s *StockRecordStore) GetByDateRange(ctx context.Context, start, end domain.TradeDate) ([]domain.StockDailyRecord, error) {
	query := `
		SELECT trade_date, code, close, amount, oi
		FROM connect_holdings
		WHERE trade_date >= ? AND trade_date <= ?
		ORDER BY code ASC, trade_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, int32(start), int32(end))
	if err != nil {
		return nil, fmt.Errorf("query connect holdings: %w", err)
	}
	defer rows.Close()

	var result []domain.StockDailyRecord
	for rows.Next() {
		var (
			r                domain.StockDailyRecord
			date             int32
			closePx, amt, oi sql.NullFloat64
		)
		if err := rows.Scan(&date, &r.Code, &closePx, &amt, &oi); err != nil {
			return nil, fmt.Errorf("scan connect holding: %w", err)
		}
		r.Date = domain.TradeDate(date)
		r.Close = orNaN(closePx)
		r.Amount = orNaN(amt)
		r.OI = orNaN(oi)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connect holdings: %w", err)
	}
	return result, nil
}

func (s *StockRecordStore) exists(ctx context.Context, date domain.TradeDate, code string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM connect_holdings WHERE trade_date = ? AND code = ?`,
		int32(date), code,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// orNaN maps a SQL NULL to NaN, the value a blank CSV cell decodes to.
func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
