// Package storage declares the stores the pipeline reads stock records from
// and exports factor tables and signal series to.
package storage

import (
	"context"

	"northbound-factor-lab/internal/domain"
)

// StockRecordStore provides access to connect-eligible constituent records.
type StockRecordStore interface {
	// InsertBulk adds records atomically. Fails the entire batch with
	// ErrDuplicateKey if any (date, code) already exists or repeats in the batch.
	InsertBulk(ctx context.Context, records []domain.StockDailyRecord) error

	// GetByDateRange retrieves records within [start, end] (inclusive),
	// ordered by code ASC, date ASC.
	GetByDateRange(ctx context.Context, start, end domain.TradeDate) ([]domain.StockDailyRecord, error)
}

// FactorRowStore provides access to built factor tables, keyed by (instrument, date).
type FactorRowStore interface {
	// UpsertBulk writes rows atomically, replacing stored rows with the same
	// date. Fails the entire batch with ErrDuplicateKey if a date repeats
	// within rows.
	UpsertBulk(ctx context.Context, instrument string, rows []domain.FactorRow) error

	// GetByDateRange retrieves rows within [start, end] (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, instrument string, start, end domain.TradeDate) ([]domain.FactorRow, error)
}

// SignalStore provides access to classified signal series, keyed by
// (instrument, variant, date).
type SignalStore interface {
	// UpsertBulk writes rows atomically, replacing stored rows with the same
	// date. Fails the entire batch with ErrDuplicateKey if a date repeats
	// within rows.
	UpsertBulk(ctx context.Context, instrument string, variant domain.Variant, rows []domain.SignalRow) error

	// GetByVariant retrieves a full series ordered by date ASC.
	GetByVariant(ctx context.Context, instrument string, variant domain.Variant) ([]domain.SignalRow, error)
}
