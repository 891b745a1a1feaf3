package signal

import "northbound-factor-lab/internal/domain"

// Adjuster post-processes a raw signal series, e.g. to smooth transitions.
// Implementations must return a new slice and keep every row.
type Adjuster interface {
	Adjust(rows []domain.SignalRow) []domain.SignalRow
}

// PassThrough is the identity Adjuster.
type PassThrough struct{}

// Adjust returns a copy of rows.
func (PassThrough) Adjust(rows []domain.SignalRow) []domain.SignalRow {
	out := make([]domain.SignalRow, len(rows))
	copy(out, rows)
	return out
}

// AdjusterFunc adapts a plain function to Adjuster.
type AdjusterFunc func([]domain.SignalRow) []domain.SignalRow

// Adjust calls f.
func (f AdjusterFunc) Adjust(rows []domain.SignalRow) []domain.SignalRow {
	return f(rows)
}
