package reporting

import (
	"time"

	"northbound-factor-lab/internal/domain"
)

// Report describes one pipeline run over a signal series.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	Parameters RunParameters
	Summary    DataSummary

	// Distribution lists BUY, HOLD, SELL in that order.
	Distribution []SignalCountRow

	Gaps        []GapRow        // ordered by date
	Transitions []TransitionRow // dates where the signal differs from the previous row

	// Inputs lists the digests of the files the run read.
	Inputs []InputDigest
}

// RunParameters is the configuration a run was made with.
type RunParameters struct {
	Instrument string
	Variant    domain.Variant
	StartDate  domain.TradeDate
	EndDate    domain.TradeDate
	Adjuster   string
	Rules      []ParamRow // classifier bounds, in display order
}

// ParamRow is one named classifier bound.
type ParamRow struct {
	Name  string
	Value float64
}

// DataSummary contains row counts over the factor table.
type DataSummary struct {
	TotalRows       int
	RowsWithFactor  int // factor present and finite
	RowsWithFutures int
	RowsWithFlow    int // buy and sell both present
	GapDates        int
	FirstDate       domain.TradeDate
	LastDate        domain.TradeDate
}

// SignalCountRow is the number of rows carrying one signal.
type SignalCountRow struct {
	Signal domain.Signal
	Count  int
	Share  float64 // Count / total rows, 0 for an empty series
}

// GapRow is one date without a usable inflow_tense.
type GapRow struct {
	Date   domain.TradeDate
	Reason string
}

// TransitionRow is a change of signal between consecutive rows.
type TransitionRow struct {
	Date domain.TradeDate
	From domain.Signal
	To   domain.Signal
}

// InputDigest identifies one input file by content.
type InputDigest struct {
	Name   string
	Path   string
	SHA256 string
}
