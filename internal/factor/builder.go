// Package factor builds the daily northbound factor table from constituent
// open-interest data, futures bars and market-wide northbound turnover.
package factor

import (
	"fmt"

	"github.com/rs/zerolog"

	"northbound-factor-lab/internal/domain"
)

// Required columns per input table. Loaders check headers against these.
var (
	StockColumns     = []string{"date", "code", "close", "amount", "oi"}
	FuturesColumns   = []string{"date", "close", "factor"}
	NorthFlowColumns = []string{"date_time", "buy", "sell"}
)

// Result is the output of Builder.Build.
type Result struct {
	Rows []domain.FactorRow // ordered by date

	// Gaps lists dates whose inflow tension is missing or non-finite.
	// The corresponding rows are still present in Rows.
	Gaps []domain.TradeDate
}

// Builder turns raw inputs into a factor table.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a builder that reports data gaps to log.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log}
}

// Build runs the full factor construction:
//  1. per-code deltaOI (first observation 0)
//  2. per-date factor = sum(deltaOI*close) / sum(amount)
//  3. date join with futures (stale futures factor discarded)
//  4. calendar-date join with northbound buy/sell
//  5. inflow_tense = factor / (buy + sell)
//  6. gap report for rows with unusable inflow_tense
//
// Inputs are validated first; any *SchemaError or ErrDuplicateRecord aborts
// before aggregation. Empty inputs give an empty result.
func (b *Builder) Build(
	stocks []domain.StockDailyRecord,
	flows []domain.NorthFlowRecord,
	futures []domain.FuturesDailyRecord,
) (*Result, error) {
	if err := ValidateStocks(stocks); err != nil {
		return nil, err
	}
	if err := ValidateFutures(futures); err != nil {
		return nil, err
	}
	if err := ValidateNorthFlow(flows); err != nil {
		return nil, err
	}

	factors := ComputeDailyFactors(ComputeDeltaOI(stocks))
	rows := JoinNorthFlow(JoinFutures(factors, futures), flows)
	gaps := DataGaps(rows)

	if len(gaps) > 0 {
		dates := make([]string, len(gaps))
		for i, d := range gaps {
			dates[i] = d.String()
		}
		b.log.Warn().
			Int("count", len(gaps)).
			Strs("dates", dates).
			Msg("dates with missing inflow_tense")
	}
	b.log.Debug().
		Int("stock_records", len(stocks)).
		Int("factor_dates", len(factors)).
		Int("rows", len(rows)).
		Msg("factor table built")

	return &Result{Rows: rows, Gaps: gaps}, nil
}

// ValidateStocks checks required fields and the (date, code) uniqueness invariant.
func ValidateStocks(stocks []domain.StockDailyRecord) error {
	type key struct {
		date domain.TradeDate
		code string
	}
	seen := make(map[key]struct{}, len(stocks))
	for i, s := range stocks {
		if s.Code == "" {
			return &SchemaError{Table: "stock", Field: "code", Row: i, Reason: "empty"}
		}
		if !s.Date.Valid() {
			return &SchemaError{Table: "stock", Field: "date", Row: i, Reason: fmt.Sprintf("invalid YYYYMMDD %d", s.Date)}
		}
		k := key{s.Date, s.Code}
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: stock (%s, %s)", ErrDuplicateRecord, s.Date, s.Code)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// ValidateFutures checks dates and one bar per date.
func ValidateFutures(futures []domain.FuturesDailyRecord) error {
	seen := make(map[domain.TradeDate]struct{}, len(futures))
	for i, f := range futures {
		if !f.Date.Valid() {
			return &SchemaError{Table: "futures", Field: "date", Row: i, Reason: fmt.Sprintf("invalid YYYYMMDD %d", f.Date)}
		}
		if _, ok := seen[f.Date]; ok {
			return fmt.Errorf("%w: futures %s", ErrDuplicateRecord, f.Date)
		}
		seen[f.Date] = struct{}{}
	}
	return nil
}

// ValidateNorthFlow checks timestamps and one record per calendar date.
func ValidateNorthFlow(flows []domain.NorthFlowRecord) error {
	seen := make(map[domain.TradeDate]struct{}, len(flows))
	for i, f := range flows {
		if f.DateTime.IsZero() {
			return &SchemaError{Table: "north_flow", Field: "date_time", Row: i, Reason: "zero timestamp"}
		}
		d := domain.TradeDateFromTime(f.DateTime)
		if _, ok := seen[d]; ok {
			return fmt.Errorf("%w: north_flow %s", ErrDuplicateRecord, d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// CheckColumns returns a *SchemaError for the first required column missing
// from header. Matching is exact; callers normalise case and whitespace.
func CheckColumns(table string, header, required []string) error {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	for _, col := range required {
		if _, ok := have[col]; !ok {
			return &SchemaError{Table: table, Field: col, Row: -1, Reason: "missing column"}
		}
	}
	return nil
}
