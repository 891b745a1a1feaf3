package reporting

import (
	"math"
	"time"

	"northbound-factor-lab/internal/domain"
)

// Gap reasons, most specific first.
const (
	GapNoFactor        = "factor missing"
	GapNonFiniteFactor = "factor not finite"
	GapNoFlow          = "north flow missing"
	GapZeroFlow        = "north flow turnover is zero"
	GapNonFinite       = "inflow_tense not finite"
)

// Generator builds reports from classified series.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Summarize builds the report for rows. gaps is the builder's gap list;
// dates in gaps that are missing from rows are reported with an empty reason.
func (g *Generator) Summarize(params RunParameters, rows []domain.SignalRow, gaps []domain.TradeDate) *Report {
	byDate := make(map[domain.TradeDate]*domain.SignalRow, len(rows))
	for i := range rows {
		byDate[rows[i].Date] = &rows[i]
	}

	gapRows := make([]GapRow, 0, len(gaps))
	for _, d := range gaps {
		reason := ""
		if r, ok := byDate[d]; ok {
			reason = GapReason(&r.FactorRow)
		}
		gapRows = append(gapRows, GapRow{Date: d, Reason: reason})
	}

	return &Report{
		GeneratedAt:  g.now(),
		Parameters:   params,
		Summary:      summarize(rows, len(gaps)),
		Distribution: distribution(rows),
		Gaps:         gapRows,
		Transitions:  Transitions(rows),
	}
}

// GapReason explains why a row has no usable inflow_tense.
// It returns "" for a usable row.
func GapReason(r *domain.FactorRow) string {
	switch {
	case r.HasUsableInflow():
		return ""
	case !r.Factor.Valid:
		return GapNoFactor
	case !domain.IsFinite(r.Factor):
		return GapNonFiniteFactor
	case !r.Buy.Valid || !r.Sell.Valid:
		return GapNoFlow
	case r.Buy.Float64+r.Sell.Float64 == 0:
		return GapZeroFlow
	default:
		return GapNonFinite
	}
}

// Transitions lists every row whose signal differs from the row before it.
func Transitions(rows []domain.SignalRow) []TransitionRow {
	var out []TransitionRow
	for i := 1; i < len(rows); i++ {
		if rows[i].Sig != rows[i-1].Sig {
			out = append(out, TransitionRow{
				Date: rows[i].Date,
				From: rows[i-1].Sig,
				To:   rows[i].Sig,
			})
		}
	}
	return out
}

func summarize(rows []domain.SignalRow, gaps int) DataSummary {
	s := DataSummary{TotalRows: len(rows), GapDates: gaps}
	if len(rows) > 0 {
		s.FirstDate = rows[0].Date
		s.LastDate = rows[len(rows)-1].Date
	}
	for i := range rows {
		r := &rows[i]
		if r.HasUsableFactor() {
			s.RowsWithFactor++
		}
		if r.Futures != nil {
			s.RowsWithFutures++
		}
		if r.Buy.Valid && r.Sell.Valid {
			s.RowsWithFlow++
		}
	}
	return s
}

func distribution(rows []domain.SignalRow) []SignalCountRow {
	counts := map[domain.Signal]int{}
	for _, r := range rows {
		counts[r.Sig]++
	}

	out := make([]SignalCountRow, 0, 3)
	for _, sig := range []domain.Signal{domain.SignalBuy, domain.SignalHold, domain.SignalSell} {
		row := SignalCountRow{Signal: sig, Count: counts[sig]}
		if len(rows) > 0 {
			row.Share = math.Round(float64(row.Count)/float64(len(rows))*1e4) / 1e4
		}
		out = append(out, row)
	}
	return out
}
