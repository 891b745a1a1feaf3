package domain

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// DailyFactor is the aggregate northbound factor for one trading day.
// Factor may be NaN or ±Inf when the day's turnover sums to zero.
type DailyFactor struct {
	Date   TradeDate
	Factor float64
}

// FactorRow is one row of the factor table.
//
// Nullable columns use null.Float: an invalid value means the join found
// no source row, a valid non-finite value means a zero denominator.
type FactorRow struct {
	Date        TradeDate
	DateTime    time.Time           // Date at midnight UTC, the flow join key
	Factor      null.Float          // invalid when no stock rows exist for Date
	Futures     *FuturesDailyRecord // nil when no futures bar exists for Date
	Buy         null.Float
	Sell        null.Float
	InflowTense null.Float // Factor / (Buy + Sell)
}

// HasUsableFactor reports whether Factor is present and finite.
func (r *FactorRow) HasUsableFactor() bool {
	return IsFinite(r.Factor)
}

// HasUsableInflow reports whether InflowTense is present and finite.
func (r *FactorRow) HasUsableInflow() bool {
	return IsFinite(r.InflowTense)
}

// IsFinite reports whether v is valid and neither NaN nor ±Inf.
func IsFinite(v null.Float) bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}
