package factor

import (
	"sort"

	"github.com/guregu/null/v6"

	"northbound-factor-lab/internal/domain"
)

// JoinFutures joins the daily factor series with futures bars on the date key.
//
// Every futures bar and every factor date yields exactly one row, ordered by
// date. A bar with no factor gets an invalid Factor; a factor date with no
// bar gets a nil Futures. The bars' own Factor slot is zeroed in the copies
// so the stale upstream value cannot be mistaken for the computed one.
func JoinFutures(factors []domain.DailyFactor, futures []domain.FuturesDailyRecord) []domain.FactorRow {
	factorByDate := make(map[domain.TradeDate]float64, len(factors))
	dates := make(map[domain.TradeDate]struct{}, len(factors)+len(futures))
	for _, f := range factors {
		factorByDate[f.Date] = f.Factor
		dates[f.Date] = struct{}{}
	}

	futuresByDate := make(map[domain.TradeDate]*domain.FuturesDailyRecord, len(futures))
	for i := range futures {
		bar := futures[i]
		bar.Factor = 0
		futuresByDate[bar.Date] = &bar
		dates[bar.Date] = struct{}{}
	}

	ordered := make([]domain.TradeDate, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	rows := make([]domain.FactorRow, len(ordered))
	for i, d := range ordered {
		rows[i] = domain.FactorRow{
			Date:     d,
			DateTime: d.Time(),
			Futures:  futuresByDate[d],
		}
		if f, ok := factorByDate[d]; ok {
			rows[i].Factor = null.FloatFrom(f)
		}
	}
	return rows
}

// JoinNorthFlow left-joins buy/sell turnover onto rows by calendar date of
// DateTime and derives InflowTense. Rows without a flow record keep invalid
// Buy, Sell and InflowTense. Rows are returned as new copies in input order.
func JoinNorthFlow(rows []domain.FactorRow, flows []domain.NorthFlowRecord) []domain.FactorRow {
	flowByDate := make(map[domain.TradeDate]domain.NorthFlowRecord, len(flows))
	for _, f := range flows {
		flowByDate[domain.TradeDateFromTime(f.DateTime)] = f
	}

	result := make([]domain.FactorRow, len(rows))
	for i, r := range rows {
		if f, ok := flowByDate[domain.TradeDateFromTime(r.DateTime)]; ok {
			r.Buy = null.FloatFrom(f.Buy)
			r.Sell = null.FloatFrom(f.Sell)
		}
		r.InflowTense = InflowTense(r.Factor, r.Buy, r.Sell)
		result[i] = r
	}
	return result
}

// InflowTense returns factor / (buy + sell). The result is invalid when any
// operand is invalid, and NaN or ±Inf when buy + sell is zero.
func InflowTense(factor, buy, sell null.Float) null.Float {
	if !factor.Valid || !buy.Valid || !sell.Valid {
		return null.Float{}
	}
	return null.FloatFrom(factor.Float64 / (buy.Float64 + sell.Float64))
}

// DataGaps lists the dates whose InflowTense is missing or non-finite,
// in row order. Such rows cannot feed signal generation but stay in the table.
func DataGaps(rows []domain.FactorRow) []domain.TradeDate {
	var gaps []domain.TradeDate
	for i := range rows {
		if !rows[i].HasUsableInflow() {
			gaps = append(gaps, rows[i].Date)
		}
	}
	return gaps
}
