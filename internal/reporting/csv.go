package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"northbound-factor-lab/internal/domain"
)

// RenderFactorCSV renders the factor table as CSV string.
// NULL cells are empty; NaN and ±Inf are written literally.
func RenderFactorCSV(rows []domain.FactorRow) string {
	var sb strings.Builder

	sb.WriteString("date,date_time,factor,open,high,low,close,volume,amount,return,buy,sell,inflow_tense\n")

	for i := range rows {
		r := &rows[i]
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s\n",
			r.Date,
			r.DateTime.Format("2006-01-02"),
			formatNull(r.Factor),
			futuresCells(r.Futures),
			formatNull(r.Buy),
			formatNull(r.Sell),
			formatNull(r.InflowTense),
		))
	}

	return sb.String()
}

// RenderSignalCSV renders a classified series as CSV string.
func RenderSignalCSV(rows []domain.SignalRow) string {
	var sb strings.Builder

	sb.WriteString("date,factor,buy,sell,inflow_tense,futures_close,sig\n")

	for i := range rows {
		r := &rows[i]
		closeCell := ""
		if r.Futures != nil {
			closeCell = formatFloat(r.Futures.Close)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%d\n",
			r.Date,
			formatNull(r.Factor),
			formatNull(r.Buy),
			formatNull(r.Sell),
			formatNull(r.InflowTense),
			closeCell,
			int(r.Sig),
		))
	}

	return sb.String()
}

// RenderGapCSV renders the gap listing as CSV string.
func RenderGapCSV(gaps []GapRow) string {
	var sb strings.Builder

	sb.WriteString("date,reason\n")
	for _, g := range gaps {
		sb.WriteString(fmt.Sprintf("%s,%s\n", g.Date, g.Reason))
	}

	return sb.String()
}

func futuresCells(f *domain.FuturesDailyRecord) string {
	if f == nil {
		return ",,,,,,"
	}
	return strings.Join([]string{
		formatFloat(f.Open),
		formatFloat(f.High),
		formatFloat(f.Low),
		formatFloat(f.Close),
		formatFloat(f.Volume),
		formatFloat(f.Amount),
		formatFloat(f.Return),
	}, ",")
}

func formatNull(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

// formatFloat uses the shortest exact representation; NaN and ±Inf
// come out as "NaN", "+Inf" and "-Inf".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
