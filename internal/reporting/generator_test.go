package reporting

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northbound-factor-lab/internal/domain"
)

var fixedTime = time.Date(2021, 6, 17, 9, 30, 0, 0, time.UTC)

func signalRow(date domain.TradeDate, factor, buy, sell null.Float, sig domain.Signal) domain.SignalRow {
	r := domain.SignalRow{
		FactorRow: domain.FactorRow{
			Date:     date,
			DateTime: date.Time(),
			Factor:   factor,
			Buy:      buy,
			Sell:     sell,
		},
		Sig: sig,
	}
	if factor.Valid && buy.Valid && sell.Valid {
		r.InflowTense = null.FloatFrom(factor.Float64 / (buy.Float64 + sell.Float64))
	}
	return r
}

func fixtureRows() []domain.SignalRow {
	f := null.FloatFrom
	rows := []domain.SignalRow{
		signalRow(20210104, f(70), f(100), f(100), domain.SignalBuy),
		signalRow(20210105, f(65), f(100), f(100), domain.SignalBuy),
		signalRow(20210106, f(10), null.Float{}, null.Float{}, domain.SignalHold),
		signalRow(20210107, f(-50), f(0), f(0), domain.SignalSell),
		signalRow(20210108, null.Float{}, f(1), f(1), domain.SignalHold),
	}
	rows[0].Futures = &domain.FuturesDailyRecord{Date: 20210104, Close: 6000}
	return rows
}

func TestGenerator_Summarize(t *testing.T) {
	rows := fixtureRows()
	gaps := []domain.TradeDate{20210106, 20210107, 20210108}
	params := RunParameters{Instrument: "IC", Variant: domain.VariantThreshold, StartDate: 20210101, EndDate: 20210131}

	r := NewGenerator().WithClock(func() time.Time { return fixedTime }).Summarize(params, rows, gaps)

	assert.Equal(t, fixedTime, r.GeneratedAt)
	assert.Equal(t, DataSummary{
		TotalRows:       5,
		RowsWithFactor:  4,
		RowsWithFutures: 1,
		RowsWithFlow:    4,
		GapDates:        3,
		FirstDate:       20210104,
		LastDate:        20210108,
	}, r.Summary)

	require.Len(t, r.Distribution, 3)
	assert.Equal(t, SignalCountRow{Signal: domain.SignalBuy, Count: 2, Share: 0.4}, r.Distribution[0])
	assert.Equal(t, SignalCountRow{Signal: domain.SignalHold, Count: 2, Share: 0.4}, r.Distribution[1])
	assert.Equal(t, SignalCountRow{Signal: domain.SignalSell, Count: 1, Share: 0.2}, r.Distribution[2])

	assert.Equal(t, []GapRow{
		{Date: 20210106, Reason: GapNoFlow},
		{Date: 20210107, Reason: GapZeroFlow},
		{Date: 20210108, Reason: GapNoFactor},
	}, r.Gaps)

	assert.Equal(t, []TransitionRow{
		{Date: 20210106, From: domain.SignalBuy, To: domain.SignalHold},
		{Date: 20210107, From: domain.SignalHold, To: domain.SignalSell},
		{Date: 20210108, From: domain.SignalSell, To: domain.SignalHold},
	}, r.Transitions)
}

func TestGenerator_SummarizeEmpty(t *testing.T) {
	r := NewGenerator().Summarize(RunParameters{}, nil, nil)

	assert.Equal(t, 0, r.Summary.TotalRows)
	assert.Empty(t, r.Gaps)
	assert.Empty(t, r.Transitions)
	for _, d := range r.Distribution {
		assert.Zero(t, d.Share)
	}
}

func TestGapReason(t *testing.T) {
	f := null.FloatFrom
	tests := []struct {
		name string
		row  domain.FactorRow
		want string
	}{
		{"usable", domain.FactorRow{Factor: f(1), Buy: f(1), Sell: f(1), InflowTense: f(0.5)}, ""},
		{"no factor", domain.FactorRow{Buy: f(1), Sell: f(1)}, GapNoFactor},
		{"nan factor", domain.FactorRow{Factor: f(math.NaN()), Buy: f(1), Sell: f(1), InflowTense: f(math.NaN())}, GapNonFiniteFactor},
		{"no flow", domain.FactorRow{Factor: f(1)}, GapNoFlow},
		{"zero flow", domain.FactorRow{Factor: f(1), Buy: f(0), Sell: f(0), InflowTense: f(math.Inf(1))}, GapZeroFlow},
		{"offsetting flow", domain.FactorRow{Factor: f(1), Buy: f(math.Inf(1)), Sell: f(math.Inf(-1)), InflowTense: f(math.NaN())}, GapNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GapReason(&tt.row))
		})
	}
}

func TestRenderSignalCSV(t *testing.T) {
	rows := fixtureRows()
	got := RenderSignalCSV(rows)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "date,factor,buy,sell,inflow_tense,futures_close,sig", lines[0])
	assert.Equal(t, "20210104,70,100,100,0.35,6000,1", lines[1])
	assert.Equal(t, "20210106,10,,,,,0", lines[3])
	assert.Equal(t, "20210107,-50,0,0,-Inf,,-1", lines[4])
	assert.Equal(t, "20210108,,1,1,,,0", lines[5])
}

func TestRenderFactorCSV(t *testing.T) {
	rows := []domain.FactorRow{
		{
			Date: 20210104, DateTime: domain.TradeDate(20210104).Time(),
			Factor:  null.FloatFrom(0.22),
			Futures: &domain.FuturesDailyRecord{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Amount: 15, Return: -0.01},
			Buy:     null.FloatFrom(1), Sell: null.FloatFrom(1), InflowTense: null.FloatFrom(0.11),
		},
		{Date: 20210105, DateTime: domain.TradeDate(20210105).Time(), Factor: null.FloatFrom(math.NaN())},
	}

	got := RenderFactorCSV(rows)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "20210104,2021-01-04,0.22,1,2,0.5,1.5,10,15,-0.01,1,1,0.11", lines[1])
	assert.Equal(t, "20210105,2021-01-05,NaN,,,,,,,,,,", lines[2])
	for _, l := range lines {
		assert.Equal(t, 12, strings.Count(l, ","), l)
	}
}

func TestRenderGapCSV(t *testing.T) {
	got := RenderGapCSV([]GapRow{{Date: 20210106, Reason: GapNoFlow}})
	assert.Equal(t, "date,reason\n20210106,north flow missing\n", got)
}

func TestRenderMarkdown(t *testing.T) {
	rows := fixtureRows()
	params := RunParameters{
		Instrument: "IC",
		Variant:    domain.VariantThreshold,
		StartDate:  20210101,
		EndDate:    20210131,
		Adjuster:   "pass-through",
		Rules:      []ParamRow{{Name: "upper", Value: 60}, {Name: "lower", Value: -40}},
	}
	r := NewGenerator().WithClock(func() time.Time { return fixedTime }).
		Summarize(params, rows, []domain.TradeDate{20210106})
	r.RunID = "abc123"
	r.Inputs = []InputDigest{{Name: "stocks", Path: "data/stocks.csv", SHA256: "deadbeef"}}

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Northbound Factor Report",
		"Generated: 2021-06-17T09:30:00Z",
		"Instrument: IC | Variant: threshold",
		"| upper | 60 |",
		"| lower | -40 |",
		"| Adjuster | pass-through |",
		"| Rows | 5 |",
		"| BUY | 2 | 40.00% |",
		"| 20210106 | north flow missing |",
		"| 20210107 | HOLD | SELL |",
		"Run ID: `abc123`",
		"| stocks | data/stocks.csv | `deadbeef` |",
	} {
		assert.Contains(t, md, want)
	}
}

func TestRenderMarkdown_NoGaps(t *testing.T) {
	r := NewGenerator().Summarize(RunParameters{Variant: domain.VariantJoint}, nil, nil)
	md := RenderMarkdown(r)

	assert.Contains(t, md, "No data gaps.")
	assert.Contains(t, md, "No signal transitions.")
	assert.Contains(t, md, "No input digests recorded.")
}
