package signal

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northbound-factor-lab/internal/domain"
)

func factorRow(date domain.TradeDate, f float64) domain.FactorRow {
	return domain.FactorRow{Date: date, DateTime: date.Time(), Factor: null.FloatFrom(f)}
}

func TestClassifyThreshold_Scenarios(t *testing.T) {
	rows := []domain.FactorRow{
		factorRow(20200101, 65),
		factorRow(20200102, -50),
		factorRow(20200103, 0),
		factorRow(20200106, 60),
		factorRow(20200107, -40),
	}

	got := ClassifyThreshold(rows, DefaultThresholdParams())
	require.Len(t, got, len(rows))

	assert.Equal(t, domain.SignalBuy, got[0].Sig)
	assert.Equal(t, domain.SignalSell, got[1].Sig)
	assert.Equal(t, domain.SignalHold, got[2].Sig)
	assert.Equal(t, domain.SignalHold, got[3].Sig, "boundary is exclusive")
	assert.Equal(t, domain.SignalHold, got[4].Sig, "boundary is exclusive")
	assert.Equal(t, rows[0], got[0].FactorRow)
}

func TestClassifyThreshold_UnusableFactorHolds(t *testing.T) {
	rows := []domain.FactorRow{
		{Date: 20200101},
		factorRow(20200102, math.NaN()),
		factorRow(20200103, math.Inf(1)),
		factorRow(20200106, math.Inf(-1)),
	}

	for _, r := range ClassifyThreshold(rows, DefaultThresholdParams()) {
		assert.Equal(t, domain.SignalHold, r.Sig, "date %s", r.Date)
	}
}

func TestClassifyThreshold_IgnoresInflowTense(t *testing.T) {
	r := factorRow(20200101, 100)
	r.InflowTense = null.FloatFrom(-5)

	got := ClassifyThreshold([]domain.FactorRow{r}, DefaultThresholdParams())
	assert.Equal(t, domain.SignalBuy, got[0].Sig)
}

func TestClassifyThreshold_OrderIndependent(t *testing.T) {
	rows := []domain.FactorRow{
		factorRow(20200101, 70),
		factorRow(20200102, 10),
		factorRow(20200103, -45),
		factorRow(20200106, 61),
		factorRow(20200107, -39),
	}
	reversed := make([]domain.FactorRow, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	bySig := func(out []domain.SignalRow) map[domain.TradeDate]domain.Signal {
		m := make(map[domain.TradeDate]domain.Signal, len(out))
		for _, r := range out {
			m[r.Date] = r.Sig
		}
		return m
	}

	p := DefaultThresholdParams()
	assert.Equal(t, bySig(ClassifyThreshold(rows, p)), bySig(ClassifyThreshold(reversed, p)))
}

func TestClassifyThreshold_CustomParams(t *testing.T) {
	got := ClassifyThreshold([]domain.FactorRow{factorRow(20200101, 0.5)}, ThresholdParams{Upper: 0.1, Lower: -0.1})
	assert.Equal(t, domain.SignalBuy, got[0].Sig)
}

func TestThresholdParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholdParams().Validate())
	assert.Error(t, ThresholdParams{Upper: -1, Lower: 1}.Validate())
}

func TestPassThrough_CopiesRows(t *testing.T) {
	in := ClassifyThreshold([]domain.FactorRow{factorRow(20200101, 65)}, DefaultThresholdParams())

	out := PassThrough{}.Adjust(in)
	require.Equal(t, in, out)

	out[0].Sig = domain.SignalSell
	assert.Equal(t, domain.SignalBuy, in[0].Sig)
}
