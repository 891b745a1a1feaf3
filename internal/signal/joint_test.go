package signal

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"northbound-factor-lab/internal/domain"
)

func jointRow(f, ratio float64) domain.FactorRow {
	r := factorRow(20200101, f)
	r.InflowTense = null.FloatFrom(ratio)
	return r
}

func TestClassifyJoint(t *testing.T) {
	tests := []struct {
		name string
		row  domain.FactorRow
		want domain.Signal
	}{
		{name: "both above", row: jointRow(15, 0.05), want: domain.SignalBuy},
		{name: "factor above ratio below upper", row: jointRow(15, 0.01), want: domain.SignalHold},
		{name: "ratio above factor below upper", row: jointRow(5, 0.05), want: domain.SignalHold},
		{name: "both below", row: jointRow(-1, -0.05), want: domain.SignalSell},
		{name: "factor below ratio not below", row: jointRow(-1, -0.01), want: domain.SignalHold},
		{name: "ratio below factor at lower", row: jointRow(0, -0.05), want: domain.SignalHold},
		{name: "nan ratio", row: jointRow(15, math.NaN()), want: domain.SignalHold},
		{name: "inf ratio", row: jointRow(15, math.Inf(1)), want: domain.SignalHold},
		{name: "missing ratio", row: factorRow(20200101, 15), want: domain.SignalHold},
		{name: "missing factor", row: domain.FactorRow{Date: 20200101, InflowTense: null.FloatFrom(-1)}, want: domain.SignalHold},
	}

	p := DefaultJointParams()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyJoint([]domain.FactorRow{tt.row}, p)
			assert.Equal(t, tt.want, got[0].Sig)
		})
	}
}

func TestJointParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultJointParams().Validate())
	assert.Error(t, JointParams{FactorUpper: 0, FactorLower: 1}.Validate())
	assert.Error(t, JointParams{RatioUpper: -1, RatioLower: 1}.Validate())
}

func TestClassify_FirstMatchWins(t *testing.T) {
	always := func(*domain.FactorRow) bool { return true }
	rules := []Rule{
		{Signal: domain.SignalSell, Match: always},
		{Signal: domain.SignalBuy, Match: always},
	}

	got := Classify([]domain.FactorRow{factorRow(20200101, 1)}, rules)
	assert.Equal(t, domain.SignalSell, got[0].Sig)
	assert.Empty(t, Classify(nil, rules))
}
