package signal

import (
	"fmt"

	"northbound-factor-lab/internal/domain"
)

// ThresholdParams configures the factor-only classifier.
type ThresholdParams struct {
	Upper float64 // buy when factor > Upper
	Lower float64 // sell when factor < Lower
}

// DefaultThresholdParams returns upper=60, lower=-40.
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{Upper: 60, Lower: -40}
}

// Validate rejects an inverted band.
func (p ThresholdParams) Validate() error {
	if p.Upper < p.Lower {
		return fmt.Errorf("threshold upper %v below lower %v", p.Upper, p.Lower)
	}
	return nil
}

// ThresholdRules builds the rule list for the factor-only classifier.
// Rows with a missing or non-finite factor never match.
func ThresholdRules(p ThresholdParams) []Rule {
	return []Rule{
		{Signal: domain.SignalBuy, Match: func(r *domain.FactorRow) bool {
			return r.HasUsableFactor() && r.Factor.Float64 > p.Upper
		}},
		{Signal: domain.SignalSell, Match: func(r *domain.FactorRow) bool {
			return r.HasUsableFactor() && r.Factor.Float64 < p.Lower
		}},
	}
}

// ClassifyThreshold marks each row buy if factor > Upper, sell if
// factor < Lower, hold otherwise.
func ClassifyThreshold(rows []domain.FactorRow, p ThresholdParams) []domain.SignalRow {
	return Classify(rows, ThresholdRules(p))
}
