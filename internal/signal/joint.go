package signal

import (
	"fmt"

	"northbound-factor-lab/internal/domain"
)

// JointParams configures the classifier that needs the factor and the
// inflow tension to agree before emitting a direction.
type JointParams struct {
	FactorUpper float64
	FactorLower float64
	RatioUpper  float64
	RatioLower  float64
}

// DefaultJointParams returns factor 10/0 and ratio 0.03/-0.02.
func DefaultJointParams() JointParams {
	return JointParams{FactorUpper: 10, FactorLower: 0, RatioUpper: 0.03, RatioLower: -0.02}
}

// Validate rejects inverted bands.
func (p JointParams) Validate() error {
	if p.FactorUpper < p.FactorLower {
		return fmt.Errorf("joint factor upper %v below lower %v", p.FactorUpper, p.FactorLower)
	}
	if p.RatioUpper < p.RatioLower {
		return fmt.Errorf("joint ratio upper %v below lower %v", p.RatioUpper, p.RatioLower)
	}
	return nil
}

// JointRules builds the rule list for the joint classifier. Both conditions
// of a branch must hold; rows with an unusable factor or inflow tension
// never match.
func JointRules(p JointParams) []Rule {
	usable := func(r *domain.FactorRow) bool {
		return r.HasUsableFactor() && r.HasUsableInflow()
	}
	return []Rule{
		{Signal: domain.SignalBuy, Match: func(r *domain.FactorRow) bool {
			return usable(r) && r.Factor.Float64 > p.FactorUpper && r.InflowTense.Float64 > p.RatioUpper
		}},
		{Signal: domain.SignalSell, Match: func(r *domain.FactorRow) bool {
			return usable(r) && r.Factor.Float64 < p.FactorLower && r.InflowTense.Float64 < p.RatioLower
		}},
	}
}

// ClassifyJoint marks each row buy when factor > FactorUpper and
// inflow_tense > RatioUpper, sell when factor < FactorLower and
// inflow_tense < RatioLower, hold otherwise.
func ClassifyJoint(rows []domain.FactorRow, p JointParams) []domain.SignalRow {
	return Classify(rows, JointRules(p))
}
