// Package signal classifies factor table rows into buy/sell/hold signals.
//
// Classification is a pure row-wise function: each row is matched against an
// ordered rule list, first match wins, and rows matching nothing hold.
// No state is carried between rows.
package signal

import "northbound-factor-lab/internal/domain"

// Rule emits Signal when Match holds for a row.
type Rule struct {
	Signal domain.Signal
	Match  func(r *domain.FactorRow) bool
}

// Classify applies rules to every row and returns new signal rows in input order.
func Classify(rows []domain.FactorRow, rules []Rule) []domain.SignalRow {
	result := make([]domain.SignalRow, len(rows))
	for i := range rows {
		result[i] = domain.SignalRow{FactorRow: rows[i], Sig: classifyRow(&rows[i], rules)}
	}
	return result
}

func classifyRow(r *domain.FactorRow, rules []Rule) domain.Signal {
	for _, rule := range rules {
		if rule.Match(r) {
			return rule.Signal
		}
	}
	return domain.SignalHold
}
