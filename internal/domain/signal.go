package domain

// Signal is a ternary trading signal.
type Signal int8

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalHold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// IsValid checks if the signal is one of -1, 0, 1.
func (s Signal) IsValid() bool {
	return s == SignalBuy || s == SignalHold || s == SignalSell
}

// Variant names the classifier that produced a signal series.
type Variant string

const (
	VariantThreshold Variant = "threshold"
	VariantJoint     Variant = "joint"
)

// IsValid checks if the variant is known.
func (v Variant) IsValid() bool {
	return v == VariantThreshold || v == VariantJoint
}

// SignalRow is a factor table row with its classification.
type SignalRow struct {
	FactorRow
	Sig Signal
}
