package domain

// FuturesDailyRecord is one externally adjusted futures bar.
type FuturesDailyRecord struct {
	Date   TradeDate
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Amount float64
	Return float64

	// Factor is a reserved slot carried by upstream tables. The factor
	// builder discards it and never reads its value.
	Factor float64
}
