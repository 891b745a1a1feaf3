package domain

// StockDailyRecord is one connect-eligible constituent on one trading day.
// At most one record exists per (Date, Code).
type StockDailyRecord struct {
	Date   TradeDate // trading day
	Code   string    // stock identifier
	Close  float64   // closing price
	Amount float64   // traded value
	OI     float64   // connect holding (open interest)
}

// DeltaOIRecord is a StockDailyRecord with the day-over-day OI change.
// DeltaOI is 0 for the first observation of a code.
type DeltaOIRecord struct {
	StockDailyRecord
	DeltaOI float64
}
