package domain

import "time"

// NorthFlowRecord is the market-wide northbound buy/sell turnover for one day.
type NorthFlowRecord struct {
	DateTime time.Time
	Buy      float64
	Sell     float64
}
