package domain

import "time"

// PriceObservation is one raw daily close for a ticker.
// Source of truth for return computation; one per (ticker, date).
// Corresponds to the prices table in ClickHouse.
type PriceObservation struct {
	Ticker string
	Date   time.Time // UTC midnight
	Close  float64
}

// ReturnObservation is one filtered daily return, derived from consecutive
// closes. The first observation of a series carries a 0 return (seed row).
type ReturnObservation struct {
	Ticker      string
	Date        time.Time // UTC midnight
	DailyReturn float64   // percent, e.g. 1.5 for +1.5%
}
