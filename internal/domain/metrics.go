package domain

// StrategyMetrics is the full evaluation result for one (ticker, strategy)
// pair. Entirely derived; recomputed from scratch on every evaluation.
type StrategyMetrics struct {
	Ticker   string
	Strategy string

	// TradeReturns is the ordered sequence of materialized periods.
	TradeReturns []Period

	// DailyReturns is the date-ordered classified daily series.
	DailyReturns []DailyReturn

	// HeldCumulativeReturn is the sum of returns over held periods.
	HeldCumulativeReturn float64

	// BuyAndHoldReturn is the log-compounded return over the entire
	// series, independent of any decision. Passive baseline; distinct
	// from the decision-gated bh horizon.
	BuyAndHoldReturn float64

	// ByHorizon holds cumulative return and accuracy per horizon.
	ByHorizon map[Horizon]HorizonStats
}

// Row flattens the metrics into the persisted/reported record shape.
func (m *StrategyMetrics) Row() PerformanceRow {
	return PerformanceRow{
		Ticker:           m.Ticker,
		Strategy:         m.Strategy,
		STCumReturn:      m.ByHorizon[HorizonShort].CumReturn,
		STAccuracy:       m.ByHorizon[HorizonShort].Accuracy,
		MTCumReturn:      m.ByHorizon[HorizonMedium].CumReturn,
		MTAccuracy:       m.ByHorizon[HorizonMedium].Accuracy,
		LTCumReturn:      m.ByHorizon[HorizonLong].CumReturn,
		LTAccuracy:       m.ByHorizon[HorizonLong].Accuracy,
		BHCumReturn:      m.ByHorizon[HorizonBuyHold].CumReturn,
		BHAccuracy:       m.ByHorizon[HorizonBuyHold].Accuracy,
		BuyAndHoldReturn: m.BuyAndHoldReturn,
	}
}

// PerformanceRow is the flat per-(ticker, strategy) record written to the
// results CSV and the result stores. Column order follows the CSV layout.
type PerformanceRow struct {
	Ticker           string
	Strategy         string
	STCumReturn      float64
	STAccuracy       float64
	MTCumReturn      float64
	MTAccuracy       float64
	LTCumReturn      float64
	LTAccuracy       float64
	BHCumReturn      float64
	BHAccuracy       float64
	BuyAndHoldReturn float64
}
