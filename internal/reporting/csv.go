package reporting

import (
	"fmt"
	"strings"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/summary"
)

// RenderResultsCSV renders performance rows as CSV string, one row per
// (ticker, strategy).
func RenderResultsCSV(rows []domain.PerformanceRow) string {
	var sb strings.Builder

	sb.WriteString("ticker,strategy,st_cum_return,st_accuracy,mt_cum_return,mt_accuracy,")
	sb.WriteString("lt_cum_return,lt_accuracy,bh_cum_return,bh_accuracy,buy_and_hold_return\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.Ticker,
			r.Strategy,
			r.STCumReturn,
			r.STAccuracy,
			r.MTCumReturn,
			r.MTAccuracy,
			r.LTCumReturn,
			r.LTAccuracy,
			r.BHCumReturn,
			r.BHAccuracy,
			r.BuyAndHoldReturn,
		))
	}

	return sb.String()
}

// RenderStrategyAveragesCSV renders per-strategy averages as CSV string.
func RenderStrategyAveragesCSV(averages []summary.StrategyAverage) string {
	var sb strings.Builder

	sb.WriteString("strategy,tickers,st_cum_return,st_accuracy,mt_cum_return,mt_accuracy,")
	sb.WriteString("lt_cum_return,lt_accuracy,bh_cum_return,bh_accuracy,buy_and_hold_return\n")

	for _, a := range averages {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			a.Strategy,
			a.Tickers,
			a.STCumReturn,
			a.STAccuracy,
			a.MTCumReturn,
			a.MTAccuracy,
			a.LTCumReturn,
			a.LTAccuracy,
			a.BHCumReturn,
			a.BHAccuracy,
			a.BuyAndHoldReturn,
		))
	}

	return sb.String()
}

// RenderTopPerTickerCSV renders the per-ticker strategy ranking as CSV string.
func RenderTopPerTickerCSV(tops []summary.TickerTop) string {
	var sb strings.Builder

	sb.WriteString("ticker,rank,strategy,st_accuracy,st_cum_return,buy_and_hold_return\n")

	for _, top := range tops {
		for i, r := range top.Rows {
			sb.WriteString(fmt.Sprintf("%s,%d,%s,%.6f,%.6f,%.6f\n",
				top.Ticker, i+1, r.Strategy, r.STAccuracy, r.STCumReturn, r.BuyAndHoldReturn))
		}
	}

	return sb.String()
}
