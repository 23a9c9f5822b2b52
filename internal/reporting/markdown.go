package reporting

import (
	"fmt"
	"strings"
	"time"
)

// rankedLimit caps the strategy ranking tables.
const rankedLimit = 20

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Strategy Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Dataset != "" {
		sb.WriteString(fmt.Sprintf("Dataset: %s\n\n", r.Dataset))
	}
	sb.WriteString(fmt.Sprintf("Tickers: %d | Strategies: %d | Rows: %d\n\n",
		r.TickerCount, r.StrategyCount, r.TotalRows))

	if r.Summary == nil || r.TotalRows == 0 {
		sb.WriteString("No results available.\n")
		return sb.String()
	}

	// Strategies by short-term accuracy
	sb.WriteString("## Strategies Ranked by Short-Term Accuracy\n\n")
	sb.WriteString("| Strategy | Tickers | ST Acc | ST Return | MT Acc | LT Acc | B&H Return |\n")
	sb.WriteString("|----------|---------|--------|-----------|--------|--------|------------|\n")
	for i, a := range r.Summary.ByAccuracy {
		if i == rankedLimit {
			break
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.2f | %.4f | %.4f | %.2f |\n",
			a.Strategy, a.Tickers, a.STAccuracy, a.STCumReturn,
			a.MTAccuracy, a.LTAccuracy, a.BuyAndHoldReturn))
	}
	sb.WriteString("\n")

	// Strategies by short-term cumulative return
	sb.WriteString("## Strategies Ranked by Short-Term Cumulative Return\n\n")
	sb.WriteString("| Strategy | Tickers | ST Return | ST Acc | MT Return | LT Return |\n")
	sb.WriteString("|----------|---------|-----------|--------|-----------|----------|\n")
	for i, a := range r.Summary.ByReturn {
		if i == rankedLimit {
			break
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f | %.2f | %.2f |\n",
			a.Strategy, a.Tickers, a.STCumReturn, a.STAccuracy,
			a.MTCumReturn, a.LTCumReturn))
	}
	sb.WriteString("\n")

	// Top strategies per ticker
	sb.WriteString("## Top Strategies Per Ticker\n\n")
	if len(r.Summary.TopPerTicker) > 0 {
		sb.WriteString("| Ticker | Rank | Strategy | ST Acc | ST Return | B&H Return |\n")
		sb.WriteString("|--------|------|----------|--------|-----------|------------|\n")
		for _, top := range r.Summary.TopPerTicker {
			for i, row := range top.Rows {
				sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.4f | %.2f | %.2f |\n",
					top.Ticker, i+1, row.Strategy, row.STAccuracy,
					row.STCumReturn, row.BuyAndHoldReturn))
			}
		}
	} else {
		sb.WriteString("No per-ticker rankings available.\n")
	}
	sb.WriteString("\n")

	// Summary statistics
	sb.WriteString("## Summary Statistics\n\n")
	sb.WriteString("| Field | Count | Mean | Stddev | Min | P25 | Median | P75 | Max |\n")
	sb.WriteString("|-------|-------|------|--------|-----|-----|--------|-----|-----|\n")
	for _, f := range r.Summary.Stats {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			f.Field, f.Count, f.Mean, f.Stddev, f.Min, f.P25, f.Median, f.P75, f.Max))
	}
	sb.WriteString("\n")

	return sb.String()
}
