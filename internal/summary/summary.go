// Package summary aggregates performance rows across tickers: per-strategy
// averages, rankings, top strategies per ticker, and descriptive statistics.
package summary

import (
	"sort"

	"strategy-perf-lab/internal/domain"
)

// DefaultTopN is how many strategies are kept per ticker.
const DefaultTopN = 3

// StrategyAverage holds a strategy's metrics averaged over all its tickers.
type StrategyAverage struct {
	Strategy         string
	Tickers          int
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

// TickerTop holds the best strategies for one ticker, ranked by short-term
// accuracy.
type TickerTop struct {
	Ticker string
	Rows   []domain.PerformanceRow
}

// FieldStats is a describe-style distribution summary of one metric column.
type FieldStats struct {
	Field  string
	Count  int
	Mean   float64
	Stddev float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Summary is the cross-strategy analysis of a full results set.
type Summary struct {
	TotalRows  int
	Tickers    int
	Strategies int

	// ByAccuracy and ByReturn are the same averages under two orderings.
	ByAccuracy []StrategyAverage
	ByReturn   []StrategyAverage

	TopPerTicker []TickerTop

	Stats []FieldStats
}

// Build computes the summary for a results set. topN bounds the per-ticker
// ranking; topN <= 0 uses DefaultTopN.
func Build(rows []domain.PerformanceRow, topN int) *Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	s := &Summary{TotalRows: len(rows)}
	if len(rows) == 0 {
		return s
	}

	averages := strategyAverages(rows)

	s.Strategies = len(averages)

	s.ByAccuracy = make([]StrategyAverage, len(averages))
	copy(s.ByAccuracy, averages)
	sort.SliceStable(s.ByAccuracy, func(i, j int) bool {
		return s.ByAccuracy[i].STAccuracy > s.ByAccuracy[j].STAccuracy
	})

	s.ByReturn = make([]StrategyAverage, len(averages))
	copy(s.ByReturn, averages)
	sort.SliceStable(s.ByReturn, func(i, j int) bool {
		return s.ByReturn[i].STCumReturn > s.ByReturn[j].STCumReturn
	})

	s.TopPerTicker = topPerTicker(rows, topN)
	s.Tickers = len(s.TopPerTicker)

	s.Stats = describe(rows)

	return s
}

func strategyAverages(rows []domain.PerformanceRow) []StrategyAverage {
	sums := make(map[string]*StrategyAverage)
	for _, r := range rows {
		avg, ok := sums[r.Strategy]
		if !ok {
			avg = &StrategyAverage{Strategy: r.Strategy}
			sums[r.Strategy] = avg
		}
		avg.Tickers++
		avg.STCumReturn += r.STCumReturn
		avg.STAccuracy += r.STAccuracy
		avg.MTCumReturn += r.MTCumReturn
		avg.MTAccuracy += r.MTAccuracy
		avg.LTCumReturn += r.LTCumReturn
		avg.LTAccuracy += r.LTAccuracy
		avg.BHCumReturn += r.BHCumReturn
		avg.BHAccuracy += r.BHAccuracy
		avg.BuyAndHoldReturn += r.BuyAndHoldReturn
	}

	averages := make([]StrategyAverage, 0, len(sums))
	for _, avg := range sums {
		n := float64(avg.Tickers)
		avg.STCumReturn /= n
		avg.STAccuracy /= n
		avg.MTCumReturn /= n
		avg.MTAccuracy /= n
		avg.LTCumReturn /= n
		avg.LTAccuracy /= n
		avg.BHCumReturn /= n
		avg.BHAccuracy /= n
		avg.BuyAndHoldReturn /= n
		averages = append(averages, *avg)
	}

	// Deterministic base order before ranking copies are made.
	sort.Slice(averages, func(i, j int) bool {
		return averages[i].Strategy < averages[j].Strategy
	})

	return averages
}

func topPerTicker(rows []domain.PerformanceRow, topN int) []TickerTop {
	byTicker := make(map[string][]domain.PerformanceRow)
	for _, r := range rows {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	tops := make([]TickerTop, 0, len(tickers))
	for _, t := range tickers {
		tickerRows := byTicker[t]
		sort.SliceStable(tickerRows, func(i, j int) bool {
			return tickerRows[i].STAccuracy > tickerRows[j].STAccuracy
		})
		if len(tickerRows) > topN {
			tickerRows = tickerRows[:topN]
		}
		tops = append(tops, TickerTop{Ticker: t, Rows: tickerRows})
	}

	return tops
}

func describe(rows []domain.PerformanceRow) []FieldStats {
	fields := []struct {
		name string
		get  func(domain.PerformanceRow) float64
	}{
		{"st_accuracy", func(r domain.PerformanceRow) float64 { return r.STAccuracy }},
		{"mt_accuracy", func(r domain.PerformanceRow) float64 { return r.MTAccuracy }},
		{"lt_accuracy", func(r domain.PerformanceRow) float64 { return r.LTAccuracy }},
		{"bh_accuracy", func(r domain.PerformanceRow) float64 { return r.BHAccuracy }},
		{"st_cum_return", func(r domain.PerformanceRow) float64 { return r.STCumReturn }},
		{"mt_cum_return", func(r domain.PerformanceRow) float64 { return r.MTCumReturn }},
		{"lt_cum_return", func(r domain.PerformanceRow) float64 { return r.LTCumReturn }},
		{"bh_cum_return", func(r domain.PerformanceRow) float64 { return r.BHCumReturn }},
		{"buy_and_hold_return", func(r domain.PerformanceRow) float64 { return r.BuyAndHoldReturn }},
	}

	stats := make([]FieldStats, 0, len(fields))
	for _, f := range fields {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = f.get(r)
		}
		stats = append(stats, fieldStats(f.name, values))
	}
	return stats
}

func fieldStats(name string, values []float64) FieldStats {
	n := len(values)
	mean := computeMean(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return FieldStats{
		Field:  name,
		Count:  n,
		Mean:   mean,
		Stddev: computeStddev(values, mean),
		Min:    sorted[0],
		P25:    computePercentile(sorted, 0.25),
		Median: computePercentile(sorted, 0.50),
		P75:    computePercentile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}
