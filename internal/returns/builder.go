// Package returns converts raw price observations into a deduplicated,
// outlier-filtered daily return series, and provides the log-compounding
// helper shared by the segmenter and aggregator.
package returns

import (
	"math"
	"sort"

	"strategy-perf-lab/internal/domain"
)

// Build transforms price observations for one ticker into a return series.
// Input may be unordered and may contain duplicate dates.
//
// Steps: stable sort by date ASC, drop duplicate dates keeping the first
// occurrence by original ordering, compute percent change of consecutive
// closes, drop rows with |return| > outlierPct. The first row survives as
// a 0-return seed so its date stays addressable by the state machine.
// Empty input yields empty output; no error conditions exist.
func Build(prices []domain.PriceObservation, outlierPct float64) []domain.ReturnObservation {
	if len(prices) == 0 {
		return nil
	}

	sorted := make([]domain.PriceObservation, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// Dedupe keeps the first occurrence; stable sort preserves original
	// ordering within equal dates.
	deduped := sorted[:0]
	for _, p := range sorted {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(p.Date) {
			continue
		}
		deduped = append(deduped, p)
	}

	series := make([]domain.ReturnObservation, 0, len(deduped))
	for i, p := range deduped {
		r := 0.0
		if i > 0 && deduped[i-1].Close != 0 {
			r = (p.Close/deduped[i-1].Close - 1) * 100
		}
		if i > 0 && math.Abs(r) > outlierPct {
			continue
		}
		series = append(series, domain.ReturnObservation{
			Ticker:      p.Ticker,
			Date:        p.Date,
			DailyReturn: r,
		})
	}

	return series
}

// Compound converts daily percent returns into a single multi-day percent
// return via log compounding: (exp(Σ ln(1+r/100)) - 1) × 100. NaN returns
// contribute 0 to the sum, matching the missing-as-zero convention.
func Compound(daily []float64) float64 {
	sum := 0.0
	for _, r := range daily {
		if math.IsNaN(r) {
			continue
		}
		sum += math.Log(1 + r/100)
	}
	return (math.Exp(sum) - 1) * 100
}
