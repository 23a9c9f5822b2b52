// Package evaluate runs the full decision→position→period→metric pipeline
// for one (ticker, strategy) pair and assembles the StrategyMetrics record.
package evaluate

import (
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/position"
	"strategy-perf-lab/internal/returns"
	"strategy-perf-lab/internal/segment"
)

// Evaluator computes strategy metrics from externally supplied inputs.
// It owns no long-lived state; every call recomputes from scratch, so
// distinct (ticker, strategy) evaluations can run concurrently.
type Evaluator struct {
	opts domain.Options
}

// New creates an Evaluator with the given options.
func New(opts domain.Options) *Evaluator {
	return &Evaluator{opts: opts}
}

// EvaluatePrices builds the return series from raw prices and evaluates.
func (e *Evaluator) EvaluatePrices(prices []domain.PriceObservation, decisions []domain.Decision) *domain.StrategyMetrics {
	return e.Evaluate(returns.Build(prices, e.opts.OutlierPct), decisions)
}

// Evaluate computes one StrategyMetrics record. An empty decision or
// return sequence yields nil: a valid terminal state, not a failure.
func (e *Evaluator) Evaluate(series []domain.ReturnObservation, decisions []domain.Decision) *domain.StrategyMetrics {
	if len(series) == 0 || len(decisions) == 0 {
		return nil
	}

	rows := position.BuildFlagTable(series, decisions, e.opts)
	byHorizon := position.ComputeHorizonStats(rows)

	periods, daily := segment.Segment(decisions, series, e.opts.Now)

	held := 0.0
	for _, p := range periods {
		if p.Type == domain.PeriodHeld {
			held += p.Return
		}
	}

	all := make([]float64, len(series))
	for i, obs := range series {
		all[i] = obs.DailyReturn
	}

	return &domain.StrategyMetrics{
		Ticker:               series[0].Ticker,
		Strategy:             decisions[0].Strategy,
		TradeReturns:         periods,
		DailyReturns:         daily,
		HeldCumulativeReturn: held,
		BuyAndHoldReturn:     returns.Compound(all),
		ByHorizon:            byHorizon,
	}
}
