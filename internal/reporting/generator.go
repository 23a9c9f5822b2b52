// Package reporting produces performance reports from stored results.
package reporting

import (
	"context"
	"time"

	"strategy-perf-lab/internal/storage"
	"strategy-perf-lab/internal/summary"
)

// Generator produces reports from stored results.
type Generator struct {
	resultStore storage.ResultStore
	dataset     string
	topN        int
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore, dataset string) *Generator {
	return &Generator{
		resultStore: resultStore,
		dataset:     dataset,
		topN:        summary.DefaultTopN,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN overrides how many strategies are ranked per ticker.
func (g *Generator) WithTopN(n int) *Generator {
	g.topN = n
	return g
}

// Generate produces a complete report from all stored results.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	rows, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	tickerSet := make(map[string]struct{})
	strategySet := make(map[string]struct{})
	for _, r := range rows {
		tickerSet[r.Ticker] = struct{}{}
		strategySet[r.Strategy] = struct{}{}
	}

	return &Report{
		GeneratedAt:   g.now(),
		Dataset:       g.dataset,
		TickerCount:   len(tickerSet),
		StrategyCount: len(strategySet),
		TotalRows:     len(rows),
		Results:       rows,
		Summary:       summary.Build(rows, g.topN),
	}, nil
}
