package reporting

import (
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/summary"
)

// Report is the performance analysis for one results set.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	Dataset       string
	TickerCount   int
	StrategyCount int
	TotalRows     int

	// All rows, sorted by ticker then strategy.
	Results []domain.PerformanceRow

	// Cross-strategy analysis.
	Summary *summary.Summary
}
