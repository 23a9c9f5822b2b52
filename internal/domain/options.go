package domain

import "time"

// Default decay windows and filter threshold.
const (
	DefaultSTDays = 20
	DefaultMTDays = 100
	DefaultLTDays = 250

	// DefaultOutlierPct is the magnitude bound on daily returns; rows
	// beyond it are dropped at ingestion as data-quality outliers.
	DefaultOutlierPct = 50.0
)

// Options bundles the evaluation parameters. It replaces process-wide
// constants: callers construct it once and inject it into the pipeline.
type Options struct {
	STDays     int
	MTDays     int
	LTDays     int
	OutlierPct float64

	// Now is the evaluation end-point used to close a trailing open
	// period. Supplied by the caller, never read from a wall clock, so
	// a fixed input plus a fixed instant reproduces identical results.
	Now time.Time
}

// DefaultOptions returns Options with the standard windows and the given
// evaluation instant.
func DefaultOptions(now time.Time) Options {
	return Options{
		STDays:     DefaultSTDays,
		MTDays:     DefaultMTDays,
		LTDays:     DefaultLTDays,
		OutlierPct: DefaultOutlierPct,
		Now:        Day(now),
	}
}
