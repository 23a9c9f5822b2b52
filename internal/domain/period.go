package domain

import "time"

// PeriodType classifies a period as held or not held.
type PeriodType string

const (
	PeriodHeld    PeriodType = "held"
	PeriodNotHeld PeriodType = "not_held"
)

// String returns the string representation of PeriodType.
func (t PeriodType) String() string {
	return string(t)
}

// Period is a maximal contiguous date range during which a strategy's
// aggregate position does not change. Only materialized when
// DurationDays > 0; zero-length spans are dropped.
type Period struct {
	Type         PeriodType
	Start        time.Time
	End          time.Time
	Return       float64 // log-compounded percent over [Start, End]
	DurationDays int     // calendar days End - Start
	Label        string  // "Held 1", "Not Held 2", ... 1-indexed per type
}

// Contains reports whether d falls inside [Start, End], inclusive on
// both ends. Shared endpoints between adjacent periods therefore match
// both; emission order breaks the tie.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// DailyReturn is one classified day of the return series: the day's
// return tagged with the type of the period containing it. Days outside
// every period are excluded from the sequence.
type DailyReturn struct {
	Date        time.Time
	DailyReturn float64
	PeriodType  PeriodType
}
