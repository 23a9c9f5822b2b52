package domain

import "time"

// Horizon identifies one of the four position-tracking windows.
type Horizon string

const (
	HorizonBuyHold Horizon = "bh" // cleared only by a sell
	HorizonShort   Horizon = "st" // decays after STDays
	HorizonMedium  Horizon = "mt" // decays after MTDays
	HorizonLong    Horizon = "lt" // decays after LTDays
)

// Horizons lists all horizons in reporting order.
var Horizons = []Horizon{HorizonBuyHold, HorizonShort, HorizonMedium, HorizonLong}

// FlagRow is one date of the flagged daily table: the day's return plus
// the four position flags after decisions and decay are applied.
type FlagRow struct {
	Date        time.Time
	DailyReturn float64
	BH          bool
	ST          bool
	MT          bool
	LT          bool
}

// Flag returns the value of the given horizon's flag.
func (r FlagRow) Flag(h Horizon) bool {
	switch h {
	case HorizonBuyHold:
		return r.BH
	case HorizonShort:
		return r.ST
	case HorizonMedium:
		return r.MT
	case HorizonLong:
		return r.LT
	}
	return false
}

// HorizonStats holds the summed return and accuracy for one horizon.
// CumReturn is the final running sum of flag × daily return.
// Accuracy is the fraction of flagged days with a positive return,
// defined as 0 when no day is flagged.
type HorizonStats struct {
	CumReturn float64
	Accuracy  float64
}
