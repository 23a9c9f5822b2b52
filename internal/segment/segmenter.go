// Package segment converts position transitions into discrete held and
// not-held intervals with compounded returns, and classifies every daily
// return into the interval containing it. Both outputs derive from one
// boundary pass so they cannot fall out of sync.
package segment

import (
	"fmt"
	"sort"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/returns"
)

// Segment walks the decision stream against the return series and returns
// the labeled period list and the per-day classification.
//
// The boundary set is built in one chronological pass:
//   - a leading not_held boundary covers [data_start, first_decision) when
//     the series starts before the first decision;
//   - each decision closes the running boundary at its date, typed by the
//     position held BEFORE the decision is applied;
//   - a trailing held boundary closes at now when the last decision leaves
//     the position open.
//
// Boundaries with zero calendar-day duration are dropped before any period
// is materialized. With no decisions at all, the whole series becomes one
// not_held period. Inert (non buy/sell) decisions never move a boundary.
func Segment(decisions []domain.Decision, series []domain.ReturnObservation, now time.Time) ([]domain.Period, []domain.DailyReturn) {
	if len(series) == 0 {
		return nil, nil
	}

	ordered := make([]domain.ReturnObservation, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	bounds := buildBoundaries(decisions, ordered, domain.Day(now))
	periods := materialize(bounds, ordered)
	daily := classify(periods, ordered)
	return periods, daily
}

type boundary struct {
	typ        domain.PeriodType
	start, end time.Time
}

func buildBoundaries(decisions []domain.Decision, ordered []domain.ReturnObservation, now time.Time) []boundary {
	dataStart := ordered[0].Date

	var active []domain.Decision
	for _, d := range decisions {
		if d.Action.IsValid() {
			active = append(active, d)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Date.Before(active[j].Date)
	})

	if len(active) == 0 {
		// No position was ever taken: the whole series is one span.
		return []boundary{{typ: domain.PeriodNotHeld, start: dataStart, end: ordered[len(ordered)-1].Date}}
	}

	var bounds []boundary

	firstDecision := domain.Day(active[0].Date)
	if firstDecision.After(dataStart) {
		bounds = append(bounds, boundary{typ: domain.PeriodNotHeld, start: dataStart, end: firstDecision})
	}

	held := false
	lastChange := firstDecision
	for _, d := range active {
		date := domain.Day(d.Date)
		if date.After(lastChange) {
			typ := domain.PeriodNotHeld
			if held {
				typ = domain.PeriodHeld
			}
			bounds = append(bounds, boundary{typ: typ, start: lastChange, end: date})
		}
		held = d.Action == domain.ActionBuy
		lastChange = date
	}

	if held && now.After(lastChange) {
		bounds = append(bounds, boundary{typ: domain.PeriodHeld, start: lastChange, end: now})
	}

	return bounds
}

// materialize drops zero-duration boundaries, compounds each survivor's
// return over series dates in [start, end] inclusive, and assigns
// 1-indexed labels per type in emission order.
func materialize(bounds []boundary, ordered []domain.ReturnObservation) []domain.Period {
	var periods []domain.Period
	counts := map[domain.PeriodType]int{}

	for _, b := range bounds {
		duration := domain.DaysBetween(b.start, b.end)
		if duration <= 0 {
			continue
		}

		var daily []float64
		for _, obs := range ordered {
			if obs.Date.Before(b.start) {
				continue
			}
			if obs.Date.After(b.end) {
				break
			}
			daily = append(daily, obs.DailyReturn)
		}

		counts[b.typ]++
		label := fmt.Sprintf("Not Held %d", counts[b.typ])
		if b.typ == domain.PeriodHeld {
			label = fmt.Sprintf("Held %d", counts[b.typ])
		}

		periods = append(periods, domain.Period{
			Type:         b.typ,
			Start:        b.start,
			End:          b.end,
			Return:       returns.Compound(daily),
			DurationDays: duration,
			Label:        label,
		})
	}

	return periods
}

// classify tags each series date with the type of the first materialized
// period containing it. Period ends are non-decreasing in emission order,
// so a binary search over ends finds the earliest candidate; the earlier
// period wins a shared endpoint, matching a linear first-match scan. Dates
// outside every period are excluded.
func classify(periods []domain.Period, ordered []domain.ReturnObservation) []domain.DailyReturn {
	if len(periods) == 0 {
		return nil
	}

	var daily []domain.DailyReturn
	for _, obs := range ordered {
		i := sort.Search(len(periods), func(i int) bool {
			return !periods[i].End.Before(obs.Date)
		})
		if i == len(periods) || !periods[i].Contains(obs.Date) {
			continue
		}
		daily = append(daily, domain.DailyReturn{
			Date:        obs.Date,
			DailyReturn: obs.DailyReturn,
			PeriodType:  periods[i].Type,
		})
	}

	return daily
}
