// Package position implements the multi-horizon position state machine:
// it expands a sparse decision stream into four daily boolean position
// flags governed by decay windows, and computes per-horizon statistics.
package position

import (
	"sort"
	"time"

	"strategy-perf-lab/internal/domain"
)

// BuildFlagTable produces one FlagRow per return-series date, in date
// order, carrying the four position flags alongside the daily return.
//
// Decisions are left-joined on date: at most one action governs state per
// date (the first state-changing action wins when duplicates exist).
// Walking strictly in date order:
//   - buy: st=mt=lt=1 and last_buy_date=date; bh=1 only on the first buy
//     ever observed for the strategy.
//   - sell: all four flags and last_buy_date cleared.
//   - no decision: each horizon decays independently once calendar days
//     since the last buy exceed its own window. bh never decays.
//
// The flags are not ordered pointwise (bh >= st >= mt >= lt does not
// hold after independent decay).
func BuildFlagTable(series []domain.ReturnObservation, decisions []domain.Decision, opts domain.Options) []domain.FlagRow {
	if len(series) == 0 {
		return nil
	}

	actionByDate := make(map[time.Time]domain.Action, len(decisions))
	for _, d := range decisions {
		if !d.Action.IsValid() {
			continue
		}
		day := domain.Day(d.Date)
		if _, ok := actionByDate[day]; !ok {
			actionByDate[day] = d.Action
		}
	}

	ordered := make([]domain.ReturnObservation, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var (
		bh, st, mt, lt bool
		lastBuy        *time.Time
	)

	rows := make([]domain.FlagRow, 0, len(ordered))
	for _, obs := range ordered {
		date := domain.Day(obs.Date)

		switch actionByDate[date] {
		case domain.ActionBuy:
			if lastBuy == nil {
				bh = true
			}
			st, mt, lt = true, true, true
			d := date
			lastBuy = &d
		case domain.ActionSell:
			bh, st, mt, lt = false, false, false, false
			lastBuy = nil
		default:
			if lastBuy != nil {
				since := domain.DaysBetween(*lastBuy, date)
				if since > opts.STDays {
					st = false
				}
				if since > opts.MTDays {
					mt = false
				}
				if since > opts.LTDays {
					lt = false
				}
			}
		}

		rows = append(rows, domain.FlagRow{
			Date:        date,
			DailyReturn: obs.DailyReturn,
			BH:          bh,
			ST:          st,
			MT:          mt,
			LT:          lt,
		})
	}

	return rows
}

// ComputeHorizonStats computes, per horizon, the final running sum of
// flag × daily return and the positive-day accuracy over flagged days.
// Accuracy is 0 when no day carries the flag.
func ComputeHorizonStats(rows []domain.FlagRow) map[domain.Horizon]domain.HorizonStats {
	stats := make(map[domain.Horizon]domain.HorizonStats, len(domain.Horizons))

	for _, h := range domain.Horizons {
		var cum float64
		flagged, positive := 0, 0
		for _, row := range rows {
			if !row.Flag(h) {
				continue
			}
			cum += row.DailyReturn
			flagged++
			if row.DailyReturn > 0 {
				positive++
			}
		}

		acc := 0.0
		if flagged > 0 {
			acc = float64(positive) / float64(flagged)
		}
		stats[h] = domain.HorizonStats{CumReturn: cum, Accuracy: acc}
	}

	return stats
}
