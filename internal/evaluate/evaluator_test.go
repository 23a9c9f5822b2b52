package evaluate

import (
	"math"
	"testing"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/returns"
)

func day(n int) time.Time {
	return domain.Date(2024, time.January, n)
}

func series(n int, rets ...float64) []domain.ReturnObservation {
	out := make([]domain.ReturnObservation, n)
	for i := 0; i < n; i++ {
		r := 0.0
		if i > 0 && len(rets) > 0 {
			r = rets[(i-1)%len(rets)]
		}
		out[i] = domain.ReturnObservation{Ticker: "BTC", Date: day(i + 1), DailyReturn: r}
	}
	return out
}

func decision(n int, action domain.Action) domain.Decision {
	return domain.Decision{Ticker: "BTC", Strategy: "breakout", Date: day(n), Action: action}
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	e := New(domain.DefaultOptions(day(10)))

	if m := e.Evaluate(nil, []domain.Decision{decision(1, domain.ActionBuy)}); m != nil {
		t.Error("Empty return series should yield an absent record")
	}
	if m := e.Evaluate(series(5, 1.0), nil); m != nil {
		t.Error("Empty decision stream should yield an absent record")
	}
}

func TestEvaluate_BuyAndHoldRoundTrip(t *testing.T) {
	// Holding from the first date with no sell makes the single held
	// period's compounded return equal the full-series buy-and-hold
	// return: the compounding identity.
	s := series(15, 1.2, -0.4, 0.7)
	e := New(domain.DefaultOptions(day(20)))

	m := e.Evaluate(s, []domain.Decision{decision(1, domain.ActionBuy)})
	if m == nil {
		t.Fatal("Expected a metrics record")
	}

	if len(m.TradeReturns) != 1 {
		t.Fatalf("Expected a single held period, got %d", len(m.TradeReturns))
	}
	p := m.TradeReturns[0]
	if p.Type != domain.PeriodHeld {
		t.Fatalf("Expected held period, got %s", p.Type)
	}
	if math.Abs(p.Return-m.BuyAndHoldReturn) > 1e-9 {
		t.Errorf("Held period return %f != buy-and-hold return %f", p.Return, m.BuyAndHoldReturn)
	}
	if math.Abs(m.HeldCumulativeReturn-m.BuyAndHoldReturn) > 1e-9 {
		t.Errorf("Held cumulative %f != buy-and-hold %f", m.HeldCumulativeReturn, m.BuyAndHoldReturn)
	}
}

func TestEvaluate_NoDecisionsIsAbsentButSegmenterStillCovers(t *testing.T) {
	// The aggregator treats an empty decision stream as a terminal state;
	// a strategy that decided nothing yields no record rather than a
	// zeroed one.
	e := New(domain.DefaultOptions(day(20)))
	if m := e.Evaluate(series(10, 0.5), []domain.Decision{}); m != nil {
		t.Error("No decisions should yield an absent record")
	}
}

func TestEvaluate_HeldCumulativeSumsHeldPeriodsOnly(t *testing.T) {
	s := series(30, 1.0)
	decisions := []domain.Decision{
		decision(5, domain.ActionBuy),
		decision(10, domain.ActionSell),
		decision(20, domain.ActionBuy),
		decision(25, domain.ActionSell),
	}
	e := New(domain.DefaultOptions(day(40)))

	m := e.Evaluate(s, decisions)
	if m == nil {
		t.Fatal("Expected a metrics record")
	}

	want := 0.0
	heldCount := 0
	for _, p := range m.TradeReturns {
		if p.Type == domain.PeriodHeld {
			want += p.Return
			heldCount++
		}
	}
	if heldCount != 2 {
		t.Fatalf("Expected 2 held periods, got %d", heldCount)
	}
	if math.Abs(m.HeldCumulativeReturn-want) > 1e-12 {
		t.Errorf("HeldCumulativeReturn = %f, want %f", m.HeldCumulativeReturn, want)
	}
}

func TestEvaluatePrices_FullPipeline(t *testing.T) {
	prices := []domain.PriceObservation{
		{Ticker: "BTC", Date: day(1), Close: 100},
		{Ticker: "BTC", Date: day(2), Close: 101},
		{Ticker: "BTC", Date: day(3), Close: 99},
		{Ticker: "BTC", Date: day(4), Close: 104},
	}
	e := New(domain.DefaultOptions(day(10)))

	m := e.EvaluatePrices(prices, []domain.Decision{decision(1, domain.ActionBuy)})
	if m == nil {
		t.Fatal("Expected a metrics record")
	}
	if m.Ticker != "BTC" || m.Strategy != "breakout" {
		t.Errorf("Record mislabeled: %s/%s", m.Ticker, m.Strategy)
	}

	// Buy-and-hold over closes 100 → 104 is +4%.
	if math.Abs(m.BuyAndHoldReturn-4.0) > 1e-9 {
		t.Errorf("BuyAndHoldReturn = %f, want 4.0", m.BuyAndHoldReturn)
	}
}

func TestRow_FlattensHorizons(t *testing.T) {
	m := &domain.StrategyMetrics{
		Ticker:           "BTC",
		Strategy:         "breakout",
		BuyAndHoldReturn: 12.5,
		ByHorizon: map[domain.Horizon]domain.HorizonStats{
			domain.HorizonShort:   {CumReturn: 3.5, Accuracy: 0.6},
			domain.HorizonMedium:  {CumReturn: 7.1, Accuracy: 0.55},
			domain.HorizonLong:    {CumReturn: 9.0, Accuracy: 0.52},
			domain.HorizonBuyHold: {CumReturn: 11.0, Accuracy: 0.51},
		},
	}

	row := m.Row()
	if row.STCumReturn != 3.5 || row.STAccuracy != 0.6 {
		t.Errorf("st columns wrong: %+v", row)
	}
	if row.BHCumReturn != 11.0 || row.BuyAndHoldReturn != 12.5 {
		t.Errorf("bh columns wrong: %+v", row)
	}
}

func TestEvaluate_CompoundAgreesWithReturnsPackage(t *testing.T) {
	s := series(10, 2.0, -1.0)
	e := New(domain.DefaultOptions(day(15)))

	m := e.Evaluate(s, []domain.Decision{decision(3, domain.ActionBuy)})
	if m == nil {
		t.Fatal("Expected a metrics record")
	}

	all := make([]float64, len(s))
	for i, obs := range s {
		all[i] = obs.DailyReturn
	}
	if math.Abs(m.BuyAndHoldReturn-returns.Compound(all)) > 1e-12 {
		t.Errorf("BuyAndHoldReturn diverges from Compound: %f vs %f", m.BuyAndHoldReturn, returns.Compound(all))
	}
}
