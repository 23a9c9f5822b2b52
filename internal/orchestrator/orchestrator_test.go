package orchestrator

import (
	"context"
	"testing"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage/memory"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

// testStores holds all memory stores for testing.
type testStores struct {
	priceStore    *memory.PriceStore
	decisionStore *memory.DecisionStore
	resultStore   *memory.ResultStore
}

func createTestStores() *testStores {
	return &testStores{
		priceStore:    memory.NewPriceStore(),
		decisionStore: memory.NewDecisionStore(),
		resultStore:   memory.NewResultStore(),
	}
}

func (s *testStores) orchestrator(workers int) *Orchestrator {
	return New(Options{
		PriceStore:    s.priceStore,
		DecisionStore: s.decisionStore,
		ResultStore:   s.resultStore,
		EvalOptions:   domain.DefaultOptions(day(30)),
		Workers:       workers,
	})
}

func seedTicker(t *testing.T, s *testStores, ticker string, strategies ...string) {
	t.Helper()
	ctx := context.Background()

	prices := make([]domain.PriceObservation, 0, 10)
	for d := 1; d <= 10; d++ {
		prices = append(prices, domain.PriceObservation{Ticker: ticker, Date: day(d), Close: 100.0 + float64(d)})
	}
	if err := s.priceStore.InsertBulk(ctx, prices); err != nil {
		t.Fatalf("insert prices: %v", err)
	}

	var decisions []domain.Decision
	for _, strategy := range strategies {
		decisions = append(decisions,
			domain.Decision{Ticker: ticker, Strategy: strategy, Date: day(2), Action: domain.ActionBuy},
			domain.Decision{Ticker: ticker, Strategy: strategy, Date: day(7), Action: domain.ActionSell},
		)
	}
	if err := s.decisionStore.InsertBulk(ctx, decisions); err != nil {
		t.Fatalf("insert decisions: %v", err)
	}
}

func TestOrchestrator_Run_Empty(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	result, err := stores.orchestrator(2).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.TickersProcessed != 0 {
		t.Errorf("expected 0 tickers, got %d", result.TickersProcessed)
	}
	if result.PairsEvaluated != 0 {
		t.Errorf("expected 0 pairs, got %d", result.PairsEvaluated)
	}
	if result.ResultsStored != 0 {
		t.Errorf("expected 0 stored, got %d", result.ResultsStored)
	}
}

func TestOrchestrator_Run_EvaluatesAllPairs(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTicker(t, stores, "AAPL", "momentum", "reversal")
	seedTicker(t, stores, "MSFT", "momentum")

	result, err := stores.orchestrator(2).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.TickersProcessed != 2 {
		t.Errorf("expected 2 tickers, got %d", result.TickersProcessed)
	}
	if result.PairsEvaluated != 3 {
		t.Errorf("expected 3 pairs evaluated, got %d", result.PairsEvaluated)
	}
	if result.ResultsStored != 3 {
		t.Errorf("expected 3 results stored, got %d", result.ResultsStored)
	}

	stored, err := stores.resultStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored rows, got %d", len(stored))
	}
	if stored[0].Ticker != "AAPL" || stored[0].Strategy != "momentum" {
		t.Errorf("unexpected first row: %s/%s", stored[0].Ticker, stored[0].Strategy)
	}
	if stored[2].Ticker != "MSFT" {
		t.Errorf("unexpected last row ticker: %s", stored[2].Ticker)
	}
}

func TestOrchestrator_Run_RowsSorted(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTicker(t, stores, "MSFT", "momentum")
	seedTicker(t, stores, "AAPL", "reversal", "momentum")

	result, err := stores.orchestrator(4).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := []pair{
		{"AAPL", "momentum"},
		{"AAPL", "reversal"},
		{"MSFT", "momentum"},
	}
	if len(result.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(result.Rows))
	}
	for i, w := range want {
		if result.Rows[i].Ticker != w.ticker || result.Rows[i].Strategy != w.strategy {
			t.Errorf("row %d: got %s/%s, want %s/%s",
				i, result.Rows[i].Ticker, result.Rows[i].Strategy, w.ticker, w.strategy)
		}
	}
}

func TestOrchestrator_Run_SkipsPairsWithoutPrices(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	// Decisions but no prices for this ticker.
	decisions := []domain.Decision{
		{Ticker: "GOOG", Strategy: "momentum", Date: day(2), Action: domain.ActionBuy},
	}
	if err := stores.decisionStore.InsertBulk(ctx, decisions); err != nil {
		t.Fatalf("insert decisions: %v", err)
	}

	result, err := stores.orchestrator(1).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.PairsEvaluated != 0 {
		t.Errorf("expected 0 pairs evaluated, got %d", result.PairsEvaluated)
	}
	if result.PairsSkipped != 1 {
		t.Errorf("expected 1 pair skipped, got %d", result.PairsSkipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

func TestOrchestrator_Run_SkipsExistingResults(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTicker(t, stores, "AAPL", "momentum")

	orch := stores.orchestrator(1)
	if _, err := orch.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run evaluates again but stores nothing new.
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.PairsEvaluated != 1 {
		t.Errorf("expected 1 pair evaluated, got %d", result.PairsEvaluated)
	}
	if result.ResultsStored != 0 {
		t.Errorf("expected 0 new results, got %d", result.ResultsStored)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

func TestOrchestrator_DefaultWorkers(t *testing.T) {
	orch := New(Options{Workers: 0})
	if orch.workers != defaultWorkers {
		t.Errorf("expected %d workers, got %d", defaultWorkers, orch.workers)
	}
}
