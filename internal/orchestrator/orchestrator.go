// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: load tickers → evaluate (ticker, strategy) pairs → store results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/evaluate"
	"strategy-perf-lab/internal/observability"
	"strategy-perf-lab/internal/storage"
)

// defaultWorkers bounds pair evaluation concurrency when Options.Workers
// is unset.
const defaultWorkers = 4

// Orchestrator coordinates the evaluation pipeline.
// Flow: ticker discovery → per-pair evaluation → result persistence.
type Orchestrator struct {
	priceStore    storage.PriceStore
	decisionStore storage.DecisionStore
	resultStore   storage.ResultStore

	evalOpts domain.Options
	workers  int
	verbose  bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	PriceStore    storage.PriceStore
	DecisionStore storage.DecisionStore
	ResultStore   storage.ResultStore

	// Evaluation parameters
	EvalOptions domain.Options

	// Workers bounds how many (ticker, strategy) pairs evaluate at once.
	Workers int
	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		priceStore:    opts.PriceStore,
		decisionStore: opts.DecisionStore,
		resultStore:   opts.ResultStore,
		evalOpts:      opts.EvalOptions,
		workers:       workers,
		verbose:       opts.Verbose,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	TickersProcessed int
	PairsEvaluated   int
	PairsSkipped     int
	ResultsStored    int
	Rows             []domain.PerformanceRow
	Errors           []string
}

// pair is one unit of evaluation work.
type pair struct {
	ticker   string
	strategy string
}

// Run executes the full evaluation pipeline.
// Phases:
//  1. Discover tickers that have decisions
//  2. Evaluate every (ticker, strategy) pair with bounded workers
//  3. Persist the resulting performance rows
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	// Phase 1: Discover tickers
	o.log("phase 1: discovering tickers")
	pairs, tickerCount, err := o.loadPairs(ctx)
	if err != nil {
		observability.RecordPipelineRun("evaluate", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("phase 1 (discover tickers) failed: %w", err)
	}
	result.TickersProcessed = tickerCount
	o.log("found %d tickers, %d pairs", tickerCount, len(pairs))

	if len(pairs) == 0 {
		observability.RecordPipelineRun("evaluate", "success", time.Since(start).Seconds())
		return result, nil
	}

	// Phase 2: Evaluate pairs
	o.log("phase 2: evaluating pairs")
	rows, skipped, evalErrs := o.runEvaluations(ctx, pairs)
	result.PairsEvaluated = len(rows)
	result.PairsSkipped = skipped
	result.Rows = rows
	result.Errors = append(result.Errors, evalErrs...)
	o.log("evaluated %d pairs, skipped %d (%d errors)", len(rows), skipped, len(evalErrs))

	// Phase 3: Persist results
	o.log("phase 3: storing results")
	stored, storeErrs := o.storeResults(ctx, rows)
	result.ResultsStored = stored
	result.Errors = append(result.Errors, storeErrs...)
	o.log("stored %d results (%d errors)", stored, len(storeErrs))

	status := "success"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	observability.RecordPipelineRun("evaluate", status, time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulPipeline.Set(float64(time.Now().Unix()))

	log.Info().
		Int("tickers", result.TickersProcessed).
		Int("evaluated", result.PairsEvaluated).
		Int("stored", result.ResultsStored).
		Int("errors", len(result.Errors)).
		Msg("pipeline completed")

	return result, nil
}

// loadPairs enumerates every (ticker, strategy) pair with stored decisions.
func (o *Orchestrator) loadPairs(ctx context.Context) ([]pair, int, error) {
	tickers, err := o.decisionStore.Tickers(ctx)
	if err != nil {
		return nil, 0, err
	}

	var pairs []pair
	for _, ticker := range tickers {
		decisions, err := o.decisionStore.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, 0, fmt.Errorf("load decisions for %s: %w", ticker, err)
		}
		seen := make(map[string]struct{})
		for _, d := range decisions {
			if _, ok := seen[d.Strategy]; ok {
				continue
			}
			seen[d.Strategy] = struct{}{}
			pairs = append(pairs, pair{ticker: ticker, strategy: d.Strategy})
		}
	}
	return pairs, len(tickers), nil
}

// runEvaluations evaluates all pairs with a bounded worker pool. Pairs
// with no usable price or decision data are skipped, not errored.
func (o *Orchestrator) runEvaluations(ctx context.Context, pairs []pair) ([]domain.PerformanceRow, int, []string) {
	evaluator := evaluate.New(o.evalOpts)

	jobs := make(chan pair)
	var mu sync.Mutex
	var rows []domain.PerformanceRow
	var skipped int
	var errs []string

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				row, ok, err := o.evaluatePair(ctx, evaluator, p)
				mu.Lock()
				switch {
				case err != nil:
					errs = append(errs, fmt.Sprintf("evaluate %s/%s: %v", p.ticker, p.strategy, err))
				case !ok:
					skipped++
				default:
					rows = append(rows, row)
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range pairs {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	// Workers finish out of order; restore the store ordering.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Strategy < rows[j].Strategy
	})

	return rows, skipped, errs
}

// evaluatePair runs one (ticker, strategy) evaluation. The second return
// is false when the pair has no computable metrics.
func (o *Orchestrator) evaluatePair(ctx context.Context, evaluator *evaluate.Evaluator, p pair) (domain.PerformanceRow, bool, error) {
	start := time.Now()

	prices, err := o.priceStore.GetByTicker(ctx, p.ticker)
	if err != nil {
		observability.RecordEvaluation(p.strategy, "error", time.Since(start).Seconds())
		return domain.PerformanceRow{}, false, fmt.Errorf("load prices: %w", err)
	}

	decisions, err := o.decisionStore.GetByTickerStrategy(ctx, p.ticker, p.strategy)
	if err != nil {
		observability.RecordEvaluation(p.strategy, "error", time.Since(start).Seconds())
		return domain.PerformanceRow{}, false, fmt.Errorf("load decisions: %w", err)
	}

	metrics := evaluator.EvaluatePrices(prices, decisions)
	if metrics == nil {
		observability.RecordEvaluation(p.strategy, "skipped", time.Since(start).Seconds())
		return domain.PerformanceRow{}, false, nil
	}

	observability.RecordEvaluation(p.strategy, "success", time.Since(start).Seconds())
	observability.DefaultMetrics.ResultsComputed.Inc()
	return metrics.Row(), true, nil
}

// storeResults inserts rows one at a time so an already stored pair does
// not fail the rest of the run.
func (o *Orchestrator) storeResults(ctx context.Context, rows []domain.PerformanceRow) (int, []string) {
	var stored int
	var errs []string

	for _, row := range rows {
		if err := o.resultStore.Insert(ctx, row); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			errs = append(errs, fmt.Sprintf("store %s/%s: %v", row.Ticker, row.Strategy, err))
			continue
		}
		stored++
	}
	return stored, errs
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Info().Msgf("[orchestrator] "+format, args...)
	}
}
