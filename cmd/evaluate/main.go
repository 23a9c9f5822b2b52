package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/evaluate"
	"strategy-perf-lab/internal/storage"
	chstore "strategy-perf-lab/internal/storage/clickhouse"
	pgstore "strategy-perf-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	ticker := flag.String("ticker", "", "Ticker to evaluate (required)")
	strategy := flag.String("strategy", "", "Strategy to evaluate (required)")

	// Evaluation parameters
	stDays := flag.Int("st-days", domain.DefaultSTDays, "Short-term decay window (calendar days)")
	mtDays := flag.Int("mt-days", domain.DefaultMTDays, "Medium-term decay window (calendar days)")
	ltDays := flag.Int("lt-days", domain.DefaultLTDays, "Long-term decay window (calendar days)")
	outlierPct := flag.Float64("outlier-pct", domain.DefaultOutlierPct, "Absolute daily return bound (percent)")
	asOf := flag.String("as-of", "", "Evaluation end date (YYYY-MM-DD), defaults to today")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (decisions, results)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (prices)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist the performance row to storage")

	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// Validate required flags
	if *ticker == "" {
		log.Fatal().Msg("--ticker is required")
	}
	if *strategy == "" {
		log.Fatal().Msg("--strategy is required")
	}
	if *postgresDSN == "" {
		log.Fatal().Msg("--postgres-dsn is required (decisions and results)")
	}
	if *clickhouseDSN == "" {
		log.Fatal().Msg("--clickhouse-dsn is required (prices)")
	}

	now := domain.Day(time.Now().UTC())
	if *asOf != "" {
		parsed, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			log.Fatal().Err(err).Msg("parse --as-of")
		}
		now = parsed
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Stringer("signal", sig).Msg("shutting down")
		cancel()
	}()

	// Connect stores
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to clickhouse")
	}
	defer conn.Close()

	priceStore := chstore.NewPriceStore(conn)
	decisionStore := pgstore.NewDecisionStore(pool)

	prices, err := priceStore.GetByTicker(ctx, *ticker)
	if err != nil {
		log.Fatal().Err(err).Str("ticker", *ticker).Msg("load prices")
	}
	decisions, err := decisionStore.GetByTickerStrategy(ctx, *ticker, *strategy)
	if err != nil {
		log.Fatal().Err(err).Str("ticker", *ticker).Msg("load decisions")
	}

	log.Info().
		Str("ticker", *ticker).
		Str("strategy", *strategy).
		Int("prices", len(prices)).
		Int("decisions", len(decisions)).
		Msg("evaluating")

	evaluator := evaluate.New(domain.Options{
		STDays:     *stDays,
		MTDays:     *mtDays,
		LTDays:     *ltDays,
		OutlierPct: *outlierPct,
		Now:        now,
	})

	metrics := evaluator.EvaluatePrices(prices, decisions)
	if metrics == nil {
		log.Fatal().Msg("no computable metrics: empty price or decision series")
	}

	if *persistResult {
		resultStore := pgstore.NewResultStore(pool)
		if err := resultStore.Insert(ctx, metrics.Row()); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Warn().Msg("result already stored")
			} else {
				log.Fatal().Err(err).Msg("store result")
			}
		}
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(metrics.Row(), "", "  ")
		fmt.Println(string(output))
	} else {
		printMetrics(metrics)
	}
}

// printMetrics outputs a human-readable evaluation result.
func printMetrics(m *domain.StrategyMetrics) {
	fmt.Println()
	fmt.Println("=== Evaluation Result ===")
	fmt.Printf("Ticker:             %s\n", m.Ticker)
	fmt.Printf("Strategy:           %s\n", m.Strategy)
	fmt.Println()

	fmt.Println("Horizons:")
	for _, h := range domain.Horizons {
		stats := m.ByHorizon[h]
		fmt.Printf("  %-4s return: %8.2f%%   accuracy: %.4f\n", h, stats.CumReturn, stats.Accuracy)
	}
	fmt.Println()

	fmt.Printf("Held Cumulative:    %.2f%%\n", m.HeldCumulativeReturn)
	fmt.Printf("Buy and Hold:       %.2f%%\n", m.BuyAndHoldReturn)
	fmt.Println()

	fmt.Println("Periods:")
	for _, p := range m.TradeReturns {
		fmt.Printf("  %-12s %s .. %s  %4d days  %8.2f%%\n",
			p.Label,
			p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"),
			p.DurationDays, p.Return)
	}
}
