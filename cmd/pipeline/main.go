// Package main provides the full evaluation pipeline entry point.
// Executes: ingest → evaluate (ticker × strategy) → persist → report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"strategy-perf-lab/internal/apisource"
	"strategy-perf-lab/internal/config"
	"strategy-perf-lab/internal/decisionfile"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/observability"
	"strategy-perf-lab/internal/orchestrator"
	"strategy-perf-lab/internal/reporting"
	"strategy-perf-lab/internal/storage"
	chstore "strategy-perf-lab/internal/storage/clickhouse"
	"strategy-perf-lab/internal/storage/memory"
	"strategy-perf-lab/internal/storage/migrations"
	pgstore "strategy-perf-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	decisionsDir := flag.String("decisions-dir", "", "Load decisions from per-ticker CSVs instead of the API")
	fromStr := flag.String("from", "", "Price history start date (YYYY-MM-DD), required for API ingest")
	toStr := flag.String("to", "", "Price history end date (YYYY-MM-DD), defaults to today")
	skipIngest := flag.Bool("skip-ingest", false, "Skip ingest, evaluate already stored data")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Stringer("signal", sig).Msg("cancelling pipeline")
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			log.Info().Str("addr", *metricsAddr).Msg("starting metrics server")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	stores, cleanup, err := createStores(ctx, cfg, *useMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	// Phase 0: Ingest
	if !*skipIngest {
		if err := runIngest(ctx, cfg, stores, *decisionsDir, *fromStr, *toStr); err != nil {
			log.Fatal().Err(err).Msg("ingest")
		}
	}

	// Phases 1-3: Evaluate and persist
	evalOpts := domain.Options{
		STDays:     cfg.Evaluation.STDays,
		MTDays:     cfg.Evaluation.MTDays,
		LTDays:     cfg.Evaluation.LTDays,
		OutlierPct: cfg.Evaluation.OutlierPct,
		Now:        domain.Day(time.Now().UTC()),
	}

	orch := orchestrator.New(orchestrator.Options{
		PriceStore:    stores.priceStore,
		DecisionStore: stores.decisionStore,
		ResultStore:   stores.resultStore,
		EvalOptions:   evalOpts,
		Workers:       cfg.Evaluation.Workers,
		Verbose:       *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator")
	}

	fmt.Printf("Pipeline completed:\n")
	fmt.Printf("  Tickers:   %d\n", result.TickersProcessed)
	fmt.Printf("  Evaluated: %d\n", result.PairsEvaluated)
	fmt.Printf("  Skipped:   %d\n", result.PairsSkipped)
	fmt.Printf("  Stored:    %d\n", result.ResultsStored)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:    %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Phase 4: Report
	if err := writeReports(ctx, cfg, stores.resultStore); err != nil {
		log.Fatal().Err(err).Msg("write reports")
	}

	fmt.Printf("\nReports written to %s:\n", cfg.Output.Dir)
	fmt.Printf("  - %s/performance_results.csv\n", cfg.Output.Dir)
	fmt.Printf("  - %s/strategy_averages.csv\n", cfg.Output.Dir)
	fmt.Printf("  - %s/top_per_ticker.csv\n", cfg.Output.Dir)
	fmt.Printf("  - %s/REPORT.md\n", cfg.Output.Dir)
}

// pipelineStores holds the three stores the pipeline runs on.
type pipelineStores struct {
	priceStore    storage.PriceStore
	decisionStore storage.DecisionStore
	resultStore   storage.ResultStore
}

// createStores wires memory or database stores per config. Prices live in
// ClickHouse, decisions and results in PostgreSQL.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*pipelineStores, func(), error) {
	if useMemory {
		return &pipelineStores{
			priceStore:    memory.NewPriceStore(),
			decisionStore: memory.NewDecisionStore(),
			resultStore:   memory.NewResultStore(),
		}, func() {}, nil
	}

	if cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "" {
		return nil, nil, fmt.Errorf("postgres.dsn and clickhouse.dsn are required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		conn.Close()
	}
	return &pipelineStores{
		priceStore:    chstore.NewPriceStore(conn),
		decisionStore: pgstore.NewDecisionStore(pool),
		resultStore:   pgstore.NewResultStore(pool),
	}, cleanup, nil
}

// runIngest loads decisions (API or CSV directory) and prices (API) into
// the stores. Already stored rows are skipped, not errored.
func runIngest(ctx context.Context, cfg *config.Config, stores *pipelineStores, decisionsDir, fromStr, toStr string) error {
	var tickers []string

	if decisionsDir != "" {
		decisions, err := decisionfile.LoadDir(decisionsDir)
		if err != nil {
			return fmt.Errorf("load decision files: %w", err)
		}
		observability.RecordDecisionsFetched(len(decisions))
		if err := insertDecisions(ctx, stores.decisionStore, decisions); err != nil {
			return err
		}
		tickers, err = stores.decisionStore.Tickers(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("decisions", len(decisions)).Int("tickers", len(tickers)).Msg("loaded decision files")
	} else {
		if cfg.API.BaseURL == "" {
			return fmt.Errorf("api.base_url is required (or use --decisions-dir)")
		}
		client := apisource.NewClient(cfg.API.BaseURL, cfg.API.DecisionBaseURL, cfg.API.Token,
			apisource.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))

		var err error
		tickers, err = client.Tickers(ctx, cfg.AssetType, cfg.Dataset)
		if err != nil {
			return fmt.Errorf("fetch tickers: %w", err)
		}
		log.Info().Int("tickers", len(tickers)).Str("dataset", cfg.Dataset).Msg("fetched ticker list")

		for _, ticker := range tickers {
			decisions, err := client.Decisions(ctx, cfg.AssetType, ticker, cfg.Dataset)
			if err != nil {
				observability.RecordIngestionError("api", "decisions")
				return fmt.Errorf("fetch decisions for %s: %w", ticker, err)
			}
			observability.RecordDecisionsFetched(len(decisions))
			if err := insertDecisions(ctx, stores.decisionStore, decisions); err != nil {
				return err
			}
		}
	}

	// Prices always come from the API.
	if cfg.API.BaseURL == "" {
		log.Warn().Msg("no api.base_url configured, skipping price ingest")
		return nil
	}

	from, to, err := parseDateRange(fromStr, toStr)
	if err != nil {
		return err
	}

	client := apisource.NewClient(cfg.API.BaseURL, cfg.API.DecisionBaseURL, cfg.API.Token,
		apisource.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))

	for _, ticker := range tickers {
		prices, err := client.Prices(ctx, cfg.AssetType, ticker, from, to)
		if err != nil {
			observability.RecordIngestionError("api", "prices")
			return fmt.Errorf("fetch prices for %s: %w", ticker, err)
		}
		observability.RecordPricesFetched(len(prices))
		if err := stores.priceStore.InsertBulk(ctx, prices); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("store prices for %s: %w", ticker, err)
		}
		observability.DefaultMetrics.PricesStored.Add(float64(len(prices)))
	}

	observability.DefaultMetrics.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))
	return nil
}

// insertDecisions stores decisions grouped by (ticker, strategy) so one
// already ingested group does not fail the rest.
func insertDecisions(ctx context.Context, store storage.DecisionStore, decisions []domain.Decision) error {
	groups := make(map[string][]domain.Decision)
	for _, d := range decisions {
		key := d.Ticker + "|" + d.Strategy
		groups[key] = append(groups[key], d)
	}
	for key, group := range groups {
		if err := store.InsertBulk(ctx, group); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("store decisions %s: %w", key, err)
		}
		observability.DefaultMetrics.DecisionsStored.Add(float64(len(group)))
	}
	return nil
}

// parseDateRange parses --from/--to into an inclusive price window.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required for API price ingest")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse from date: %w", err)
	}
	to := domain.Day(time.Now().UTC())
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse to date: %w", err)
		}
	}
	return from, to, nil
}

// writeReports renders the markdown report and CSV exports.
func writeReports(ctx context.Context, cfg *config.Config, resultStore storage.ResultStore) error {
	report, err := reporting.NewGenerator(resultStore, cfg.Dataset).Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"performance_results.csv": reporting.RenderResultsCSV(report.Results),
		"REPORT.md":               reporting.RenderMarkdown(report),
	}
	if report.Summary != nil {
		files["strategy_averages.csv"] = reporting.RenderStrategyAveragesCSV(report.Summary.ByAccuracy)
		files["top_per_ticker.csv"] = reporting.RenderTopPerTickerCSV(report.Summary.TopPerTicker)
	}

	for name, content := range files {
		path := filepath.Join(cfg.Output.Dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	observability.DefaultMetrics.ReportsGenerated.Inc()
	return nil
}
