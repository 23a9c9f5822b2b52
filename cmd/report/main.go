package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"strategy-perf-lab/internal/config"
	"strategy-perf-lab/internal/reporting"
	"strategy-perf-lab/internal/storage"
	chstore "strategy-perf-lab/internal/storage/clickhouse"
	pgstore "strategy-perf-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	outputDir := flag.String("output-dir", "", "Output directory (overrides config)")
	source := flag.String("source", "postgres", "Result store to read: postgres or clickhouse")
	topN := flag.Int("top-n", 0, "Strategies to rank per ticker (0 uses the default)")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	ctx := context.Background()

	resultStore, cleanup, err := createResultStore(ctx, cfg, *source)
	if err != nil {
		log.Fatal().Err(err).Msg("connect result store")
	}
	defer cleanup()

	gen := reporting.NewGenerator(resultStore, cfg.Dataset)
	if *topN > 0 {
		gen = gen.WithTopN(*topN)
	}

	report, err := gen.Generate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("generate report")
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
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
			log.Fatal().Err(err).Str("file", name).Msg("write report file")
		}
	}

	fmt.Println("Report generated successfully:")
	for name := range files {
		fmt.Printf("  - %s/%s\n", cfg.Output.Dir, name)
	}
	fmt.Printf("Rows: %d, tickers: %d, strategies: %d\n",
		report.TotalRows, report.TickerCount, report.StrategyCount)
}

// createResultStore connects to the chosen backend.
func createResultStore(ctx context.Context, cfg *config.Config, source string) (storage.ResultStore, func(), error) {
	switch source {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, nil, fmt.Errorf("postgres.dsn is required for --source=postgres")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return pgstore.NewResultStore(pool), pool.Close, nil
	case "clickhouse":
		if cfg.ClickHouse.DSN == "" {
			return nil, nil, fmt.Errorf("clickhouse.dsn is required for --source=clickhouse")
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.NewResultStore(conn), func() { conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", source)
	}
}
