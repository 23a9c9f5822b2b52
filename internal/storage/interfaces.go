package storage

import (
	"context"
	"time"

	"strategy-perf-lab/internal/domain"
)

// PriceStore provides access to daily price storage.
type PriceStore interface {
	// InsertBulk adds multiple observations. Fails the entire batch on a
	// duplicate (ticker, date).
	InsertBulk(ctx context.Context, prices []domain.PriceObservation) error

	// GetByTicker retrieves all observations for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.PriceObservation, error)

	// GetByDateRange retrieves observations for a ticker within [start, end]
	// (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceObservation, error)

	// Tickers lists distinct tickers with stored prices, sorted ASC.
	Tickers(ctx context.Context) ([]string, error)
}

// DecisionStore provides access to strategy decision storage.
type DecisionStore interface {
	// InsertBulk adds multiple decisions. Fails the entire batch on a
	// duplicate (ticker, strategy, date).
	InsertBulk(ctx context.Context, decisions []domain.Decision) error

	// GetByTicker retrieves all decisions for a ticker, ordered by
	// strategy ASC, date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.Decision, error)

	// GetByTickerStrategy retrieves one strategy's decisions for a ticker,
	// ordered by date ASC.
	GetByTickerStrategy(ctx context.Context, ticker, strategy string) ([]domain.Decision, error)

	// Tickers lists distinct tickers with stored decisions, sorted ASC.
	Tickers(ctx context.Context) ([]string, error)

	// Strategies lists distinct strategies across all tickers, sorted ASC.
	Strategies(ctx context.Context) ([]string, error)
}

// ResultStore provides access to performance result storage.
type ResultStore interface {
	// Insert adds a new result row. Returns ErrDuplicateKey if
	// (ticker, strategy) exists.
	Insert(ctx context.Context, row domain.PerformanceRow) error

	// InsertBulk adds multiple rows atomically. Fails entire batch on any
	// duplicate.
	InsertBulk(ctx context.Context, rows []domain.PerformanceRow) error

	// GetByKey retrieves a result by (ticker, strategy). Returns
	// ErrNotFound if not exists.
	GetByKey(ctx context.Context, ticker, strategy string) (domain.PerformanceRow, error)

	// GetByTicker retrieves all results for a ticker, ordered by strategy ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.PerformanceRow, error)

	// GetAll retrieves all results, ordered by ticker ASC, strategy ASC.
	GetAll(ctx context.Context) ([]domain.PerformanceRow, error)
}
