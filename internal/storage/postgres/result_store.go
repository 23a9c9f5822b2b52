package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const insertResultQuery = `
	INSERT INTO performance_results (
		ticker, strategy,
		st_cum_return, st_accuracy,
		mt_cum_return, mt_accuracy,
		lt_cum_return, lt_accuracy,
		bh_cum_return, bh_accuracy,
		buy_and_hold_return
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const selectResultColumns = `
	ticker, strategy,
	st_cum_return, st_accuracy,
	mt_cum_return, mt_accuracy,
	lt_cum_return, lt_accuracy,
	bh_cum_return, bh_accuracy,
	buy_and_hold_return
`

// Insert adds a new result row. Returns ErrDuplicateKey if (ticker, strategy) exists.
func (s *ResultStore) Insert(ctx context.Context, row domain.PerformanceRow) error {
	if row.Ticker == "" || row.Strategy == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertResultQuery, resultArgs(row)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert performance result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, rows []domain.PerformanceRow) error {
	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		if r.Ticker == "" || r.Strategy == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		if _, err := tx.Exec(ctx, insertResultQuery, resultArgs(r)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert performance result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByKey retrieves a result by (ticker, strategy). Returns ErrNotFound if not exists.
func (s *ResultStore) GetByKey(ctx context.Context, ticker, strategy string) (domain.PerformanceRow, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM performance_results
		WHERE ticker = $1 AND strategy = $2
	`

	row, err := scanResult(s.pool.QueryRow(ctx, query, ticker, strategy))
	if err != nil {
		if isNotFoundError(err) {
			return domain.PerformanceRow{}, storage.ErrNotFound
		}
		return domain.PerformanceRow{}, fmt.Errorf("get performance result by key: %w", err)
	}
	return row, nil
}

// GetByTicker retrieves all results for a ticker, ordered by strategy.
func (s *ResultStore) GetByTicker(ctx context.Context, ticker string) ([]domain.PerformanceRow, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM performance_results
		WHERE ticker = $1
		ORDER BY strategy ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("get performance results by ticker: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by ticker and strategy.
func (s *ResultStore) GetAll(ctx context.Context) ([]domain.PerformanceRow, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM performance_results
		ORDER BY ticker ASC, strategy ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all performance results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func resultArgs(r domain.PerformanceRow) []any {
	return []any{
		r.Ticker, r.Strategy,
		r.STCumReturn, r.STAccuracy,
		r.MTCumReturn, r.MTAccuracy,
		r.LTCumReturn, r.LTAccuracy,
		r.BHCumReturn, r.BHAccuracy,
		r.BuyAndHoldReturn,
	}
}

// scanResult scans a single row into a PerformanceRow.
func scanResult(row pgx.Row) (domain.PerformanceRow, error) {
	var r domain.PerformanceRow
	err := row.Scan(
		&r.Ticker, &r.Strategy,
		&r.STCumReturn, &r.STAccuracy,
		&r.MTCumReturn, &r.MTAccuracy,
		&r.LTCumReturn, &r.LTAccuracy,
		&r.BHCumReturn, &r.BHAccuracy,
		&r.BuyAndHoldReturn,
	)
	if err != nil {
		return domain.PerformanceRow{}, err
	}
	return r, nil
}

// scanResults scans multiple rows into a slice of PerformanceRow.
func scanResults(rows pgx.Rows) ([]domain.PerformanceRow, error) {
	var results []domain.PerformanceRow

	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan performance result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance result rows: %w", err)
	}

	return results, nil
}
