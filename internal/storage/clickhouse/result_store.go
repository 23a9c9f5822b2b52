package clickhouse

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using ClickHouse.
type ResultStore struct {
	conn *Conn
}

// NewResultStore creates a new ResultStore.
func NewResultStore(conn *Conn) *ResultStore {
	return &ResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `
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

	// ReplacingMergeTree would silently replace, keep append-only semantics.
	exists, err := s.exists(ctx, row.Ticker, row.Strategy)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `INSERT INTO performance_results (` + resultColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err = s.conn.Exec(ctx, query,
		row.Ticker, row.Strategy,
		row.STCumReturn, row.STAccuracy,
		row.MTCumReturn, row.MTAccuracy,
		row.LTCumReturn, row.LTAccuracy,
		row.BHCumReturn, row.BHAccuracy,
		row.BuyAndHoldReturn,
	)
	if err != nil {
		return fmt.Errorf("insert performance result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple rows. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, rows []domain.PerformanceRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, r := range rows {
		if r.Ticker == "" || r.Strategy == "" {
			return storage.ErrInvalidInput
		}
		key := r.Ticker + "|" + r.Strategy
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range rows {
		exists, err := s.exists(ctx, r.Ticker, r.Strategy)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO performance_results (`+resultColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.Ticker, r.Strategy,
			r.STCumReturn, r.STAccuracy,
			r.MTCumReturn, r.MTAccuracy,
			r.LTCumReturn, r.LTAccuracy,
			r.BHCumReturn, r.BHAccuracy,
			r.BuyAndHoldReturn,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByKey retrieves a result by (ticker, strategy). Returns ErrNotFound if not exists.
func (s *ResultStore) GetByKey(ctx context.Context, ticker, strategy string) (domain.PerformanceRow, error) {
	query := `SELECT ` + resultColumns + `
		FROM performance_results FINAL
		WHERE ticker = ? AND strategy = ?
	`

	rows, err := s.conn.Query(ctx, query, ticker, strategy)
	if err != nil {
		return domain.PerformanceRow{}, fmt.Errorf("query by key: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return domain.PerformanceRow{}, err
	}
	if len(results) == 0 {
		return domain.PerformanceRow{}, storage.ErrNotFound
	}
	return results[0], nil
}

// GetByTicker retrieves all results for a ticker, ordered by strategy ASC.
func (s *ResultStore) GetByTicker(ctx context.Context, ticker string) ([]domain.PerformanceRow, error) {
	query := `SELECT ` + resultColumns + `
		FROM performance_results FINAL
		WHERE ticker = ?
		ORDER BY strategy ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query by ticker: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by ticker ASC, strategy ASC.
func (s *ResultStore) GetAll(ctx context.Context) ([]domain.PerformanceRow, error) {
	query := `SELECT ` + resultColumns + `
		FROM performance_results FINAL
		ORDER BY ticker ASC, strategy ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// exists checks if a result with the given key exists.
func (s *ResultStore) exists(ctx context.Context, ticker, strategy string) (bool, error) {
	query := `
		SELECT count(*) FROM performance_results FINAL
		WHERE ticker = ? AND strategy = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, ticker, strategy).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanResults scans multiple rows into a slice of PerformanceRow.
func scanResults(rows chRows) ([]domain.PerformanceRow, error) {
	var results []domain.PerformanceRow

	for rows.Next() {
		var r domain.PerformanceRow
		err := rows.Scan(
			&r.Ticker, &r.Strategy,
			&r.STCumReturn, &r.STAccuracy,
			&r.MTCumReturn, &r.MTAccuracy,
			&r.LTCumReturn, &r.LTAccuracy,
			&r.BHCumReturn, &r.BHAccuracy,
			&r.BuyAndHoldReturn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}
