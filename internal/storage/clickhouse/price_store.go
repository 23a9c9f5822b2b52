package clickhouse

import (
	"context"
	"fmt"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// InsertBulk adds multiple observations. Fails entire batch on duplicate (ticker, date).
func (s *PriceStore) InsertBulk(ctx context.Context, prices []domain.PriceObservation) error {
	if len(prices) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		ticker string
		date   time.Time
	}
	seen := make(map[key]struct{})
	for _, p := range prices {
		if p.Ticker == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := key{p.Ticker, domain.Day(p.Date)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range prices {
		exists, err := s.exists(ctx, p.Ticker, domain.Day(p.Date))
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_prices (ticker, price_date, close)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range prices {
		if err := batch.Append(p.Ticker, domain.Day(p.Date), p.Close); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTicker retrieves all observations for a ticker, ordered by date ASC.
func (s *PriceStore) GetByTicker(ctx context.Context, ticker string) ([]domain.PriceObservation, error) {
	query := `
		SELECT ticker, price_date, close
		FROM daily_prices
		WHERE ticker = ?
		ORDER BY price_date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query by ticker: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

// GetByDateRange retrieves observations for a ticker within [start, end] (inclusive).
func (s *PriceStore) GetByDateRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceObservation, error) {
	query := `
		SELECT ticker, price_date, close
		FROM daily_prices
		WHERE ticker = ? AND price_date >= ? AND price_date <= ?
		ORDER BY price_date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker, domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

// Tickers lists distinct tickers with stored prices, sorted ASC.
func (s *PriceStore) Tickers(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker ASC`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}

	return tickers, nil
}

// exists checks if an observation with the given key exists.
func (s *PriceStore) exists(ctx context.Context, ticker string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM daily_prices
		WHERE ticker = ? AND price_date = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, ticker, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPrices scans multiple rows into a slice of PriceObservation.
func scanPrices(rows chRows) ([]domain.PriceObservation, error) {
	var prices []domain.PriceObservation

	for rows.Next() {
		var p domain.PriceObservation
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		p.Date = domain.Day(p.Date)
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}
