package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]domain.PerformanceRow // keyed by (ticker, strategy)
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]domain.PerformanceRow),
	}
}

// resultKey generates a unique key for a result row.
func resultKey(ticker, strategy string) string {
	return fmt.Sprintf("%s|%s", ticker, strategy)
}

// Insert adds a new result row.
func (s *ResultStore) Insert(_ context.Context, row domain.PerformanceRow) error {
	if row.Ticker == "" || row.Strategy == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := resultKey(row.Ticker, row.Strategy)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = row

	return nil
}

// InsertBulk adds multiple rows. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(_ context.Context, rows []domain.PerformanceRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		if r.Ticker == "" || r.Strategy == "" {
			return storage.ErrInvalidInput
		}
		key := resultKey(r.Ticker, r.Strategy)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		s.data[resultKey(r.Ticker, r.Strategy)] = r
	}

	return nil
}

// GetByKey retrieves a result by (ticker, strategy).
func (s *ResultStore) GetByKey(_ context.Context, ticker, strategy string) (domain.PerformanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, exists := s.data[resultKey(ticker, strategy)]
	if !exists {
		return domain.PerformanceRow{}, storage.ErrNotFound
	}

	return row, nil
}

// GetByTicker retrieves all results for a ticker, ordered by strategy ASC.
func (s *ResultStore) GetByTicker(_ context.Context, ticker string) ([]domain.PerformanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PerformanceRow
	for _, r := range s.data {
		if r.Ticker == ticker {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Strategy < result[j].Strategy
	})

	return result, nil
}

// GetAll retrieves all results, ordered by ticker ASC, strategy ASC.
func (s *ResultStore) GetAll(_ context.Context) ([]domain.PerformanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PerformanceRow, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Ticker != result[j].Ticker {
			return result[i].Ticker < result[j].Ticker
		}
		return result[i].Strategy < result[j].Strategy
	})

	return result, nil
}

var _ storage.ResultStore = (*ResultStore)(nil)
