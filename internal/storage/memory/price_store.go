package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu   sync.RWMutex
	data map[string]domain.PriceObservation // keyed by (ticker, date)
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		data: make(map[string]domain.PriceObservation),
	}
}

// priceKey generates a unique key for a price observation.
func priceKey(ticker string, date int64) string {
	return fmt.Sprintf("%s|%d", ticker, date)
}

// InsertBulk adds multiple observations. Fails entire batch on duplicate.
func (s *PriceStore) InsertBulk(_ context.Context, prices []domain.PriceObservation) error {
	if len(prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(prices))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range prices {
		if p.Ticker == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := priceKey(p.Ticker, domain.Day(p.Date).Unix())

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range prices {
		p.Date = domain.Day(p.Date)
		s.data[priceKey(p.Ticker, p.Date.Unix())] = p
	}

	return nil
}

// GetByTicker retrieves all observations for a ticker, ordered by date ASC.
func (s *PriceStore) GetByTicker(_ context.Context, ticker string) ([]domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PriceObservation
	for _, p := range s.data {
		if p.Ticker == ticker {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// GetByDateRange retrieves observations for a ticker within [start, end] (inclusive).
func (s *PriceStore) GetByDateRange(_ context.Context, ticker string, start, end time.Time) ([]domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end = domain.Day(start), domain.Day(end)

	var result []domain.PriceObservation
	for _, p := range s.data {
		if p.Ticker == ticker && !p.Date.Before(start) && !p.Date.After(end) {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// Tickers lists distinct tickers with stored prices, sorted ASC.
func (s *PriceStore) Tickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var result []string
	for _, p := range s.data {
		if _, ok := seen[p.Ticker]; !ok {
			seen[p.Ticker] = struct{}{}
			result = append(result, p.Ticker)
		}
	}
	sort.Strings(result)

	return result, nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
