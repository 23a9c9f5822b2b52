package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu   sync.RWMutex
	data map[string]domain.Decision // keyed by (ticker, strategy, date)
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		data: make(map[string]domain.Decision),
	}
}

// decisionKey generates a unique key for a decision.
func decisionKey(ticker, strategy string, date int64) string {
	return fmt.Sprintf("%s|%s|%d", ticker, strategy, date)
}

// InsertBulk adds multiple decisions. Fails entire batch on duplicate.
func (s *DecisionStore) InsertBulk(_ context.Context, decisions []domain.Decision) error {
	if len(decisions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(decisions))

	for _, d := range decisions {
		if d.Ticker == "" || d.Strategy == "" || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := decisionKey(d.Ticker, d.Strategy, domain.Day(d.Date).Unix())

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, d := range decisions {
		d.Date = domain.Day(d.Date)
		s.data[decisionKey(d.Ticker, d.Strategy, d.Date.Unix())] = d
	}

	return nil
}

// GetByTicker retrieves all decisions for a ticker, ordered by strategy ASC, date ASC.
func (s *DecisionStore) GetByTicker(_ context.Context, ticker string) ([]domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Decision
	for _, d := range s.data {
		if d.Ticker == ticker {
			result = append(result, d)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Strategy != result[j].Strategy {
			return result[i].Strategy < result[j].Strategy
		}
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// GetByTickerStrategy retrieves one strategy's decisions for a ticker, ordered by date ASC.
func (s *DecisionStore) GetByTickerStrategy(_ context.Context, ticker, strategy string) ([]domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Decision
	for _, d := range s.data {
		if d.Ticker == ticker && d.Strategy == strategy {
			result = append(result, d)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// Tickers lists distinct tickers with stored decisions, sorted ASC.
func (s *DecisionStore) Tickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var result []string
	for _, d := range s.data {
		if _, ok := seen[d.Ticker]; !ok {
			seen[d.Ticker] = struct{}{}
			result = append(result, d.Ticker)
		}
	}
	sort.Strings(result)

	return result, nil
}

// Strategies lists distinct strategies across all tickers, sorted ASC.
func (s *DecisionStore) Strategies(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var result []string
	for _, d := range s.data {
		if _, ok := seen[d.Strategy]; !ok {
			seen[d.Strategy] = struct{}{}
			result = append(result, d.Strategy)
		}
	}
	sort.Strings(result)

	return result, nil
}

var _ storage.DecisionStore = (*DecisionStore)(nil)
