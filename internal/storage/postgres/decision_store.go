package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// DecisionStore implements storage.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *Pool
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(pool *Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const insertDecisionQuery = `
	INSERT INTO strategy_decisions (ticker, strategy, decision_date, action)
	VALUES ($1, $2, $3, $4)
`

// InsertBulk adds multiple decisions atomically. Fails entire batch on any duplicate.
func (s *DecisionStore) InsertBulk(ctx context.Context, decisions []domain.Decision) error {
	if len(decisions) == 0 {
		return nil
	}

	for _, d := range decisions {
		if d.Ticker == "" || d.Strategy == "" || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range decisions {
		_, err := tx.Exec(ctx, insertDecisionQuery,
			d.Ticker, d.Strategy, domain.Day(d.Date), string(d.Action))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert decision in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByTicker retrieves all decisions for a ticker, ordered by strategy and date.
func (s *DecisionStore) GetByTicker(ctx context.Context, ticker string) ([]domain.Decision, error) {
	query := `
		SELECT ticker, strategy, decision_date, action
		FROM strategy_decisions
		WHERE ticker = $1
		ORDER BY strategy ASC, decision_date ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("get decisions by ticker: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetByTickerStrategy retrieves one strategy's decisions for a ticker, ordered by date.
func (s *DecisionStore) GetByTickerStrategy(ctx context.Context, ticker, strategy string) ([]domain.Decision, error) {
	query := `
		SELECT ticker, strategy, decision_date, action
		FROM strategy_decisions
		WHERE ticker = $1 AND strategy = $2
		ORDER BY decision_date ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker, strategy)
	if err != nil {
		return nil, fmt.Errorf("get decisions by ticker/strategy: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// Tickers lists distinct tickers with stored decisions.
func (s *DecisionStore) Tickers(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "ticker")
}

// Strategies lists distinct strategies across all tickers.
func (s *DecisionStore) Strategies(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "strategy")
}

func (s *DecisionStore) distinctColumn(ctx context.Context, column string) ([]string, error) {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM strategy_decisions ORDER BY %s ASC`, column, column)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", column, err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", column, err)
	}

	return values, nil
}

// scanDecisions scans multiple rows into a slice of Decision.
func scanDecisions(rows pgx.Rows) ([]domain.Decision, error) {
	var decisions []domain.Decision

	for rows.Next() {
		var (
			d      domain.Decision
			action string
		)
		if err := rows.Scan(&d.Ticker, &d.Strategy, &d.Date, &action); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		d.Action = domain.Action(action)
		d.Date = domain.Day(d.Date)
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return decisions, nil
}
