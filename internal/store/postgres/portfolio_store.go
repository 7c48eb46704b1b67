package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geostrat/paperbot/internal/domain"
)

// PortfolioStore implements domain.PortfolioStore using PostgreSQL. The
// portfolio header lives in portfolios and its trades in positions; Save
// upserts both in one transaction.
type PortfolioStore struct {
	pool *pgxpool.Pool
}

// NewPortfolioStore creates a new PortfolioStore backed by the given pool.
func NewPortfolioStore(pool *pgxpool.Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

const positionSelectCols = `id, strategy, market_id, question, token_id, side,
	entry_price, mark_price, size, entry_cost_rate, event_key, cluster,
	status, pnl, end_at, opened_at, settled_at`

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		var side, status string

		if err := rows.Scan(
			&p.ID, &p.Strategy, &p.MarketID, &p.Question, &p.TokenID, &side,
			&p.EntryPrice, &p.MarkPrice, &p.Size, &p.EntryCostRate,
			&p.EventKey, &p.Cluster,
			&status, &p.PnL,
			&p.EndAt, &p.OpenedAt, &p.SettledAt,
		); err != nil {
			return nil, err
		}
		p.Side = domain.BetSide(side)
		p.Status = domain.PositionStatus(status)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Load fetches the portfolio for a strategy along with all of its
// positions. When no row exists yet it returns a fresh portfolio seeded
// with initialBankroll, without persisting anything.
func (s *PortfolioStore) Load(ctx context.Context, strategy string, initialBankroll float64) (domain.Portfolio, error) {
	var pf domain.Portfolio

	err := s.pool.QueryRow(ctx,
		`SELECT strategy, initial_bankroll, wins, losses, total_pnl, updated_at
		 FROM portfolios WHERE strategy = $1`, strategy,
	).Scan(&pf.Strategy, &pf.InitialBankroll, &pf.Wins, &pf.Losses, &pf.TotalPnL, &pf.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Portfolio{
			Strategy:        strategy,
			InitialBankroll: initialBankroll,
		}, nil
	}
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("postgres: load portfolio %s: %w", strategy, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+positionSelectCols+` FROM positions
		 WHERE strategy = $1
		 ORDER BY opened_at`, strategy)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("postgres: load positions %s: %w", strategy, err)
	}
	defer rows.Close()

	pf.Positions, err = scanPositionRows(rows)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("postgres: scan positions %s: %w", strategy, err)
	}
	return pf, nil
}

// Save upserts the portfolio header and every position it holds.
func (s *PortfolioStore) Save(ctx context.Context, pf domain.Portfolio) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: save portfolio %s: begin: %w", pf.Strategy, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsertPortfolio = `
		INSERT INTO portfolios (strategy, initial_bankroll, wins, losses, total_pnl, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (strategy) DO UPDATE SET
			wins       = EXCLUDED.wins,
			losses     = EXCLUDED.losses,
			total_pnl  = EXCLUDED.total_pnl,
			updated_at = NOW()`

	if _, err := tx.Exec(ctx, upsertPortfolio,
		pf.Strategy, pf.InitialBankroll, pf.Wins, pf.Losses, pf.TotalPnL,
	); err != nil {
		return fmt.Errorf("postgres: upsert portfolio %s: %w", pf.Strategy, err)
	}

	const upsertPosition = `
		INSERT INTO positions (
			id, strategy, market_id, question, token_id, side,
			entry_price, mark_price, size, entry_cost_rate, event_key, cluster,
			status, pnl, end_at, opened_at, settled_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			mark_price = EXCLUDED.mark_price,
			status     = EXCLUDED.status,
			pnl        = EXCLUDED.pnl,
			settled_at = EXCLUDED.settled_at,
			updated_at = NOW()`

	for _, p := range pf.Positions {
		if _, err := tx.Exec(ctx, upsertPosition,
			p.ID, p.Strategy, p.MarketID, p.Question, p.TokenID, string(p.Side),
			p.EntryPrice, p.MarkPrice, p.Size, p.EntryCostRate, p.EventKey, p.Cluster,
			string(p.Status), p.PnL, p.EndAt, p.OpenedAt, p.SettledAt,
		); err != nil {
			return fmt.Errorf("postgres: upsert position %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: save portfolio %s: commit: %w", pf.Strategy, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PortfolioStore = (*PortfolioStore)(nil)
