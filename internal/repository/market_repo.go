package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
)

// MarketRepository handles all database operations for Markets.
type MarketRepository struct {
	db *sqlx.DB
}

// NewMarketRepository creates a new MarketRepository.
func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Create inserts a new market row inside the caller's transaction.
func (r *MarketRepository) Create(ctx context.Context, tx *sqlx.Tx, m *domain.Market) error {
	query := `
		INSERT INTO markets
			(id, question, creator, resolver, yes_pool, no_pool, total_liquidity,
			 state, outcome, close_time, resolution_time, created_at, updated_at)
		VALUES
			(:id, :question, :creator, :resolver, :yes_pool, :no_pool, :total_liquidity,
			 :state, :outcome, :close_time, :resolution_time, :created_at, :updated_at)`
	_, err := tx.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("market_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a market by its numeric ID.
func (r *MarketRepository) GetByID(ctx context.Context, id uint64) (*domain.Market, error) {
	var m domain.Market
	err := r.db.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByID: %w", err)
	}
	return &m, nil
}

// GetByIDForUpdate fetches a market with a row lock held for the rest of
// the transaction. Every pool mutation and resolution goes through this.
func (r *MarketRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id uint64) (*domain.Market, error) {
	var m domain.Market
	err := tx.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByIDForUpdate: %w", err)
	}
	return &m, nil
}

// List returns markets newest first, optionally filtered by state.
func (r *MarketRepository) List(ctx context.Context, state domain.MarketState, limit, offset int) ([]*domain.Market, error) {
	var markets []*domain.Market
	var err error
	if state == "" {
		err = r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets WHERE state = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			state, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("market_repo.List: %w", err)
	}
	return markets, nil
}

// ListPastClose returns active markets whose close_time has passed, in the
// order they closed. The scheduler uses this to announce closed betting.
func (r *MarketRepository) ListPastClose(ctx context.Context, now time.Time) ([]*domain.Market, error) {
	var markets []*domain.Market
	err := r.db.SelectContext(ctx, &markets,
		`SELECT * FROM markets WHERE state = 'active' AND close_time <= $1 ORDER BY close_time ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("market_repo.ListPastClose: %w", err)
	}
	return markets, nil
}

// UpdatePools persists pool and liquidity totals computed in memory for a
// market that was previously locked with GetByIDForUpdate.
func (r *MarketRepository) UpdatePools(ctx context.Context, tx *sqlx.Tx, m *domain.Market) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE markets
		 SET yes_pool = $1, no_pool = $2, total_liquidity = $3, updated_at = now()
		 WHERE id = $4 AND state = 'active'`,
		m.YesPool, m.NoPool, m.TotalLiquidity, m.ID)
	if err != nil {
		return fmt.Errorf("market_repo.UpdatePools: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("market_repo.UpdatePools: %w", err)
	}
	if rows == 0 {
		return domain.ErrMarketNotActive
	}
	return nil
}

// Resolve records the outcome and flips state to resolved. The state guard
// in the WHERE clause makes resolution one-way at the storage layer too.
func (r *MarketRepository) Resolve(ctx context.Context, tx *sqlx.Tx, m *domain.Market) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE markets
		 SET state = 'resolved', outcome = $1, resolution_time = $2, updated_at = now()
		 WHERE id = $3 AND state = 'active'`,
		m.Outcome, m.ResolutionTime, m.ID)
	if err != nil {
		return fmt.Errorf("market_repo.Resolve: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("market_repo.Resolve: %w", err)
	}
	if rows == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}
