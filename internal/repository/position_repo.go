package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
)

// PositionRepository handles bettor positions and LP positions. Both are
// keyed by (user, market); a user holds at most one of each per market.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// ── Bettor positions ──────────────────────────────────────────────────────────

// Get fetches a user's position in a market.
func (r *PositionRepository) Get(ctx context.Context, userID uuid.UUID, marketID uint64) (*domain.Position, error) {
	var p domain.Position
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM positions WHERE user_id = $1 AND market_id = $2`, userID, marketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.Get: %w", err)
	}
	return &p, nil
}

// GetForUpdate fetches a user's position with a row lock. Returns
// ErrPositionNotFound when the user has no position yet; bet placement
// treats that as "create" rather than "merge".
func (r *PositionRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, marketID uint64) (*domain.Position, error) {
	var p domain.Position
	err := tx.GetContext(ctx, &p,
		`SELECT * FROM positions WHERE user_id = $1 AND market_id = $2 FOR UPDATE`, userID, marketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetForUpdate: %w", err)
	}
	return &p, nil
}

// Upsert inserts a position or, for a repeat bet on the same side, replaces
// the stake total while keeping the original entry odds.
func (r *PositionRepository) Upsert(ctx context.Context, tx *sqlx.Tx, p *domain.Position) error {
	query := `
		INSERT INTO positions
			(user_id, market_id, side, amount, entry_odds, claimed, created_at, updated_at)
		VALUES
			(:user_id, :market_id, :side, :amount, :entry_odds, :claimed, :created_at, :updated_at)
		ON CONFLICT (user_id, market_id) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`
	_, err := tx.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("position_repo.Upsert: %w", err)
	}
	return nil
}

// MarkClaimed flips the claimed flag. The WHERE guard keeps the claim
// exactly-once even if two requests race past the domain check.
func (r *PositionRepository) MarkClaimed(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, marketID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE positions SET claimed = TRUE, updated_at = now()
		 WHERE user_id = $1 AND market_id = $2 AND claimed = FALSE`,
		userID, marketID)
	if err != nil {
		return fmt.Errorf("position_repo.MarkClaimed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("position_repo.MarkClaimed: %w", err)
	}
	if rows == 0 {
		return domain.ErrAlreadyClaimed
	}
	return nil
}

// ListByUser returns all of a user's positions, newest market first.
func (r *PositionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.db.SelectContext(ctx, &positions,
		`SELECT * FROM positions WHERE user_id = $1 ORDER BY market_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("position_repo.ListByUser: %w", err)
	}
	return positions, nil
}

// ListByMarket returns all positions in a market.
func (r *PositionRepository) ListByMarket(ctx context.Context, marketID uint64) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.db.SelectContext(ctx, &positions,
		`SELECT * FROM positions WHERE market_id = $1 ORDER BY created_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("position_repo.ListByMarket: %w", err)
	}
	return positions, nil
}

// ── LP positions ──────────────────────────────────────────────────────────────

// GetLP fetches a provider's LP position in a market.
func (r *PositionRepository) GetLP(ctx context.Context, providerID uuid.UUID, marketID uint64) (*domain.LPPosition, error) {
	var lp domain.LPPosition
	err := r.db.GetContext(ctx, &lp,
		`SELECT * FROM lp_positions WHERE provider_id = $1 AND market_id = $2`, providerID, marketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetLP: %w", err)
	}
	return &lp, nil
}

// GetLPForUpdate fetches a provider's LP position with a row lock.
func (r *PositionRepository) GetLPForUpdate(ctx context.Context, tx *sqlx.Tx, providerID uuid.UUID, marketID uint64) (*domain.LPPosition, error) {
	var lp domain.LPPosition
	err := tx.GetContext(ctx, &lp,
		`SELECT * FROM lp_positions WHERE provider_id = $1 AND market_id = $2 FOR UPDATE`, providerID, marketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetLPForUpdate: %w", err)
	}
	return &lp, nil
}

// GetMarketLPForUpdate fetches the single LP position of a market with a
// row lock. Bet placement uses this to accrue the LP fee share.
func (r *PositionRepository) GetMarketLPForUpdate(ctx context.Context, tx *sqlx.Tx, marketID uint64) (*domain.LPPosition, error) {
	var lp domain.LPPosition
	err := tx.GetContext(ctx, &lp,
		`SELECT * FROM lp_positions WHERE market_id = $1 FOR UPDATE`, marketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetMarketLPForUpdate: %w", err)
	}
	return &lp, nil
}

// CreateLP inserts the LP position created alongside a market.
func (r *PositionRepository) CreateLP(ctx context.Context, tx *sqlx.Tx, lp *domain.LPPosition) error {
	query := `
		INSERT INTO lp_positions
			(provider_id, market_id, liquidity_provided, fees_earned, fees_claimed, fees_claimed_amount, created_at, updated_at)
		VALUES
			(:provider_id, :market_id, :liquidity_provided, :fees_earned, :fees_claimed, :fees_claimed_amount, :created_at, :updated_at)`
	_, err := tx.NamedExecContext(ctx, query, lp)
	if err != nil {
		return fmt.Errorf("position_repo.CreateLP: %w", err)
	}
	return nil
}

// UpdateLP persists fee accrual or fee claim changes on a locked LP row.
func (r *PositionRepository) UpdateLP(ctx context.Context, tx *sqlx.Tx, lp *domain.LPPosition) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE lp_positions
		 SET fees_earned = $1, fees_claimed = $2, fees_claimed_amount = $3, updated_at = now()
		 WHERE provider_id = $4 AND market_id = $5`,
		lp.FeesEarned, lp.FeesClaimed, lp.FeesClaimedAmount, lp.ProviderID, lp.MarketID)
	if err != nil {
		return fmt.Errorf("position_repo.UpdateLP: %w", err)
	}
	return nil
}

// ListLPByUser returns all of a provider's LP positions.
func (r *PositionRepository) ListLPByUser(ctx context.Context, providerID uuid.UUID) ([]*domain.LPPosition, error) {
	var positions []*domain.LPPosition
	err := r.db.SelectContext(ctx, &positions,
		`SELECT * FROM lp_positions WHERE provider_id = $1 ORDER BY market_id DESC`, providerID)
	if err != nil {
		return nil, fmt.Errorf("position_repo.ListLPByUser: %w", err)
	}
	return positions, nil
}
