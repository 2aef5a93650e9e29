package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
)

// ProtocolRepository handles the protocol_state singleton row.
type ProtocolRepository struct {
	db *sqlx.DB
}

// NewProtocolRepository creates a new ProtocolRepository.
func NewProtocolRepository(db *sqlx.DB) *ProtocolRepository {
	return &ProtocolRepository{db: db}
}

// Get fetches the protocol state. Returns ErrProtocolNotInitialized when
// the protocol has never been initialized.
func (r *ProtocolRepository) Get(ctx context.Context) (*domain.ProtocolState, error) {
	var s domain.ProtocolState
	err := r.db.GetContext(ctx, &s, `SELECT * FROM protocol_state WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProtocolNotInitialized
		}
		return nil, fmt.Errorf("protocol_repo.Get: %w", err)
	}
	return &s, nil
}

// Create inserts the singleton row. The fixed primary key makes a second
// initialization fail with a unique violation, which is mapped to
// ErrProtocolAlreadyInitialized.
func (r *ProtocolRepository) Create(ctx context.Context, tx *sqlx.Tx, s *domain.ProtocolState) error {
	query := `
		INSERT INTO protocol_state
			(id, market_counter, fee_rate_bps, treasury_account, admin_id, created_at)
		VALUES
			(1, :market_counter, :fee_rate_bps, :treasury_account, :admin_id, :created_at)`
	_, err := tx.NamedExecContext(ctx, query, s)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProtocolAlreadyInitialized
		}
		return fmt.Errorf("protocol_repo.Create: %w", err)
	}
	return nil
}

// NextMarketID atomically increments the market counter and returns the new
// value. Market IDs are therefore dense and strictly increasing from 1.
func (r *ProtocolRepository) NextMarketID(ctx context.Context, tx *sqlx.Tx) (uint64, error) {
	var id uint64
	err := tx.GetContext(ctx, &id,
		`UPDATE protocol_state SET market_counter = market_counter + 1 WHERE id = 1 RETURNING market_counter`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProtocolNotInitialized
		}
		return 0, fmt.Errorf("protocol_repo.NextMarketID: %w", err)
	}
	return id, nil
}
