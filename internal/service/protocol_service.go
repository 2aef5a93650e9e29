package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
)

// ProtocolService manages the protocol_state singleton: one-time
// initialization and read access to the fee rate and market counter.
type ProtocolService struct {
	db           *sqlx.DB
	protocolRepo *repository.ProtocolRepository
	book         *ledger.Ledger
}

// NewProtocolService creates a ProtocolService.
func NewProtocolService(
	db *sqlx.DB,
	protocolRepo *repository.ProtocolRepository,
	book *ledger.Ledger,
) *ProtocolService {
	return &ProtocolService{
		db:           db,
		protocolRepo: protocolRepo,
		book:         book,
	}
}

// Initialize creates the protocol state and provisions the treasury
// account. Runs exactly once; a second call fails with
// ErrProtocolAlreadyInitialized. The fee rate is fixed for the lifetime
// of the deployment.
func (s *ProtocolService) Initialize(ctx context.Context, adminID uuid.UUID, feeRateBps uint16) (*domain.ProtocolState, error) {
	if feeRateBps > domain.MaxFeeRateBps {
		return nil, domain.ErrInvalidFeeRate
	}

	state := &domain.ProtocolState{
		ID:              1,
		MarketCounter:   0,
		FeeRateBps:      feeRateBps,
		TreasuryAccount: ledger.TreasuryAddress,
		AdminID:         adminID,
		CreatedAt:       time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("protocol_service.Initialize: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.protocolRepo.Create(ctx, tx, state); err != nil {
		return nil, err
	}
	if err = s.book.EnsureAccount(ctx, tx, ledger.TreasuryAddress); err != nil {
		return nil, fmt.Errorf("protocol_service.Initialize: provision treasury: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("protocol_service.Initialize: commit: %w", err)
	}
	return state, nil
}

// State returns the current protocol state.
func (s *ProtocolService) State(ctx context.Context) (*domain.ProtocolState, error) {
	return s.protocolRepo.Get(ctx)
}

// TreasuryBalance returns the fee units accumulated by the protocol.
func (s *ProtocolService) TreasuryBalance(ctx context.Context) (uint64, error) {
	if _, err := s.protocolRepo.Get(ctx); err != nil {
		return 0, err
	}
	return s.book.Balance(ctx, ledger.TreasuryAddress)
}
