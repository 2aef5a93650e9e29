package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
)

// ClaimResult reports a settled claim.
type ClaimResult struct {
	MarketID uint64 `json:"market_id"`
	Amount   uint64 `json:"amount"`
}

// ClaimService settles winning positions and accrued LP fees out of
// market escrow accounts. Both claim paths are exactly-once: the claimed
// flag flips in the same transaction that moves the funds.
type ClaimService struct {
	db           *sqlx.DB
	marketRepo   *repository.MarketRepository
	positionRepo *repository.PositionRepository
	book         *ledger.Ledger
}

// NewClaimService creates a ClaimService.
func NewClaimService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	positionRepo *repository.PositionRepository,
	book *ledger.Ledger,
) *ClaimService {
	return &ClaimService{
		db:           db,
		marketRepo:   marketRepo,
		positionRepo: positionRepo,
		book:         book,
	}
}

// ClaimPayout pays out a winning position: stake plus the pro-rata share
// of the losing pool. Fails for unresolved markets, losing positions and
// repeat claims.
func (s *ClaimService) ClaimPayout(ctx context.Context, userID uuid.UUID, marketID uint64) (*ClaimResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("claim_service.ClaimPayout: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The market is immutable once resolved, but locking it keeps the
	// escrow drain serialized with concurrent claims.
	market, err := s.marketRepo.GetByIDForUpdate(ctx, tx, marketID)
	if err != nil {
		return nil, err
	}
	position, err := s.positionRepo.GetForUpdate(ctx, tx, userID, marketID)
	if err != nil {
		return nil, err
	}

	payout, err := market.PayoutFor(position)
	if err != nil {
		return nil, err
	}

	err = s.book.Transfer(ctx, tx, ledger.MarketVaultAddress(marketID), ledger.UserAddress(userID), payout)
	if errors.Is(err, domain.ErrInsufficientBalance) {
		// The escrow can only run short through rounding in extreme pool
		// ratios; surface it distinctly so it is visible in monitoring.
		return nil, domain.ErrInsufficientVault
	}
	if err != nil {
		return nil, err
	}

	if err = s.positionRepo.MarkClaimed(ctx, tx, userID, marketID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim_service.ClaimPayout: commit: %w", err)
	}

	log.Printf("[claim] payout settled: market=%d user=%s amount=%d", marketID, userID, payout)
	return &ClaimResult{MarketID: marketID, Amount: payout}, nil
}

// ClaimLPFees pays out the fees accrued by a provider's LP position.
// Available on active and resolved markets alike; callable repeatedly as
// new fees accrue.
func (s *ClaimService) ClaimLPFees(ctx context.Context, providerID uuid.UUID, marketID uint64) (*ClaimResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("claim_service.ClaimLPFees: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lp, err := s.positionRepo.GetLPForUpdate(ctx, tx, providerID, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	amount, err := lp.ClaimFees(now)
	if err != nil {
		return nil, err
	}

	err = s.book.Transfer(ctx, tx, ledger.MarketVaultAddress(marketID), ledger.UserAddress(providerID), amount)
	if errors.Is(err, domain.ErrInsufficientBalance) {
		return nil, domain.ErrInsufficientVault
	}
	if err != nil {
		return nil, err
	}

	if err = s.positionRepo.UpdateLP(ctx, tx, lp); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim_service.ClaimLPFees: commit: %w", err)
	}

	log.Printf("[claim] lp fees settled: market=%d provider=%s amount=%d", marketID, providerID, amount)
	return &ClaimResult{MarketID: marketID, Amount: amount}, nil
}

// LPPositions returns all of a provider's LP positions.
func (s *ClaimService) LPPositions(ctx context.Context, providerID uuid.UUID) ([]*domain.LPPosition, error) {
	return s.positionRepo.ListLPByUser(ctx, providerID)
}
