package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
)

// PlaceBetRequest is the payload for placing a bet.
type PlaceBetRequest struct {
	MarketID uint64      `json:"market_id" binding:"required"`
	Side     domain.Side `json:"side"      binding:"required"`
	Amount   uint64      `json:"amount"    binding:"required"`
}

// BetService orchestrates bet placement. All money movement happens inside
// a single PostgreSQL transaction: the user pays the gross amount, the
// protocol fee share lands in the treasury, and everything else (net bet,
// LP fee share, fee rounding dust) lands in the market's escrow.
type BetService struct {
	db           *sqlx.DB
	marketRepo   *repository.MarketRepository
	positionRepo *repository.PositionRepository
	protocolRepo *repository.ProtocolRepository
	book         *ledger.Ledger
	broadcaster  Broadcaster // injected after WS Hub is built
}

// NewBetService creates a BetService.
func NewBetService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	positionRepo *repository.PositionRepository,
	protocolRepo *repository.ProtocolRepository,
	book *ledger.Ledger,
) *BetService {
	return &BetService{
		db:           db,
		marketRepo:   marketRepo,
		positionRepo: positionRepo,
		protocolRepo: protocolRepo,
		book:         book,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *BetService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// PlaceBet validates the request, settles the bet into the market's pools
// in memory, moves the funds, and persists the position, all inside one
// transaction. A failure at any step leaves no partial effect.
//
// After a successful commit it asynchronously broadcasts the updated pool
// state.
func (s *BetService) PlaceBet(ctx context.Context, userID uuid.UUID, req PlaceBetRequest) (*domain.Position, *domain.BetReceipt, error) {
	if !req.Side.IsValid() {
		return nil, nil, domain.ErrInvalidSide
	}
	if req.Amount == 0 {
		return nil, nil, domain.ErrInvalidAmount
	}

	// The fee rate is immutable after initialization, so it can be read
	// outside the transaction.
	protocol, err := s.protocolRepo.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("bet_service.PlaceBet: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the market row; all pool math happens against this snapshot.
	market, err := s.marketRepo.GetByIDForUpdate(ctx, tx, req.MarketID)
	if err != nil {
		return nil, nil, err
	}

	// No position yet means this is the user's first bet on the market.
	existing, err := s.positionRepo.GetForUpdate(ctx, tx, userID, req.MarketID)
	if errors.Is(err, domain.ErrPositionNotFound) {
		existing, err = nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	lp, err := s.positionRepo.GetMarketLPForUpdate(ctx, tx, req.MarketID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	position, receipt, err := market.PlaceBet(userID, req.Side, req.Amount, protocol.FeeRateBps, existing, lp, now)
	if err != nil {
		return nil, nil, err
	}

	// Fund movement mirrors the receipt: the treasury takes the protocol
	// share, the escrow takes the rest. Their sum is exactly the gross
	// amount, so the user's balance check happens across both transfers.
	vault := ledger.MarketVaultAddress(market.ID)
	userAddr := ledger.UserAddress(userID)
	if err = s.book.Transfer(ctx, tx, userAddr, ledger.TreasuryAddress, receipt.ProtocolFee); err != nil {
		return nil, nil, err
	}
	if err = s.book.Transfer(ctx, tx, userAddr, vault, receipt.GrossAmount-receipt.ProtocolFee); err != nil {
		return nil, nil, err
	}

	if err = s.marketRepo.UpdatePools(ctx, tx, market); err != nil {
		return nil, nil, err
	}
	if err = s.positionRepo.Upsert(ctx, tx, position); err != nil {
		return nil, nil, err
	}
	if err = s.positionRepo.UpdateLP(ctx, tx, lp); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("bet_service.PlaceBet: commit: %w", err)
	}

	if s.broadcaster != nil {
		summary := market.ToSummary(now)
		go s.broadcaster.BroadcastMarketUpdate(&summary)
	}
	return position, receipt, nil
}

// Positions returns all of a user's bet positions.
func (s *BetService) Positions(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error) {
	return s.positionRepo.ListByUser(ctx, userID)
}

// Position returns a user's position in one market.
func (s *BetService) Position(ctx context.Context, userID uuid.UUID, marketID uint64) (*domain.Position, error) {
	return s.positionRepo.Get(ctx, userID, marketID)
}
