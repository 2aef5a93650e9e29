package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/repository"
)

// ResolutionService handles outcome submission. Resolution does not move
// any funds; the escrow is drained later, claim by claim.
type ResolutionService struct {
	db          *sqlx.DB
	marketRepo  *repository.MarketRepository
	broadcaster Broadcaster // injected after WS Hub is built
}

// NewResolutionService creates a ResolutionService.
func NewResolutionService(db *sqlx.DB, marketRepo *repository.MarketRepository) *ResolutionService {
	return &ResolutionService{
		db:         db,
		marketRepo: marketRepo,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *ResolutionService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// Resolve submits the winning outcome for a market. Only the market's
// resolver may call it, only after close_time has passed, and only once.
func (s *ResolutionService) Resolve(ctx context.Context, callerID uuid.UUID, marketID uint64, outcome domain.Side) (*domain.Market, error) {
	if !outcome.IsValid() {
		return nil, domain.ErrInvalidSide
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	market, err := s.marketRepo.GetByIDForUpdate(ctx, tx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err = market.Resolve(callerID, outcome, now); err != nil {
		return nil, err
	}
	if err = s.marketRepo.Resolve(ctx, tx, market); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: commit: %w", err)
	}

	log.Printf("[resolution] market %d resolved: outcome=%s yes_pool=%d no_pool=%d",
		market.ID, outcome, market.YesPool, market.NoPool)

	if s.broadcaster != nil {
		summary := market.ToSummary(now)
		go s.broadcaster.BroadcastMarketResolved(&summary)
	}
	return market, nil
}
