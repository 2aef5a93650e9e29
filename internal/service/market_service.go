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

// Broadcaster is the minimal interface the services need from the WS hub.
// Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastNewMarket(summary *domain.MarketSummary)
	BroadcastMarketUpdate(summary *domain.MarketSummary)
	BroadcastMarketResolved(summary *domain.MarketSummary)
	BroadcastBettingClosed(summary *domain.MarketSummary)
}

// CreateMarketRequest contains the fields required to open a market.
type CreateMarketRequest struct {
	Question         string    `json:"question"          binding:"required"`
	InitialLiquidity uint64    `json:"initial_liquidity" binding:"required"`
	CloseTime        time.Time `json:"close_time"        binding:"required"`
}

// MarketService orchestrates market creation and reads.
type MarketService struct {
	db           *sqlx.DB
	marketRepo   *repository.MarketRepository
	positionRepo *repository.PositionRepository
	protocolRepo *repository.ProtocolRepository
	book         *ledger.Ledger
	broadcaster  Broadcaster // injected after WS Hub is built
}

// NewMarketService creates a MarketService.
func NewMarketService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	positionRepo *repository.PositionRepository,
	protocolRepo *repository.ProtocolRepository,
	book *ledger.Ledger,
) *MarketService {
	return &MarketService{
		db:           db,
		marketRepo:   marketRepo,
		positionRepo: positionRepo,
		protocolRepo: protocolRepo,
		book:         book,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *MarketService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// Create opens a new market funded by the creator's initial liquidity.
// In one transaction it draws the next market ID, moves the liquidity
// into the market's escrow account, and records the market together with
// the creator's LP position. The creator becomes the market's resolver.
func (s *MarketService) Create(ctx context.Context, creator uuid.UUID, req CreateMarketRequest) (*domain.Market, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("market_service.Create: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id, err := s.protocolRepo.NextMarketID(ctx, tx)
	if err != nil {
		return nil, err
	}

	market, lp, err := domain.NewMarket(id, req.Question, creator, req.InitialLiquidity, req.CloseTime, now)
	if err != nil {
		return nil, err
	}

	vault := ledger.MarketVaultAddress(market.ID)
	if err = s.book.EnsureAccount(ctx, tx, vault); err != nil {
		return nil, fmt.Errorf("market_service.Create: provision escrow: %w", err)
	}
	if err = s.book.Transfer(ctx, tx, ledger.UserAddress(creator), vault, req.InitialLiquidity); err != nil {
		return nil, err
	}

	if err = s.marketRepo.Create(ctx, tx, market); err != nil {
		return nil, err
	}
	if err = s.positionRepo.CreateLP(ctx, tx, lp); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("market_service.Create: commit: %w", err)
	}

	if s.broadcaster != nil {
		summary := market.ToSummary(now)
		go s.broadcaster.BroadcastNewMarket(&summary)
	}
	return market, nil
}

// Get fetches a single market.
func (s *MarketService) Get(ctx context.Context, id uint64) (*domain.Market, error) {
	return s.marketRepo.GetByID(ctx, id)
}

// List returns market summaries, optionally filtered by state.
func (s *MarketService) List(ctx context.Context, state domain.MarketState, limit, offset int) ([]domain.MarketSummary, error) {
	if state != "" && state != domain.StateActive && state != domain.StateResolved {
		return nil, domain.ErrInvalidState
	}
	markets, err := s.marketRepo.List(ctx, state, limit, offset)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	summaries := make([]domain.MarketSummary, 0, len(markets))
	for _, m := range markets {
		summaries = append(summaries, m.ToSummary(now))
	}
	return summaries, nil
}

// EscrowBalance returns the units currently held by a market's escrow
// account.
func (s *MarketService) EscrowBalance(ctx context.Context, marketID uint64) (uint64, error) {
	if _, err := s.marketRepo.GetByID(ctx, marketID); err != nil {
		return 0, err
	}
	return s.book.Balance(ctx, ledger.MarketVaultAddress(marketID))
}
