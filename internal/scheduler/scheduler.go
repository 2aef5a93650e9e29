// Package scheduler runs the two background goroutines of the market
// lifecycle:
//  1. closeWatchLoop     – announces markets whose close_time has passed.
//  2. summaryBroadcastLoop – pushes pool summaries to WS clients periodically.
//
// Neither loop mutates market state: passing close_time is a derived
// condition, not a stored transition, and resolution is always an explicit
// resolver action through the API.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oyku/yesno/internal/config"
	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/repository"
)

// WsHub defines the broadcast operations the Scheduler needs from the
// WebSocket hub. Declared here so the scheduler package does not import
// the ws implementation and cause a circular dependency.
type WsHub interface {
	BroadcastBettingClosed(summary *domain.MarketSummary)
	BroadcastMarketUpdate(summary *domain.MarketSummary)
}

// Scheduler runs the market lifecycle goroutines. Call Start(ctx) once from
// main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	marketRepo *repository.MarketRepository
	hub        WsHub
	cfg        *config.Config
	logger     *slog.Logger

	// markets already announced as closed, so each close fires once per
	// process lifetime
	mu        sync.Mutex
	announced map[uint64]struct{}
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	marketRepo *repository.MarketRepository,
	hub WsHub,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		marketRepo: marketRepo,
		hub:        hub,
		cfg:        cfg,
		logger:     logger,
		announced:  make(map[uint64]struct{}),
	}
}

// Start launches the background goroutines. It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.closeWatchLoop(ctx)
	go s.summaryBroadcastLoop(ctx)
	s.logger.Info("scheduler started",
		"close_check_interval", s.cfg.Scheduler.CloseCheckInterval,
		"summary_interval", s.cfg.Scheduler.SummaryInterval,
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// closeWatchLoop
// ──────────────────────────────────────────────────────────────────────────────

// closeWatchLoop scans for active markets past their close_time and
// broadcasts a betting-closed notification for each, once.
func (s *Scheduler) closeWatchLoop(ctx context.Context) {
	defer s.recoverAndLog("closeWatchLoop")

	ticker := time.NewTicker(s.cfg.Scheduler.CloseCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("closeWatchLoop: shutting down")
			return
		case <-ticker.C:
			s.announceClosed(ctx)
		}
	}
}

// announceClosed is the inner body of closeWatchLoop, extracted so that the
// defer/recover in the loop catches panics correctly.
func (s *Scheduler) announceClosed(ctx context.Context) {
	now := time.Now().UTC()
	markets, err := s.marketRepo.ListPastClose(ctx, now)
	if err != nil {
		s.logger.Error("closeWatchLoop: list past close", "err", err)
		return
	}

	for _, m := range markets {
		s.mu.Lock()
		_, seen := s.announced[m.ID]
		if !seen {
			s.announced[m.ID] = struct{}{}
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		s.logger.Info("market closed to betting",
			"market_id", m.ID,
			"close_time", m.CloseTime.Format(time.RFC3339),
			"yes_pool", m.YesPool,
			"no_pool", m.NoPool,
		)
		if s.hub != nil {
			summary := m.ToSummary(now)
			s.hub.BroadcastBettingClosed(&summary)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// summaryBroadcastLoop
// ──────────────────────────────────────────────────────────────────────────────

// summaryBroadcastLoop periodically pushes the pool state of active markets
// so idle clients converge even if they missed a bet broadcast.
func (s *Scheduler) summaryBroadcastLoop(ctx context.Context) {
	defer s.recoverAndLog("summaryBroadcastLoop")

	ticker := time.NewTicker(s.cfg.Scheduler.SummaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("summaryBroadcastLoop: shutting down")
			return
		case <-ticker.C:
			s.broadcastSummaries(ctx)
		}
	}
}

func (s *Scheduler) broadcastSummaries(ctx context.Context) {
	if s.hub == nil {
		return
	}
	markets, err := s.marketRepo.List(ctx, domain.StateActive, 100, 0)
	if err != nil {
		s.logger.Warn("summaryBroadcastLoop: list active markets", "err", err)
		return
	}
	now := time.Now().UTC()
	for _, m := range markets {
		summary := m.ToSummary(now)
		s.hub.BroadcastMarketUpdate(&summary)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each goroutine to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
