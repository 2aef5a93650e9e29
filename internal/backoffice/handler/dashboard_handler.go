package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
	"github.com/oyku/yesno/internal/service"
	"github.com/oyku/yesno/internal/ws"
)

// DashboardHandler aggregates the operational overview for the admin UI.
type DashboardHandler struct {
	protocolSvc *service.ProtocolService
	marketRepo  *repository.MarketRepository
	book        *ledger.Ledger
	hub         *ws.Hub
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(
	protocolSvc *service.ProtocolService,
	marketRepo *repository.MarketRepository,
	book *ledger.Ledger,
	hub *ws.Hub,
) *DashboardHandler {
	return &DashboardHandler{
		protocolSvc: protocolSvc,
		marketRepo:  marketRepo,
		book:        book,
		hub:         hub,
	}
}

// Dashboard godoc
// GET /admin/dashboard
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.protocolSvc.State(ctx)
	if err != nil && !errors.Is(err, domain.ErrProtocolNotInitialized) {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load protocol state")
		return
	}

	var treasury uint64
	if state != nil {
		treasury, err = h.book.Balance(ctx, ledger.TreasuryAddress)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load treasury balance")
			return
		}
	}

	now := time.Now().UTC()
	active, err := h.marketRepo.List(ctx, domain.StateActive, 50, 0)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list active markets")
		return
	}
	pending, err := h.marketRepo.ListPastClose(ctx, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list pending markets")
		return
	}

	summaries := make([]domain.MarketSummary, 0, len(active))
	for _, m := range active {
		summaries = append(summaries, m.ToSummary(now))
	}

	wsClients := 0
	if h.hub != nil {
		wsClients = h.hub.ConnectedCount()
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"protocol":           state,
		"treasury_balance":   treasury,
		"active_markets":     summaries,
		"pending_resolution": len(pending),
		"ws_clients":         wsClients,
	})
}
