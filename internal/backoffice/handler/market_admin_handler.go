package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
	"github.com/oyku/yesno/internal/service"
)

// MarketAdminHandler serves admin views over all markets and their escrows.
type MarketAdminHandler struct {
	marketSvc    *service.MarketService
	positionRepo *repository.PositionRepository
	book         *ledger.Ledger
}

// NewMarketAdminHandler creates a MarketAdminHandler.
func NewMarketAdminHandler(marketSvc *service.MarketService, positionRepo *repository.PositionRepository, book *ledger.Ledger) *MarketAdminHandler {
	return &MarketAdminHandler{marketSvc: marketSvc, positionRepo: positionRepo, book: book}
}

func parseAdminMarketID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return 0, false
	}
	return id, true
}

// List godoc
// GET /admin/markets?state=resolved
func (h *MarketAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	state := domain.MarketState(c.Query("state"))

	summaries, err := h.marketSvc.List(c.Request.Context(), state, limit, (page-1)*limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_STATE", "state must be active or resolved")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list markets")
		return
	}
	respondList(c, summaries, len(summaries), page, limit)
}

// Detail godoc
// GET /admin/markets/:id
// Includes all positions and the LP position alongside the market row.
func (h *MarketAdminHandler) Detail(c *gin.Context) {
	id, ok := parseAdminMarketID(c)
	if !ok {
		return
	}

	market, err := h.marketSvc.Get(c.Request.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load market")
		return
	}

	positions, err := h.positionRepo.ListByMarket(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load positions")
		return
	}

	lp, err := h.positionRepo.GetLP(c.Request.Context(), market.Creator, id)
	if err != nil && !domain.IsNotFound(err) {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load lp position")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"market":      market,
		"positions":   positions,
		"lp_position": lp,
	})
}

// Escrow godoc
// GET /admin/markets/:id/escrow
// Reconciliation view: escrow balance next to the pool totals.
func (h *MarketAdminHandler) Escrow(c *gin.Context) {
	id, ok := parseAdminMarketID(c)
	if !ok {
		return
	}

	market, err := h.marketSvc.Get(c.Request.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load market")
		return
	}

	balance, err := h.book.Balance(c.Request.Context(), ledger.MarketVaultAddress(id))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load escrow balance")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"market_id":       id,
		"escrow_balance":  balance,
		"yes_pool":        market.YesPool,
		"no_pool":         market.NoPool,
		"total_liquidity": market.TotalLiquidity,
	})
}
