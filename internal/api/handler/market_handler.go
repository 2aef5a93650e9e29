package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oyku/yesno/internal/api/middleware"
	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/service"
)

// MarketHandler serves market creation, listing and resolution endpoints.
type MarketHandler struct {
	marketSvc     *service.MarketService
	resolutionSvc *service.ResolutionService
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, resolutionSvc *service.ResolutionService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, resolutionSvc: resolutionSvc}
}

// parseMarketID reads the :id path parameter as a uint64.
func parseMarketID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return 0, false
	}
	return id, true
}

// List godoc
// GET /api/markets?state=active&page=1&limit=20
func (h *MarketHandler) List(c *gin.Context) {
	state := domain.MarketState(c.Query("state"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

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

// GetByID godoc
// GET /api/markets/:id
func (h *MarketHandler) GetByID(c *gin.Context) {
	id, ok := parseMarketID(c)
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
	respondSuccess(c, http.StatusOK, market)
}

// Create godoc
// POST /api/markets [JWT]
// Body: {"question":"...","initial_liquidity":2000000000,"close_time":"2026-09-30T12:00:00Z"}
func (h *MarketHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	market, err := h.marketSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case errors.Is(err, domain.ErrProtocolNotInitialized):
			respondError(c, http.StatusConflict, "ERR_PROTOCOL_NOT_INITIALIZED", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create market")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, market)
}

// Resolve godoc
// POST /api/markets/:id/resolve [JWT, resolver only]
// Body: {"outcome":"YES"}
func (h *MarketHandler) Resolve(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := parseMarketID(c)
	if !ok {
		return
	}

	var body struct {
		Outcome domain.Side `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	market, err := h.resolutionSvc.Resolve(c.Request.Context(), userID, id, body.Outcome)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSide):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_OUTCOME", err.Error())
		case errors.Is(err, domain.ErrMarketNotFound):
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrUnauthorizedResolver):
			respondError(c, http.StatusForbidden, "ERR_NOT_RESOLVER", err.Error())
		case errors.Is(err, domain.ErrMarketStillOpen):
			respondError(c, http.StatusConflict, "ERR_MARKET_STILL_OPEN", err.Error())
		case errors.Is(err, domain.ErrMarketNotActive), errors.Is(err, domain.ErrAlreadyResolved):
			respondError(c, http.StatusConflict, "ERR_ALREADY_RESOLVED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not resolve market")
		}
		return
	}
	respondSuccess(c, http.StatusOK, market)
}
