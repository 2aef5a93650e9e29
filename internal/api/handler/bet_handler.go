package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oyku/yesno/internal/api/middleware"
	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/service"
)

// BetHandler serves bet placement and position endpoints.
type BetHandler struct {
	betSvc *service.BetService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(betSvc *service.BetService) *BetHandler {
	return &BetHandler{betSvc: betSvc}
}

// PlaceBet godoc
// POST /api/bets [JWT]
// Body: {"market_id":3,"side":"YES","amount":1000}
func (h *BetHandler) PlaceBet(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	position, receipt, err := h.betSvc.PlaceBet(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSide):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_SIDE", err.Error())
		case errors.Is(err, domain.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrCannotBetBothSides):
			respondError(c, http.StatusConflict, "ERR_BOTH_SIDES", err.Error())
		case errors.Is(err, domain.ErrMarketClosed):
			respondError(c, http.StatusConflict, "ERR_MARKET_CLOSED", err.Error())
		case errors.Is(err, domain.ErrMarketNotActive):
			respondError(c, http.StatusConflict, "ERR_MARKET_NOT_ACTIVE", err.Error())
		case errors.Is(err, domain.ErrMarketNotFound):
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		case errors.Is(err, domain.ErrOverflow):
			respondError(c, http.StatusUnprocessableEntity, "ERR_AMOUNT_TOO_LARGE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{
		"position": position,
		"receipt":  receipt,
	})
}

// MyPositions godoc
// GET /api/bets/my [JWT]
func (h *BetHandler) MyPositions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	positions, err := h.betSvc.Positions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load positions")
		return
	}
	respondSuccess(c, http.StatusOK, positions)
}

// MyPosition godoc
// GET /api/bets/markets/:id [JWT]
func (h *BetHandler) MyPosition(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := parseMarketID(c)
	if !ok {
		return
	}

	position, err := h.betSvc.Position(c.Request.Context(), userID, id)
	if err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_POSITION_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load position")
		return
	}
	respondSuccess(c, http.StatusOK, position)
}
