package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oyku/yesno/internal/api/middleware"
	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/service"
)

// ClaimHandler serves payout and LP fee claim endpoints.
type ClaimHandler struct {
	claimSvc *service.ClaimService
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(claimSvc *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimSvc: claimSvc}
}

// ClaimPayout godoc
// POST /api/claims/markets/:id/payout [JWT]
func (h *ClaimHandler) ClaimPayout(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := parseMarketID(c)
	if !ok {
		return
	}

	result, err := h.claimSvc.ClaimPayout(c.Request.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMarketNotFound):
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrPositionNotFound):
			respondError(c, http.StatusNotFound, "ERR_POSITION_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrNotResolved):
			respondError(c, http.StatusConflict, "ERR_NOT_RESOLVED", err.Error())
		case errors.Is(err, domain.ErrAlreadyClaimed):
			respondError(c, http.StatusConflict, "ERR_ALREADY_CLAIMED", err.Error())
		case errors.Is(err, domain.ErrPositionLost):
			respondError(c, http.StatusConflict, "ERR_POSITION_LOST", err.Error())
		case errors.Is(err, domain.ErrInsufficientVault):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_VAULT", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not claim payout")
		}
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// ClaimLPFees godoc
// POST /api/claims/markets/:id/lp-fees [JWT]
func (h *ClaimHandler) ClaimLPFees(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := parseMarketID(c)
	if !ok {
		return
	}

	result, err := h.claimSvc.ClaimLPFees(c.Request.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPositionNotFound):
			respondError(c, http.StatusNotFound, "ERR_LP_POSITION_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrNoFeesToClaim):
			respondError(c, http.StatusConflict, "ERR_NO_FEES", err.Error())
		case errors.Is(err, domain.ErrInsufficientVault):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_VAULT", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not claim fees")
		}
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// MyLPPositions godoc
// GET /api/claims/lp [JWT]
func (h *ClaimHandler) MyLPPositions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	positions, err := h.claimSvc.LPPositions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load lp positions")
		return
	}
	respondSuccess(c, http.StatusOK, positions)
}
