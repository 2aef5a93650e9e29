package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/service"
)

// ProtocolAdminHandler serves one-time protocol initialization and state reads.
type ProtocolAdminHandler struct {
	protocolSvc *service.ProtocolService
}

// NewProtocolAdminHandler creates a ProtocolAdminHandler.
func NewProtocolAdminHandler(protocolSvc *service.ProtocolService) *ProtocolAdminHandler {
	return &ProtocolAdminHandler{protocolSvc: protocolSvc}
}

// Initialize godoc
// POST /admin/protocol/init
// Body: {"fee_rate_bps":300}
func (h *ProtocolAdminHandler) Initialize(c *gin.Context) {
	adminID, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_INVALID_TOKEN", "invalid admin identity")
		return
	}

	var body struct {
		FeeRateBps uint16 `json:"fee_rate_bps"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.protocolSvc.Initialize(c.Request.Context(), adminID, body.FeeRateBps)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFeeRate):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_FEE_RATE", err.Error())
		case errors.Is(err, domain.ErrProtocolAlreadyInitialized):
			respondError(c, http.StatusConflict, "ERR_ALREADY_INITIALIZED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not initialize protocol")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, state)
}

// State godoc
// GET /admin/protocol/state
func (h *ProtocolAdminHandler) State(c *gin.Context) {
	state, err := h.protocolSvc.State(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrProtocolNotInitialized) {
			respondError(c, http.StatusNotFound, "ERR_NOT_INITIALIZED", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load protocol state")
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Treasury godoc
// GET /admin/protocol/treasury
func (h *ProtocolAdminHandler) Treasury(c *gin.Context) {
	balance, err := h.protocolSvc.TreasuryBalance(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrProtocolNotInitialized) {
			respondError(c, http.StatusNotFound, "ERR_NOT_INITIALIZED", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load treasury balance")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"treasury_balance": balance})
}
