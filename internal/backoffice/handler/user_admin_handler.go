package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
)

// UserAdminHandler serves the admin user list and manual deposits.
// Deposits are the only place value enters the system; everything else is
// transfers between existing accounts.
type UserAdminHandler struct {
	db       *sqlx.DB
	userRepo *repository.UserRepository
	book     *ledger.Ledger
}

// NewUserAdminHandler creates a UserAdminHandler.
func NewUserAdminHandler(db *sqlx.DB, userRepo *repository.UserRepository, book *ledger.Ledger) *UserAdminHandler {
	return &UserAdminHandler{db: db, userRepo: userRepo, book: book}
}

// List godoc
// GET /admin/users
func (h *UserAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)

	users, total, err := h.userRepo.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list users")
		return
	}
	respondList(c, users, total, page, limit)
}

// Deposit godoc
// POST /admin/users/:id/deposit
// Body: {"amount":5000000000}
func (h *UserAdminHandler) Deposit(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_USER_ID", "invalid user id")
		return
	}

	var body struct {
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if _, err = h.userRepo.GetByID(c.Request.Context(), userID); err != nil {
		if domain.IsNotFound(err) {
			respondError(c, http.StatusNotFound, "ERR_USER_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load user")
		return
	}

	if err = h.credit(c, userID, body.Amount); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not credit account")
		}
		return
	}

	log.Printf("[backoffice] deposit: user=%s amount=%d by_admin=%s", userID, body.Amount, c.GetString("userID"))
	respondSuccess(c, http.StatusOK, gin.H{
		"user_id": userID,
		"amount":  body.Amount,
	})
}

// credit runs the mint inside its own transaction.
func (h *UserAdminHandler) credit(c *gin.Context, userID uuid.UUID, amount uint64) error {
	ctx := c.Request.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("user_admin.credit: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = h.book.Credit(ctx, tx, ledger.UserAddress(userID), amount); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("user_admin.credit: commit: %w", err)
	}
	return nil
}
