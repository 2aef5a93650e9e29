// Package ledger is the internal double-entry book for the settlement
// engine. Every user, the protocol treasury and every market escrow is a
// row in the accounts table; all value movement goes through Transfer so
// that a unit can never be created or destroyed by the betting flows.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/domain"
)

// TreasuryAddress is the account that accumulates the protocol's 20% fee
// share. It is provisioned once at protocol initialization.
const TreasuryAddress = "treasury"

// UserAddress returns the ledger address for a user's spendable balance.
func UserAddress(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// MarketVaultAddress returns the escrow address for a market. The escrow
// holds the initial liquidity, all net bets, the LP fee share and any fee
// rounding dust until payouts and fee claims drain it.
func MarketVaultAddress(marketID uint64) string {
	return fmt.Sprintf("market_vault:%d", marketID)
}

// Ledger performs account balance operations against PostgreSQL.
type Ledger struct {
	db *sqlx.DB
}

// New creates a Ledger backed by the given database handle.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// EnsureAccount creates the account with a zero balance if it does not
// exist yet. Safe to call repeatedly.
func (l *Ledger) EnsureAccount(ctx context.Context, tx *sqlx.Tx, address string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_accounts (address, balance) VALUES ($1, 0)
		 ON CONFLICT (address) DO NOTHING`,
		address)
	if err != nil {
		return fmt.Errorf("ledger.EnsureAccount: %w", err)
	}
	return nil
}

// Balance reads an account's current balance outside any transaction.
func (l *Ledger) Balance(ctx context.Context, address string) (uint64, error) {
	var balance uint64
	err := l.db.GetContext(ctx, &balance,
		`SELECT balance FROM ledger_accounts WHERE address = $1`, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("ledger.Balance: %w", err)
	}
	return balance, nil
}

// Transfer moves amount from one account to another inside the caller's
// transaction. The source row is locked first; returns
// ErrInsufficientBalance when the source cannot cover the amount. A zero
// amount is a no-op so callers do not have to special-case floored fees.
func (l *Ledger) Transfer(ctx context.Context, tx *sqlx.Tx, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("ledger.Transfer: self transfer on %s", from)
	}

	var balance uint64
	err := tx.GetContext(ctx, &balance,
		`SELECT balance FROM ledger_accounts WHERE address = $1 FOR UPDATE`, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("ledger.Transfer lock: %w", err)
	}
	if balance < amount {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance - $1, updated_at = now() WHERE address = $2`,
		amount, from)
	if err != nil {
		return fmt.Errorf("ledger.Transfer debit: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + $1, updated_at = now() WHERE address = $2`,
		amount, to)
	if err != nil {
		return fmt.Errorf("ledger.Transfer credit: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger.Transfer credit: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Credit mints amount into an account. Only the backoffice deposit flow
// uses this; the betting flows move existing balances exclusively.
func (l *Ledger) Credit(ctx context.Context, tx *sqlx.Tx, address string, amount uint64) error {
	if amount == 0 {
		return domain.ErrInvalidAmount
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + $1, updated_at = now() WHERE address = $2`,
		amount, address)
	if err != nil {
		return fmt.Errorf("ledger.Credit: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger.Credit: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
