package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Position: one bettor's stake in one market
// ──────────────────────────────────────────────────────────────────────────────

// Position is a bettor's cumulative net stake on one side of a market.
// There is at most one position per (market, user) pair; repeated bets on the
// same side merge into it, and the side can never change. EntryOdds is fixed
// at the first bet and is informational only.
type Position struct {
	UserID    uuid.UUID `json:"user_id"    db:"user_id"`
	MarketID  uint64    `json:"market_id"  db:"market_id"`
	Side      Side      `json:"side"       db:"side"`
	Amount    uint64    `json:"amount"     db:"amount"`
	EntryOdds uint64    `json:"entry_odds" db:"entry_odds"`
	Claimed   bool      `json:"claimed"    db:"claimed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// LPPosition: the creator's liquidity stake and fee accrual
// ──────────────────────────────────────────────────────────────────────────────

// LPPosition tracks the single liquidity provider of a market: the liquidity
// it seeded (fixed at creation) and the LP fee share accrued from every bet.
// FeesEarned is the currently withdrawable balance; FeesClaimedAmount is the
// monotonic lifetime total ever withdrawn.
type LPPosition struct {
	ProviderID        uuid.UUID `json:"provider_id"         db:"provider_id"`
	MarketID          uint64    `json:"market_id"           db:"market_id"`
	LiquidityProvided uint64    `json:"liquidity_provided"  db:"liquidity_provided"`
	FeesEarned        uint64    `json:"fees_earned"         db:"fees_earned"`
	FeesClaimed       bool      `json:"fees_claimed"        db:"fees_claimed"`
	FeesClaimedAmount uint64    `json:"fees_claimed_amount" db:"fees_claimed_amount"`
	CreatedAt         time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"          db:"updated_at"`
}

// ClaimFees withdraws the entire accrued fee balance. It returns the amount
// to transfer and mutates the position; callers must persist the mutation in
// the same transaction as the transfer. A claim with nothing accrued fails
// with ErrNoFeesToClaim and changes nothing.
func (lp *LPPosition) ClaimFees(now time.Time) (uint64, error) {
	if lp.FeesEarned == 0 {
		return 0, ErrNoFeesToClaim
	}

	total, err := CheckedAdd(lp.FeesClaimedAmount, lp.FeesEarned)
	if err != nil {
		return 0, err
	}

	amount := lp.FeesEarned
	lp.FeesEarned = 0
	lp.FeesClaimed = true
	lp.FeesClaimedAmount = total
	lp.UpdatedAt = now.UTC()
	return amount, nil
}
