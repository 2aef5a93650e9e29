package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProtocolState is the process-wide protocol singleton: the fee rate applied
// to every bet, the treasury that receives the protocol fee share, and the
// strictly-increasing market-id counter. Created exactly once; only market
// creation mutates it (the counter bump), serialized by a row lock.
type ProtocolState struct {
	ID              int16     `json:"-"                db:"id"` // always 1
	MarketCounter   uint64    `json:"market_counter"   db:"market_counter"`
	FeeRateBps      uint16    `json:"fee_rate_bps"     db:"fee_rate_bps"`
	TreasuryAccount string    `json:"treasury_account" db:"treasury_account"`
	AdminID         uuid.UUID `json:"admin_id"         db:"admin_id"`
	CreatedAt       time.Time `json:"created_at"       db:"created_at"`
}

// Validate checks the protocol invariants.
func (p *ProtocolState) Validate() error {
	if p.FeeRateBps > MaxFeeRateBps {
		return ErrInvalidFeeRate
	}
	return nil
}
