// Package domain defines the core entities and settlement rules for the
// yesno pool-based binary prediction market.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// MarketState represents the lifecycle state of a market.
//
// Only StateActive and StateResolved are ever stored. StateClosed and
// StateFinalized are reserved for forward compatibility: "closed to bets" is
// the derived predicate AcceptingBets, never a persisted transition.
type MarketState string

const (
	StateActive    MarketState = "active"    // accepting bets
	StateClosed    MarketState = "closed"    // reserved
	StateResolved  MarketState = "resolved"  // outcome submitted, claims open
	StateFinalized MarketState = "finalized" // reserved
)

// Side is the outcome a participant bets on.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// IsValid returns true if the side is YES or NO.
func (s Side) IsValid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

const (
	// MinLiquidity is the smallest admissible initial liquidity: one major
	// unit of the native currency, in minor units.
	MinLiquidity uint64 = 1_000_000_000

	// MaxQuestionLen bounds the question text in bytes.
	MaxQuestionLen = 200
)

// ──────────────────────────────────────────────────────────────────────────────
// Market
// ──────────────────────────────────────────────────────────────────────────────

// Market is the central settlement entity: two pools of net stake, a
// lifecycle state, and a single resolution authority fixed at creation.
// Pools only grow while the market is active; once resolved they are frozen
// and every claim reads them as-of resolution.
type Market struct {
	ID             uint64      `json:"id"              db:"id"`
	Question       string      `json:"question"        db:"question"`
	Creator        uuid.UUID   `json:"creator"         db:"creator"`
	Resolver       uuid.UUID   `json:"resolver"        db:"resolver"`
	YesPool        uint64      `json:"yes_pool"        db:"yes_pool"`
	NoPool         uint64      `json:"no_pool"         db:"no_pool"`
	TotalLiquidity uint64      `json:"total_liquidity" db:"total_liquidity"`
	State          MarketState `json:"state"           db:"state"`
	Outcome        *Side       `json:"outcome"         db:"outcome"`
	CloseTime      time.Time   `json:"close_time"      db:"close_time"`
	ResolutionTime *time.Time  `json:"resolution_time" db:"resolution_time"`
	CreatedAt      time.Time   `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"      db:"updated_at"`
}

// NewMarket validates the creation parameters and builds a Market together
// with its creator's liquidity position. The initial liquidity is split
// evenly between the pools by integer division; with an odd amount the spare
// unit sits in escrow outside both pools (TotalLiquidity still records the
// full deposit).
func NewMarket(id uint64, question string, creator uuid.UUID, initialLiquidity uint64, closeTime, now time.Time) (*Market, *LPPosition, error) {
	if question == "" {
		return nil, nil, ErrEmptyQuestion
	}
	if len(question) > MaxQuestionLen {
		return nil, nil, ErrQuestionTooLong
	}
	if !closeTime.After(now) {
		return nil, nil, ErrInvalidCloseTime
	}
	if initialLiquidity == 0 {
		return nil, nil, ErrInvalidLiquidity
	}
	if initialLiquidity < MinLiquidity {
		return nil, nil, ErrLiquidityTooLow
	}

	half := initialLiquidity / 2
	m := &Market{
		ID:             id,
		Question:       question,
		Creator:        creator,
		Resolver:       creator, // single-resolver capability, fixed at creation
		YesPool:        half,
		NoPool:         half,
		TotalLiquidity: initialLiquidity,
		State:          StateActive,
		CloseTime:      closeTime.UTC(),
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	lp := &LPPosition{
		ProviderID:        creator,
		MarketID:          id,
		LiquidityProvided: initialLiquidity,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}
	return m, lp, nil
}

// PoolFor returns the pool backing the given side.
func (m *Market) PoolFor(side Side) uint64 {
	if side == SideYes {
		return m.YesPool
	}
	return m.NoPool
}

// AcceptingBets reports whether a bet arriving at now may enter the market.
// Passing close_time never mutates state; it is purely a time comparison.
func (m *Market) AcceptingBets(now time.Time) bool {
	return m.State == StateActive && now.Before(m.CloseTime)
}

// IsResolved returns true once an outcome has been submitted.
func (m *Market) IsResolved() bool {
	return m.State == StateResolved
}

// ──────────────────────────────────────────────────────────────────────────────
// Bet placement
// ──────────────────────────────────────────────────────────────────────────────

// BetReceipt records the arithmetic of one accepted bet. The service layer
// uses it to drive the ledger transfers and the caller sees it in the API
// response.
type BetReceipt struct {
	MarketID    uint64 `json:"market_id"`
	Side        Side   `json:"side"`
	GrossAmount uint64 `json:"gross_amount"`
	TotalFee    uint64 `json:"total_fee"`
	ProtocolFee uint64 `json:"protocol_fee"`
	LPFee       uint64 `json:"lp_fee"`
	NetBet      uint64 `json:"net_bet"`
	EntryOdds   uint64 `json:"entry_odds"` // fixed-point, scale 1e9
}

// PlaceBet settles a gross bet into the market: it computes the fee split and
// entry odds, then applies the pool, liquidity-position, and bettor-position
// mutations. existing may be nil (first bet); the returned position is either
// the merged existing position or a freshly created one.
//
// Every intermediate value is computed with checked arithmetic before any
// field is written, so a failure leaves the market, lp, and existing position
// untouched.
func (m *Market) PlaceBet(user uuid.UUID, side Side, gross uint64, feeRateBps uint16, existing *Position, lp *LPPosition, now time.Time) (*Position, *BetReceipt, error) {
	if !side.IsValid() {
		return nil, nil, ErrInvalidSide
	}
	if m.State != StateActive {
		return nil, nil, ErrMarketNotActive
	}
	if !now.Before(m.CloseTime) {
		return nil, nil, ErrMarketClosed
	}
	if existing != nil && existing.Side != side {
		return nil, nil, ErrCannotBetBothSides
	}

	fees, err := SplitFee(gross, feeRateBps)
	if err != nil {
		return nil, nil, err
	}

	// Odds are read before this bet moves the pools.
	odds, err := EntryOdds(m.PoolFor(side), m.YesPool, m.NoPool)
	if err != nil {
		return nil, nil, err
	}

	newSidePool, err := CheckedAdd(m.PoolFor(side), fees.NetBet)
	if err != nil {
		return nil, nil, err
	}
	newTotal, err := CheckedAdd(m.TotalLiquidity, fees.NetBet)
	if err != nil {
		return nil, nil, err
	}
	newFeesEarned, err := CheckedAdd(lp.FeesEarned, fees.LPFee)
	if err != nil {
		return nil, nil, err
	}

	pos := existing
	if pos == nil {
		pos = &Position{
			UserID:    user,
			MarketID:  m.ID,
			Side:      side,
			Amount:    fees.NetBet,
			EntryOdds: odds,
			CreatedAt: now.UTC(),
		}
	} else {
		merged, err := CheckedAdd(pos.Amount, fees.NetBet)
		if err != nil {
			return nil, nil, err
		}
		pos.Amount = merged
	}
	pos.UpdatedAt = now.UTC()

	if side == SideYes {
		m.YesPool = newSidePool
	} else {
		m.NoPool = newSidePool
	}
	m.TotalLiquidity = newTotal
	m.UpdatedAt = now.UTC()

	lp.FeesEarned = newFeesEarned
	lp.UpdatedAt = now.UTC()

	return pos, &BetReceipt{
		MarketID:    m.ID,
		Side:        side,
		GrossAmount: gross,
		TotalFee:    fees.TotalFee,
		ProtocolFee: fees.ProtocolFee,
		LPFee:       fees.LPFee,
		NetBet:      fees.NetBet,
		EntryOdds:   odds,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolution
// ──────────────────────────────────────────────────────────────────────────────

// Resolve performs the one-way Active → Resolved transition. Only the
// market's designated resolver may call it, and only strictly after
// close_time.
func (m *Market) Resolve(caller uuid.UUID, outcome Side, now time.Time) error {
	if !outcome.IsValid() {
		return ErrInvalidSide
	}
	if caller != m.Resolver {
		return ErrUnauthorizedResolver
	}
	if m.State != StateActive {
		return ErrMarketNotActive
	}
	if !now.After(m.CloseTime) {
		return ErrMarketStillOpen
	}

	o := outcome
	t := now.UTC()
	m.Outcome = &o
	m.State = StateResolved
	m.ResolutionTime = &t
	m.UpdatedAt = t
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Payout
// ──────────────────────────────────────────────────────────────────────────────

// PayoutFor computes the pari-mutuel payout owed to a position: its principal
// plus a stake-proportional share of the losing pool. It validates the claim
// preconditions but does not mutate anything; the caller marks the position
// claimed only after the value transfer succeeds.
func (m *Market) PayoutFor(pos *Position) (uint64, error) {
	if m.State != StateResolved || m.Outcome == nil {
		return 0, ErrNotResolved
	}
	if pos.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if pos.Side != *m.Outcome {
		return 0, ErrPositionLost
	}

	winningPool := m.PoolFor(*m.Outcome)
	losingPool := m.PoolFor(m.Outcome.Opposite())
	return WinnerPayout(pos.Amount, losingPool, winningPool)
}

// ──────────────────────────────────────────────────────────────────────────────
// Display helpers: read models only, never settlement inputs
// ──────────────────────────────────────────────────────────────────────────────

// ImpliedProbability returns the side's pool share as a percentage (0–100)
// for display. Returns decimal.Zero for an empty market.
func (m *Market) ImpliedProbability(side Side) decimal.Decimal {
	yes := decimal.NewFromUint64(m.YesPool)
	no := decimal.NewFromUint64(m.NoPool)
	total := yes.Add(no)
	if total.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromUint64(m.PoolFor(side)).Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// MarketSummary is a derived, read-only view of a Market used by list
// endpoints and WS broadcasts.
type MarketSummary struct {
	ID             uint64          `json:"id"`
	Question       string          `json:"question"`
	State          MarketState     `json:"state"`
	AcceptingBets  bool            `json:"accepting_bets"`
	YesPool        uint64          `json:"yes_pool"`
	NoPool         uint64          `json:"no_pool"`
	TotalLiquidity uint64          `json:"total_liquidity"`
	YesPercent     decimal.Decimal `json:"yes_percent"`
	NoPercent      decimal.Decimal `json:"no_percent"`
	Outcome        *Side           `json:"outcome,omitempty"`
	CloseTime      time.Time       `json:"close_time"`
	ResolutionTime *time.Time      `json:"resolution_time,omitempty"`
}

// ToSummary builds a MarketSummary as of now.
func (m *Market) ToSummary(now time.Time) MarketSummary {
	return MarketSummary{
		ID:             m.ID,
		Question:       m.Question,
		State:          m.State,
		AcceptingBets:  m.AcceptingBets(now),
		YesPool:        m.YesPool,
		NoPool:         m.NoPool,
		TotalLiquidity: m.TotalLiquidity,
		YesPercent:     m.ImpliedProbability(SideYes),
		NoPercent:      m.ImpliedProbability(SideNo),
		Outcome:        m.Outcome,
		CloseTime:      m.CloseTime,
		ResolutionTime: m.ResolutionTime,
	}
}
