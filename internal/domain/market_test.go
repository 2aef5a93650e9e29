package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oyku/yesno/internal/domain"
)

func newTestMarket(t *testing.T, liquidity uint64) (*domain.Market, *domain.LPPosition, uuid.UUID, time.Time) {
	t.Helper()
	now := time.Now().UTC()
	creator := uuid.New()
	m, lp, err := domain.NewMarket(7, "Will BTC close above 100k this year?", creator, liquidity, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	return m, lp, creator, now
}

// ── Creation ──────────────────────────────────────────────────────────────────

func TestNewMarket_EvenSplit(t *testing.T) {
	m, lp, creator, _ := newTestMarket(t, 2_000_000_000)
	if m.YesPool != 1_000_000_000 || m.NoPool != 1_000_000_000 {
		t.Errorf("pools = %d/%d, want even split", m.YesPool, m.NoPool)
	}
	if m.TotalLiquidity != 2_000_000_000 {
		t.Errorf("total_liquidity = %d, want full deposit", m.TotalLiquidity)
	}
	if m.Resolver != creator {
		t.Error("resolver should default to the creator")
	}
	if m.State != domain.StateActive {
		t.Errorf("state = %s, want active", m.State)
	}
	if lp.LiquidityProvided != 2_000_000_000 || lp.FeesEarned != 0 {
		t.Errorf("lp position = %+v, want full liquidity and zero fees", lp)
	}
}

// TestNewMarket_OddSplit: an odd initial liquidity drops one unit from the
// pools (it sits in escrow); total_liquidity still records the full deposit.
func TestNewMarket_OddSplit(t *testing.T) {
	m, _, _, _ := newTestMarket(t, 2_000_000_001)
	if m.YesPool != 1_000_000_000 || m.NoPool != 1_000_000_000 {
		t.Errorf("pools = %d/%d, want floor(liquidity/2) each", m.YesPool, m.NoPool)
	}
	if m.TotalLiquidity != 2_000_000_001 {
		t.Errorf("total_liquidity = %d, want 2000000001", m.TotalLiquidity)
	}
}

func TestNewMarket_Validation(t *testing.T) {
	now := time.Now().UTC()
	creator := uuid.New()
	future := now.Add(time.Hour)

	cases := []struct {
		name      string
		question  string
		liquidity uint64
		closeTime time.Time
		want      error
	}{
		{"empty question", "", domain.MinLiquidity, future, domain.ErrEmptyQuestion},
		{"question too long", string(make([]byte, domain.MaxQuestionLen+1)), domain.MinLiquidity, future, domain.ErrQuestionTooLong},
		{"close time in past", "q", domain.MinLiquidity, now.Add(-time.Second), domain.ErrInvalidCloseTime},
		{"close time now", "q", domain.MinLiquidity, now, domain.ErrInvalidCloseTime},
		{"zero liquidity", "q", 0, future, domain.ErrInvalidLiquidity},
		{"below minimum", "q", domain.MinLiquidity - 1, future, domain.ErrLiquidityTooLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := domain.NewMarket(1, tc.question, creator, tc.liquidity, tc.closeTime, now)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

// ── Bet gating ────────────────────────────────────────────────────────────────

func TestPlaceBet_RejectedAtCloseTime(t *testing.T) {
	m, lp, _, _ := newTestMarket(t, domain.MinLiquidity)
	// A bet exactly at close_time is already too late.
	_, _, err := m.PlaceBet(uuid.New(), domain.SideYes, 1000, 300, nil, lp, m.CloseTime)
	if !errors.Is(err, domain.ErrMarketClosed) {
		t.Errorf("bet at close_time err = %v, want ErrMarketClosed", err)
	}
}

func TestPlaceBet_RejectedAfterResolution(t *testing.T) {
	m, lp, creator, _ := newTestMarket(t, domain.MinLiquidity)
	after := m.CloseTime.Add(time.Minute)
	if err := m.Resolve(creator, domain.SideYes, after); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, _, err := m.PlaceBet(uuid.New(), domain.SideYes, 1000, 300, nil, lp, after)
	if !errors.Is(err, domain.ErrMarketNotActive) {
		t.Errorf("bet on resolved market err = %v, want ErrMarketNotActive", err)
	}
}

func TestPlaceBet_SideImmutable(t *testing.T) {
	m, lp, _, now := newTestMarket(t, domain.MinLiquidity)
	user := uuid.New()

	pos, _, err := m.PlaceBet(user, domain.SideNo, 1000, 300, nil, lp, now)
	if err != nil {
		t.Fatalf("first bet: %v", err)
	}

	yesBefore, noBefore, feesBefore := m.YesPool, m.NoPool, lp.FeesEarned
	_, _, err = m.PlaceBet(user, domain.SideYes, 1000, 300, pos, lp, now)
	if !errors.Is(err, domain.ErrCannotBetBothSides) {
		t.Fatalf("opposite-side bet err = %v, want ErrCannotBetBothSides", err)
	}
	// A rejected bet must not have touched anything.
	if m.YesPool != yesBefore || m.NoPool != noBefore || lp.FeesEarned != feesBefore {
		t.Error("rejected bet mutated market or lp state")
	}
	if pos.Side != domain.SideNo {
		t.Error("rejected bet changed the position's side")
	}
}

func TestPlaceBet_InvalidInputs(t *testing.T) {
	m, lp, _, now := newTestMarket(t, domain.MinLiquidity)
	if _, _, err := m.PlaceBet(uuid.New(), "MAYBE", 1000, 300, nil, lp, now); !errors.Is(err, domain.ErrInvalidSide) {
		t.Errorf("invalid side err = %v, want ErrInvalidSide", err)
	}
	if _, _, err := m.PlaceBet(uuid.New(), domain.SideYes, 0, 300, nil, lp, now); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero amount err = %v, want ErrInvalidAmount", err)
	}
}

func TestAcceptingBets_DerivedPredicate(t *testing.T) {
	m, _, _, now := newTestMarket(t, domain.MinLiquidity)
	if !m.AcceptingBets(now) {
		t.Error("active market before close_time should accept bets")
	}
	if m.AcceptingBets(m.CloseTime) {
		t.Error("market at close_time should not accept bets")
	}
	// Passing close_time is a time comparison, never a stored transition.
	if m.State != domain.StateActive {
		t.Errorf("state changed to %s without a transition", m.State)
	}
}

// ── Resolution ────────────────────────────────────────────────────────────────

func TestResolve_Gating(t *testing.T) {
	m, _, creator, now := newTestMarket(t, domain.MinLiquidity)
	after := m.CloseTime.Add(time.Minute)

	// Before close_time.
	if err := m.Resolve(creator, domain.SideYes, now); !errors.Is(err, domain.ErrMarketStillOpen) {
		t.Errorf("resolve before close err = %v, want ErrMarketStillOpen", err)
	}
	// Exactly at close_time is still too early (strictly-after rule).
	if err := m.Resolve(creator, domain.SideYes, m.CloseTime); !errors.Is(err, domain.ErrMarketStillOpen) {
		t.Errorf("resolve at close err = %v, want ErrMarketStillOpen", err)
	}
	// Wrong caller.
	if err := m.Resolve(uuid.New(), domain.SideYes, after); !errors.Is(err, domain.ErrUnauthorizedResolver) {
		t.Errorf("resolve by stranger err = %v, want ErrUnauthorizedResolver", err)
	}

	if err := m.Resolve(creator, domain.SideNo, after); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.State != domain.StateResolved || m.Outcome == nil || *m.Outcome != domain.SideNo {
		t.Errorf("market after resolve = %s/%v", m.State, m.Outcome)
	}
	if m.ResolutionTime == nil {
		t.Error("resolution_time not recorded")
	}

	// One-way, terminal.
	if err := m.Resolve(creator, domain.SideYes, after.Add(time.Minute)); !errors.Is(err, domain.ErrMarketNotActive) {
		t.Errorf("second resolve err = %v, want ErrMarketNotActive", err)
	}
	if *m.Outcome != domain.SideNo {
		t.Error("second resolve changed the outcome")
	}
}

// ── Payout claims ─────────────────────────────────────────────────────────────

// TestPayoutFor_WinnerAndLoser drives a market through two zero-fee bets
// and a resolution, then checks both claim paths: the winner receives
// stake plus a pro-rata share of the losing pool, the loser receives an
// explicit rejection rather than a zero payout.
func TestPayoutFor_WinnerAndLoser(t *testing.T) {
	now := time.Now().UTC()
	creator := uuid.New()
	m, lp, err := domain.NewMarket(3, "payout", creator, domain.MinLiquidity, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}

	winner, loser := uuid.New(), uuid.New()
	winPos, _, err := m.PlaceBet(winner, domain.SideYes, 100, 0, nil, lp, now)
	if err != nil {
		t.Fatalf("winner bet: %v", err)
	}
	losePos, _, err := m.PlaceBet(loser, domain.SideNo, 300, 0, nil, lp, now)
	if err != nil {
		t.Fatalf("loser bet: %v", err)
	}

	// Claims before resolution must fail.
	if _, err := m.PayoutFor(winPos); !errors.Is(err, domain.ErrNotResolved) {
		t.Errorf("claim before resolution err = %v, want ErrNotResolved", err)
	}

	if err := m.Resolve(creator, domain.SideYes, m.CloseTime.Add(time.Minute)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	payout, err := m.PayoutFor(winPos)
	if err != nil {
		t.Fatalf("PayoutFor(winner): %v", err)
	}
	wantShare, err := domain.MulDiv(winPos.Amount, m.NoPool, m.YesPool)
	if err != nil {
		t.Fatalf("MulDiv: %v", err)
	}
	if payout != winPos.Amount+wantShare {
		t.Errorf("payout = %d, want %d", payout, winPos.Amount+wantShare)
	}

	if _, err := m.PayoutFor(losePos); !errors.Is(err, domain.ErrPositionLost) {
		t.Errorf("loser claim err = %v, want ErrPositionLost", err)
	}
}

// TestPayoutFor_Vector pins a known vector: pools 600/400, outcome YES,
// stake 100 → payout 166.
func TestPayoutFor_Vector(t *testing.T) {
	side := domain.SideYes
	m := &domain.Market{
		ID:      1,
		YesPool: 600,
		NoPool:  400,
		State:   domain.StateResolved,
		Outcome: &side,
	}
	pos := &domain.Position{MarketID: 1, Side: domain.SideYes, Amount: 100}
	payout, err := m.PayoutFor(pos)
	if err != nil {
		t.Fatalf("PayoutFor: %v", err)
	}
	if payout != 166 {
		t.Errorf("payout = %d, want 166", payout)
	}
}

func TestPayoutFor_ExactlyOnce(t *testing.T) {
	side := domain.SideNo
	m := &domain.Market{YesPool: 600, NoPool: 400, State: domain.StateResolved, Outcome: &side}
	pos := &domain.Position{Side: domain.SideNo, Amount: 50}

	if _, err := m.PayoutFor(pos); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	// The service marks Claimed only after the transfer succeeds.
	pos.Claimed = true
	if _, err := m.PayoutFor(pos); !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Errorf("second claim err = %v, want ErrAlreadyClaimed", err)
	}
}

// ── LP fee claims ─────────────────────────────────────────────────────────────

func TestLPPosition_ClaimFees(t *testing.T) {
	now := time.Now().UTC()
	lp := &domain.LPPosition{ProviderID: uuid.New(), MarketID: 1, FeesEarned: 240, FeesClaimedAmount: 60}

	amount, err := lp.ClaimFees(now)
	if err != nil {
		t.Fatalf("ClaimFees: %v", err)
	}
	if amount != 240 {
		t.Errorf("claim amount = %d, want 240", amount)
	}
	if lp.FeesEarned != 0 {
		t.Errorf("fees_earned = %d, want 0 after claim", lp.FeesEarned)
	}
	if lp.FeesClaimedAmount != 300 {
		t.Errorf("fees_claimed_amount = %d, want cumulative 300", lp.FeesClaimedAmount)
	}
	if !lp.FeesClaimed {
		t.Error("fees_claimed flag not set")
	}

	// Second claim with nothing accrued fails cleanly.
	if _, err := lp.ClaimFees(now); !errors.Is(err, domain.ErrNoFeesToClaim) {
		t.Errorf("empty claim err = %v, want ErrNoFeesToClaim", err)
	}
	if lp.FeesClaimedAmount != 300 {
		t.Error("failed claim mutated the cumulative total")
	}
}
