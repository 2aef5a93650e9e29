package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oyku/yesno/internal/domain"
)

// ── Fee split ─────────────────────────────────────────────────────────────────

// TestSplitFee_Vector validates the canonical fee-split example.
//
//	gross = 1000, feeRate = 300 bps (3 %):
//	  totalFee    = 30
//	  protocolFee = floor(30 × 20/100) = 6
//	  lpFee       = floor(30 × 80/100) = 24
//	  netBet      = 970
func TestSplitFee_Vector(t *testing.T) {
	fees, err := domain.SplitFee(1000, 300)
	if err != nil {
		t.Fatalf("SplitFee: %v", err)
	}
	if fees.TotalFee != 30 {
		t.Errorf("TotalFee = %d, want 30", fees.TotalFee)
	}
	if fees.ProtocolFee != 6 {
		t.Errorf("ProtocolFee = %d, want 6", fees.ProtocolFee)
	}
	if fees.LPFee != 24 {
		t.Errorf("LPFee = %d, want 24", fees.LPFee)
	}
	if fees.NetBet != 970 {
		t.Errorf("NetBet = %d, want 970", fees.NetBet)
	}
}

// TestSplitFee_DustStaysUnassigned checks that the 20/80 shares are floored
// independently: protocolFee + lpFee may fall short of totalFee by up to one
// unit, and that residual is never redistributed.
func TestSplitFee_DustStaysUnassigned(t *testing.T) {
	// gross = 1033, 300 bps → totalFee = 30, shares floor to 6 + 24 = 30.
	// gross = 367, 300 bps → totalFee = 11, shares floor to 2 + 8 = 10 (dust 1).
	fees, err := domain.SplitFee(367, 300)
	if err != nil {
		t.Fatalf("SplitFee: %v", err)
	}
	if fees.TotalFee != 11 {
		t.Fatalf("TotalFee = %d, want 11", fees.TotalFee)
	}
	if fees.ProtocolFee+fees.LPFee != 10 {
		t.Errorf("protocolFee+lpFee = %d, want 10 (dust of 1 absorbed)", fees.ProtocolFee+fees.LPFee)
	}
	if fees.ProtocolFee+fees.LPFee > fees.TotalFee {
		t.Errorf("fee shares exceed the total fee")
	}
}

func TestSplitFee_ZeroRate(t *testing.T) {
	fees, err := domain.SplitFee(500, 0)
	if err != nil {
		t.Fatalf("SplitFee: %v", err)
	}
	if fees.TotalFee != 0 || fees.NetBet != 500 {
		t.Errorf("zero rate should pass the gross amount through, got %+v", fees)
	}
}

func TestSplitFee_ZeroAmount(t *testing.T) {
	if _, err := domain.SplitFee(0, 300); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("SplitFee(0) err = %v, want ErrInvalidAmount", err)
	}
}

func TestSplitFee_RateAboveLimit(t *testing.T) {
	if _, err := domain.SplitFee(1000, 10001); !errors.Is(err, domain.ErrInvalidFeeRate) {
		t.Errorf("SplitFee(rate>10000) err = %v, want ErrInvalidFeeRate", err)
	}
}

// ── Entry odds ────────────────────────────────────────────────────────────────

// TestEntryOdds uses the proportional-pool estimate:
//
//	yes = 600, no = 400 → YES odds = floor(600 × 1e9 / 1000) = 0.6 × 1e9
func TestEntryOdds(t *testing.T) {
	odds, err := domain.EntryOdds(600, 600, 400)
	if err != nil {
		t.Fatalf("EntryOdds: %v", err)
	}
	want := uint64(600_000_000)
	if odds != want {
		t.Errorf("EntryOdds = %d, want %d", odds, want)
	}
}

func TestEntryOdds_EmptyPools(t *testing.T) {
	if _, err := domain.EntryOdds(0, 0, 0); !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("EntryOdds with empty pools err = %v, want ErrOverflow", err)
	}
}

// ── Pari-mutuel payout ────────────────────────────────────────────────────────

// TestWinnerPayout_Vector validates the canonical payout example.
//
//	yes_pool = 600, no_pool = 400, outcome = YES, stake = 100:
//	  winnerShare = floor(100 × 400 / 600) = 66
//	  totalPayout = 100 + 66 = 166
func TestWinnerPayout_Vector(t *testing.T) {
	payout, err := domain.WinnerPayout(100, 400, 600)
	if err != nil {
		t.Fatalf("WinnerPayout: %v", err)
	}
	if payout != 166 {
		t.Errorf("WinnerPayout = %d, want 166", payout)
	}
}

// TestWinnerPayout_Conservation checks that the proportional shares of all
// winners reconstruct the losing pool, modulo per-winner flooring loss.
func TestWinnerPayout_Conservation(t *testing.T) {
	const losingPool = 400
	stakes := []uint64{100, 250, 175, 75} // winningPool = 600
	var winningPool uint64
	for _, s := range stakes {
		winningPool += s
	}

	var paidShares uint64
	for _, s := range stakes {
		payout, err := domain.WinnerPayout(s, losingPool, winningPool)
		if err != nil {
			t.Fatalf("WinnerPayout(%d): %v", s, err)
		}
		paidShares += payout - s
	}

	if paidShares > losingPool {
		t.Errorf("total winner shares %d exceed the losing pool %d", paidShares, losingPool)
	}
	// Flooring may lose at most one unit per winner.
	if losingPool-paidShares >= uint64(len(stakes)) {
		t.Errorf("rounding loss %d too large for %d winners", losingPool-paidShares, len(stakes))
	}
}

// TestWinnerPayout_Overflow drives the widened multiplication past what can
// narrow back into uint64.
func TestWinnerPayout_Overflow(t *testing.T) {
	_, err := domain.WinnerPayout(math.MaxUint64, math.MaxUint64, 2)
	if !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("WinnerPayout overflow err = %v, want ErrOverflow", err)
	}
}

// ── Full bet sequence: conservation ───────────────────────────────────────────

// TestPlaceBet_Conservation runs a sequence of bets and verifies
//
//	total_liquidity == initial_liquidity + Σ net_bet
//	yes_pool + no_pool == total_liquidity  (even initial split)
//	lp.fees_earned == Σ lp_fee
func TestPlaceBet_Conservation(t *testing.T) {
	now := time.Now().UTC()
	creator := uuid.New()
	market, lp, err := domain.NewMarket(1, "Will it rain tomorrow?", creator, 2_000_000_000, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	initial := market.TotalLiquidity

	const feeRate = 300
	bets := []struct {
		side  domain.Side
		gross uint64
	}{
		{domain.SideYes, 1_000},
		{domain.SideNo, 2_500},
		{domain.SideYes, 999},
		{domain.SideNo, 70_001},
	}

	var sumNet, sumLPFee uint64
	positions := map[uuid.UUID]*domain.Position{}
	for i, b := range bets {
		user := uuid.New()
		pos, receipt, err := market.PlaceBet(user, b.side, b.gross, feeRate, nil, lp, now.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("PlaceBet #%d: %v", i, err)
		}
		positions[user] = pos
		sumNet += receipt.NetBet
		sumLPFee += receipt.LPFee

		if receipt.NetBet+receipt.TotalFee != b.gross {
			t.Errorf("bet #%d: netBet %d + totalFee %d != gross %d", i, receipt.NetBet, receipt.TotalFee, b.gross)
		}
	}

	if market.TotalLiquidity != initial+sumNet {
		t.Errorf("total_liquidity = %d, want initial %d + Σnet %d", market.TotalLiquidity, initial, sumNet)
	}
	if market.YesPool+market.NoPool != market.TotalLiquidity {
		t.Errorf("yes %d + no %d != total_liquidity %d", market.YesPool, market.NoPool, market.TotalLiquidity)
	}
	if lp.FeesEarned != sumLPFee {
		t.Errorf("lp.FeesEarned = %d, want Σ lpFee %d", lp.FeesEarned, sumLPFee)
	}
}

// TestPlaceBet_MergesSameSide verifies repeated bets by one user merge into a
// single position and keep the first bet's entry odds.
func TestPlaceBet_MergesSameSide(t *testing.T) {
	now := time.Now().UTC()
	user := uuid.New()
	market, lp, err := domain.NewMarket(1, "merge", uuid.New(), domain.MinLiquidity, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}

	pos, first, err := market.PlaceBet(user, domain.SideYes, 1_000, 300, nil, lp, now)
	if err != nil {
		t.Fatalf("first bet: %v", err)
	}
	merged, second, err := market.PlaceBet(user, domain.SideYes, 2_000, 300, pos, lp, now)
	if err != nil {
		t.Fatalf("second bet: %v", err)
	}

	if merged != pos {
		t.Error("second bet should mutate the existing position, not allocate a new one")
	}
	if merged.Amount != first.NetBet+second.NetBet {
		t.Errorf("merged amount = %d, want %d", merged.Amount, first.NetBet+second.NetBet)
	}
	if merged.EntryOdds != first.EntryOdds {
		t.Errorf("entry odds must stay at the first bet's value: %d != %d", merged.EntryOdds, first.EntryOdds)
	}
}
