package domain

// Settlement arithmetic: fee splitting, entry odds, and pari-mutuel payouts.
// All functions are pure and integer-only. Division always floors; the
// rounding residues this produces (fee dust, odd liquidity units) stay in the
// market escrow and are never redistributed.

const (
	// FeeDenominator converts basis points to a fraction (10000 bps = 100 %).
	FeeDenominator = 10_000

	// MaxFeeRateBps is the largest admissible protocol fee rate.
	MaxFeeRateBps = 10_000

	// OddsScale is the fixed-point scale of entry odds (1.0 == 1e9).
	OddsScale = 1_000_000_000

	// protocolFeeShare and lpFeeShare split every bet's total fee 20/80.
	// Each share is floored independently; up to one unit of dust per bet
	// remains unassigned and accumulates in the escrow.
	protocolFeeShare = 20
	lpFeeShare       = 80
)

// FeeBreakdown is the result of splitting a gross bet amount.
type FeeBreakdown struct {
	TotalFee    uint64 // floor(gross × feeRate / 10000)
	ProtocolFee uint64 // floor(totalFee * 20 / 100), to the treasury
	LPFee       uint64 // floor(totalFee * 80 / 100), accrues to the LP position
	NetBet      uint64 // gross minus totalFee, enters the chosen pool
}

// SplitFee computes the fee breakdown for a gross bet amount at the given
// protocol fee rate.
func SplitFee(gross uint64, feeRateBps uint16) (FeeBreakdown, error) {
	if gross == 0 {
		return FeeBreakdown{}, ErrInvalidAmount
	}
	if feeRateBps > MaxFeeRateBps {
		return FeeBreakdown{}, ErrInvalidFeeRate
	}

	totalFee, err := MulDiv(gross, uint64(feeRateBps), FeeDenominator)
	if err != nil {
		return FeeBreakdown{}, err
	}
	protocolFee, err := MulDiv(totalFee, protocolFeeShare, 100)
	if err != nil {
		return FeeBreakdown{}, err
	}
	lpFee, err := MulDiv(totalFee, lpFeeShare, 100)
	if err != nil {
		return FeeBreakdown{}, err
	}
	netBet, err := CheckedSub(gross, totalFee)
	if err != nil {
		return FeeBreakdown{}, err
	}

	return FeeBreakdown{
		TotalFee:    totalFee,
		ProtocolFee: protocolFee,
		LPFee:       lpFee,
		NetBet:      netBet,
	}, nil
}

// EntryOdds returns the chosen side's pool share as a fixed-point probability
// (scale OddsScale), measured before the bet mutates the pools. Informational
// only; payouts never read it.
func EntryOdds(sidePool, yesPool, noPool uint64) (uint64, error) {
	total, err := CheckedAdd(yesPool, noPool)
	if err != nil {
		return 0, err
	}
	return MulDiv(sidePool, OddsScale, total)
}

// WinnerPayout returns stake + floor(stake × losingPool / winningPool): the
// winner's principal plus a stake-proportional share of the entire losing
// pool. Summed over all winners the proportional shares reconstruct the
// losing pool exactly, minus per-winner flooring loss absorbed by the escrow.
func WinnerPayout(stake, losingPool, winningPool uint64) (uint64, error) {
	share, err := MulDiv(stake, losingPool, winningPool)
	if err != nil {
		return 0, err
	}
	return CheckedAdd(stake, share)
}
