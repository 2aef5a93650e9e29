package domain

import (
	"math/bits"
)

// Checked unsigned arithmetic used by all settlement math. Every helper
// returns ErrOverflow instead of wrapping, so callers can abort the whole
// operation without partial state mutation.

// CheckedAdd returns a + b, or ErrOverflow if the sum does not fit in uint64.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a - b, or ErrOverflow if b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MulDiv returns floor(a * b / den), computing the product in 128 bits so the
// intermediate never overflows. ErrOverflow is returned when den is zero or
// the quotient does not fit back into uint64.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		// Quotient would need more than 64 bits.
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}
