package domain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/oyku/yesno/internal/domain"
)

func TestCheckedAdd(t *testing.T) {
	if got, err := domain.CheckedAdd(math.MaxUint64-1, 1); err != nil || got != math.MaxUint64 {
		t.Errorf("CheckedAdd = %d, %v", got, err)
	}
	if _, err := domain.CheckedAdd(math.MaxUint64, 1); !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("overflow err = %v, want ErrOverflow", err)
	}
}

func TestCheckedSub(t *testing.T) {
	if got, err := domain.CheckedSub(10, 10); err != nil || got != 0 {
		t.Errorf("CheckedSub = %d, %v", got, err)
	}
	if _, err := domain.CheckedSub(0, 1); !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("underflow err = %v, want ErrOverflow", err)
	}
}

func TestMulDiv(t *testing.T) {
	// Intermediate product exceeds 64 bits but the quotient fits.
	got, err := domain.MulDiv(math.MaxUint64, 2, 4)
	if err != nil {
		t.Fatalf("MulDiv: %v", err)
	}
	if want := uint64(math.MaxUint64 / 2); got != want {
		t.Errorf("MulDiv = %d, want %d", got, want)
	}

	// Truncation, never rounding.
	if got, _ := domain.MulDiv(7, 3, 2); got != 10 {
		t.Errorf("MulDiv(7,3,2) = %d, want 10", got)
	}

	if _, err := domain.MulDiv(1, 1, 0); !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("zero denominator err = %v, want ErrOverflow", err)
	}
	if _, err := domain.MulDiv(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, domain.ErrOverflow) {
		t.Errorf("oversized quotient err = %v, want ErrOverflow", err)
	}
}
