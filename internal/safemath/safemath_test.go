package safemath

import (
	"errors"
	"math/big"
	"testing"
)

func TestMulDivFloors(t *testing.T) {
	got, err := MulDiv(big.NewInt(7), big.NewInt(3), big.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("floor mismatch: got %s want 10", got)
	}
}

func TestMulDivWideIntermediate(t *testing.T) {
	// a*b overflows 256 bits but the quotient fits.
	big255 := new(big.Int).Lsh(big.NewInt(1), 255)
	got, err := MulDiv(big255, big.NewInt(4), big.NewInt(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 254)
	if got.Cmp(want) != 0 {
		t.Fatalf("mismatch: got %s want %s", got, want)
	}
}

func TestMulDivOverflow(t *testing.T) {
	big255 := new(big.Int).Lsh(big.NewInt(1), 255)
	if _, err := MulDiv(big255, big.NewInt(4), big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestMulDivDivisionByZero(t *testing.T) {
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestCheckedAddSub(t *testing.T) {
	sum, err := CheckedAdd(big.NewInt(2), big.NewInt(3))
	if err != nil || sum.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("add mismatch: %s %v", sum, err)
	}

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if _, err := CheckedAdd(max, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}

	if _, err := CheckedSub(big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrNegative) {
		t.Fatalf("expected ErrNegative, got %v", err)
	}
}

func TestIsqrt(t *testing.T) {
	got, err := Isqrt(big.NewInt(1000), big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("isqrt mismatch: got %s want 1000", got)
	}

	// floor(sqrt(2*3)) = 2
	got, err = Isqrt(big.NewInt(2), big.NewInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("isqrt mismatch: got %s want 2", got)
	}
}
