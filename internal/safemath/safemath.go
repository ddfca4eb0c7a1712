package safemath

import (
	"errors"
	"math/big"
)

// Arithmetic failures shared by every engine formula.
var (
	ErrOverflow       = errors.New("overflow: result exceeds 256-bit range")
	ErrDivisionByZero = errors.New("division by zero")
	ErrNegative       = errors.New("negative value")
)

// maxUint256 bounds every result to the reserve width (2^256 - 1).
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func fits(v *big.Int) bool {
	return v.Cmp(maxUint256) <= 0
}

// MulDiv computes floor(a*b/denominator) over an unbounded intermediate.
// The intermediate product never overflows; only the final quotient is
// checked against the 256-bit cap.
func MulDiv(a, b, denominator *big.Int) (*big.Int, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if a.Sign() < 0 || b.Sign() < 0 || denominator.Sign() < 0 {
		return nil, ErrNegative
	}

	result := new(big.Int).Mul(a, b)
	result.Quo(result, denominator)
	if !fits(result) {
		return nil, ErrOverflow
	}
	return result, nil
}

// CheckedAdd returns a+b or ErrOverflow past the 256-bit cap.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	result := new(big.Int).Add(a, b)
	if !fits(result) {
		return nil, ErrOverflow
	}
	return result, nil
}

// CheckedSub returns a-b or ErrNegative when b exceeds a.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrNegative
	}
	return new(big.Int).Sub(a, b), nil
}

// CheckedMul returns a*b or ErrOverflow past the 256-bit cap.
func CheckedMul(a, b *big.Int) (*big.Int, error) {
	result := new(big.Int).Mul(a, b)
	if !fits(result) {
		return nil, ErrOverflow
	}
	return result, nil
}

// Isqrt returns floor(sqrt(a*b)), the geometric mean used for initial
// liquidity shares.
func Isqrt(a, b *big.Int) (*big.Int, error) {
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, ErrNegative
	}
	product := new(big.Int).Mul(a, b)
	return product.Sqrt(product), nil
}
