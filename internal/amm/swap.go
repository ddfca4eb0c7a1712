package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapLedger/internal/model"
	"swapLedger/internal/safemath"
)

// amountOutGivenIn is the constant-product exact-in quote with the fee
// deducted from the input:
//
//	out = reserveOut * in*(D-f) / (reserveIn*D + in*(D-f))
//
// computed as one combined expression so the only floor is the final one.
func amountOutGivenIn(amountIn, reserveIn, reserveOut *big.Int, feeBps uint64) (*big.Int, error) {
	feeMul := new(big.Int).SetUint64(FeeDenom - feeBps)
	amountInWithFee, err := safemath.CheckedMul(amountIn, feeMul)
	if err != nil {
		return nil, err
	}
	denominator, err := safemath.CheckedMul(reserveIn, new(big.Int).SetUint64(FeeDenom))
	if err != nil {
		return nil, err
	}
	denominator, err = safemath.CheckedAdd(denominator, amountInWithFee)
	if err != nil {
		return nil, err
	}
	return safemath.MulDiv(amountInWithFee, reserveOut, denominator)
}

// amountInGivenOut is the inverse quote, rounded up so the caller never
// under-pays:
//
//	in = reserveIn * out * D / ((reserveOut - out) * (D-f)) + 1
func amountInGivenOut(amountOut, reserveIn, reserveOut *big.Int, feeBps uint64) (*big.Int, error) {
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	numeratorPart, err := safemath.CheckedMul(amountOut, new(big.Int).SetUint64(FeeDenom))
	if err != nil {
		return nil, err
	}
	gap := new(big.Int).Sub(reserveOut, amountOut)
	denominator, err := safemath.CheckedMul(gap, new(big.Int).SetUint64(FeeDenom-feeBps))
	if err != nil {
		return nil, err
	}
	amountIn, err := safemath.MulDiv(reserveIn, numeratorPart, denominator)
	if err != nil {
		return nil, err
	}
	return safemath.CheckedAdd(amountIn, big.NewInt(1))
}

// GetAmountOut quotes the output of an exact-input swap without touching
// pool state or the ledger.
func (e *Engine) GetAmountOut(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("quote: %w", ErrZeroAmount)
	}
	pool, ok, err := e.lookup(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("quote %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	reserveIn, reserveOut := pool.oriented(tokenIn)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, fmt.Errorf("quote %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}
	return amountOutGivenIn(amountIn, reserveIn, reserveOut, pool.feeBps)
}

// GetAmountIn quotes the input required for an exact-output swap.
func (e *Engine) GetAmountIn(tokenIn, tokenOut common.Address, amountOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("quote: %w", ErrZeroAmount)
	}
	pool, ok, err := e.lookup(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("quote %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	reserveIn, reserveOut := pool.oriented(tokenIn)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, fmt.Errorf("quote %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}
	return amountInGivenOut(amountOut, reserveIn, reserveOut, pool.feeBps)
}

// SwapExactIn executes an exact-input swap for the trader and returns the
// output amount. Exactly one history record is appended on success.
func (e *Engine) SwapExactIn(tokenIn, tokenOut common.Address, amountIn *big.Int, trader common.Address) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("swap: %w", ErrZeroAmount)
	}
	pool, err := e.swapPool(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	reserveIn, reserveOut := pool.oriented(tokenIn)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, fmt.Errorf("swap %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}

	amountOut, err := amountOutGivenIn(amountIn, reserveIn, reserveOut, pool.feeBps)
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("swap %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrInsufficientLiquidity)
	}

	if err := e.applySwap(pool, tokenIn, tokenOut, amountIn, amountOut, trader); err != nil {
		return nil, err
	}
	return amountOut, nil
}

// SwapExactOut executes an exact-output swap for the trader and returns
// the input amount charged.
func (e *Engine) SwapExactOut(tokenIn, tokenOut common.Address, amountOut *big.Int, trader common.Address) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("swap: %w", ErrZeroAmount)
	}
	pool, err := e.swapPool(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	reserveIn, reserveOut := pool.oriented(tokenIn)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, fmt.Errorf("swap %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrPoolEmpty)
	}

	amountIn, err := amountInGivenOut(amountOut, reserveIn, reserveOut, pool.feeBps)
	if err != nil {
		return nil, fmt.Errorf("swap %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), err)
	}

	if err := e.applySwap(pool, tokenIn, tokenOut, amountIn, amountOut, trader); err != nil {
		return nil, err
	}
	return amountIn, nil
}

// swapPool resolves the pool for a swap. Swaps on a pair that was never
// deposited into fail with ErrUnknownPool rather than ErrPoolEmpty.
func (e *Engine) swapPool(tokenIn, tokenOut common.Address) (*Pool, error) {
	pool, ok, err := e.lookup(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("swap %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrUnknownPool)
	}
	return pool, nil
}

// applySwap settles the trade and commits the reserve update. Callers hold
// the pool lock and have validated reserves and amounts.
func (e *Engine) applySwap(pool *Pool, tokenIn, tokenOut common.Address, amountIn, amountOut *big.Int, trader common.Address) error {
	reserveIn, reserveOut := pool.oriented(tokenIn)

	newReserveIn, err := safemath.CheckedAdd(reserveIn, amountIn)
	if err != nil {
		return fmt.Errorf("reserve in: %w", err)
	}
	newReserveOut, err := safemath.CheckedSub(reserveOut, amountOut)
	if err != nil {
		return fmt.Errorf("reserve out: %w", err)
	}

	// k must never decrease across a swap
	kBefore := new(big.Int).Mul(reserveIn, reserveOut)
	kAfter := new(big.Int).Mul(newReserveIn, newReserveOut)
	if kAfter.Cmp(kBefore) < 0 {
		return fmt.Errorf("swap %s->%s: k %s -> %s: %w",
			tokenIn.Hex(), tokenOut.Hex(), kBefore, kAfter, ErrInvariantViolation)
	}

	if err := e.settleIn(trader, []common.Address{tokenIn}, []*big.Int{amountIn}); err != nil {
		return err
	}
	if err := e.settleOut(trader, []common.Address{tokenOut}, []*big.Int{amountOut}); err != nil {
		if e.bank != nil {
			if refundErr := e.bank.Transfer(trader, tokenIn, amountIn); refundErr != nil {
				e.logger.Error("refund after failed swap payout",
					zap.String("trader", trader.Hex()),
					zap.String("token", tokenIn.Hex()),
					zap.Error(refundErr),
				)
			}
		}
		return err
	}

	pool.setOriented(tokenIn, newReserveIn, newReserveOut)

	e.record(model.HistoryRecord{
		Kind:      model.RecordKindSwap,
		User:      trader.Hex(),
		TokenIn:   tokenIn.Hex(),
		TokenOut:  tokenOut.Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
		Timestamp: e.timestamp(),
	})

	e.logger.Debug("swap executed",
		zap.String("trader", trader.Hex()),
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)

	return nil
}
