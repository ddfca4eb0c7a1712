package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapLedger/internal/model"
	"swapLedger/internal/safemath"
)

// AddLiquidity deposits the token pair and mints liquidity shares to the
// provider. The first deposit for a pair creates the pool, mints
// isqrt(amountA*amountB) shares and sets the reserves directly. Later
// deposits mint min(amountA*S/reserveA, amountB*S/reserveB) and consume
// only the proportional amounts; the excess of the larger-ratio side
// stays with the provider.
func (e *Engine) AddLiquidity(tokenA, tokenB common.Address, amountA, amountB *big.Int, provider common.Address) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, fmt.Errorf("add liquidity: %w", ErrZeroAmount)
	}

	pool, _, err := e.ResolvePool(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	reserveA, reserveB := pool.oriented(tokenA)

	var minted, usedA, usedB *big.Int
	if pool.totalShares.Sign() == 0 {
		minted, err = safemath.Isqrt(amountA, amountB)
		if err != nil {
			return nil, fmt.Errorf("initial shares: %w", err)
		}
		if minted.Sign() == 0 {
			return nil, fmt.Errorf("add liquidity: %w", ErrInsufficientInitialLiquidity)
		}
		usedA, usedB = new(big.Int).Set(amountA), new(big.Int).Set(amountB)
	} else {
		sharesFromA, err := safemath.MulDiv(amountA, pool.totalShares, reserveA)
		if err != nil {
			return nil, fmt.Errorf("shares from %s: %w", tokenA.Hex(), err)
		}
		sharesFromB, err := safemath.MulDiv(amountB, pool.totalShares, reserveB)
		if err != nil {
			return nil, fmt.Errorf("shares from %s: %w", tokenB.Hex(), err)
		}

		if sharesFromA.Cmp(sharesFromB) <= 0 {
			minted = sharesFromA
			usedA = new(big.Int).Set(amountA)
			usedB, err = safemath.MulDiv(amountA, reserveB, reserveA)
			if err != nil {
				return nil, fmt.Errorf("proportional amount: %w", err)
			}
			// floor rounding of the share comparison can nudge the
			// counterpart a unit past the offer
			if usedB.Cmp(amountB) > 0 {
				usedB.Set(amountB)
			}
		} else {
			minted = sharesFromB
			usedB = new(big.Int).Set(amountB)
			usedA, err = safemath.MulDiv(amountB, reserveA, reserveB)
			if err != nil {
				return nil, fmt.Errorf("proportional amount: %w", err)
			}
			if usedA.Cmp(amountA) > 0 {
				usedA.Set(amountA)
			}
		}
		if minted.Sign() == 0 {
			return nil, fmt.Errorf("add liquidity: deposit below one share: %w", ErrZeroAmount)
		}
	}

	newReserveA, err := safemath.CheckedAdd(reserveA, usedA)
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", tokenA.Hex(), err)
	}
	newReserveB, err := safemath.CheckedAdd(reserveB, usedB)
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", tokenB.Hex(), err)
	}
	newTotal, err := safemath.CheckedAdd(pool.totalShares, minted)
	if err != nil {
		return nil, fmt.Errorf("total shares: %w", err)
	}

	if err := e.settleIn(provider, []common.Address{tokenA, tokenB}, []*big.Int{usedA, usedB}); err != nil {
		return nil, err
	}

	pool.setOriented(tokenA, newReserveA, newReserveB)
	pool.totalShares = newTotal
	pool.shares[provider] = new(big.Int).Add(pool.providerShares(provider), minted)

	token0, token1 := pool.key.Token0, pool.key.Token1
	used0, used1 := usedA, usedB
	if tokenA != token0 {
		used0, used1 = usedB, usedA
	}
	e.record(model.HistoryRecord{
		Kind:      model.RecordKindAddLiquidity,
		User:      provider.Hex(),
		TokenIn:   token0.Hex(),
		TokenOut:  token1.Hex(),
		AmountIn:  used0.String(),
		AmountOut: used1.String(),
		Amount:    minted.String(),
		Timestamp: e.timestamp(),
	})

	e.logger.Debug("liquidity added",
		zap.String("provider", provider.Hex()),
		zap.String("minted", minted.String()),
		zap.String("used_a", usedA.String()),
		zap.String("used_b", usedB.String()),
	)

	return minted, nil
}

// RemoveLiquidity burns the provider's shares and pays out the
// proportional slice of both reserves.
func (e *Engine) RemoveLiquidity(tokenA, tokenB common.Address, shares *big.Int, provider common.Address) (*big.Int, *big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrZeroAmount)
	}

	pool, ok, err := e.lookup(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrPoolEmpty)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.totalShares.Sign() == 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrPoolEmpty)
	}
	balance := pool.providerShares(provider)
	if shares.Cmp(balance) > 0 {
		return nil, nil, fmt.Errorf("remove liquidity: have %s, want %s: %w", balance, shares, ErrInsufficientShareBalance)
	}

	reserveA, reserveB := pool.oriented(tokenA)

	amountAOut, err := safemath.MulDiv(reserveA, shares, pool.totalShares)
	if err != nil {
		return nil, nil, fmt.Errorf("amount %s: %w", tokenA.Hex(), err)
	}
	amountBOut, err := safemath.MulDiv(reserveB, shares, pool.totalShares)
	if err != nil {
		return nil, nil, fmt.Errorf("amount %s: %w", tokenB.Hex(), err)
	}

	newReserveA, err := safemath.CheckedSub(reserveA, amountAOut)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve %s: %w", tokenA.Hex(), err)
	}
	newReserveB, err := safemath.CheckedSub(reserveB, amountBOut)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve %s: %w", tokenB.Hex(), err)
	}

	if err := e.settleOut(provider, []common.Address{tokenA, tokenB}, []*big.Int{amountAOut, amountBOut}); err != nil {
		return nil, nil, err
	}

	pool.setOriented(tokenA, newReserveA, newReserveB)
	pool.totalShares = new(big.Int).Sub(pool.totalShares, shares)
	remaining := new(big.Int).Sub(balance, shares)
	if remaining.Sign() == 0 {
		delete(pool.shares, provider)
	} else {
		pool.shares[provider] = remaining
	}

	token0, token1 := pool.key.Token0, pool.key.Token1
	out0, out1 := amountAOut, amountBOut
	if tokenA != token0 {
		out0, out1 = amountBOut, amountAOut
	}
	e.record(model.HistoryRecord{
		Kind:      model.RecordKindRemoveLiquidity,
		User:      provider.Hex(),
		TokenIn:   token0.Hex(),
		TokenOut:  token1.Hex(),
		AmountIn:  out0.String(),
		AmountOut: out1.String(),
		Amount:    shares.String(),
		Timestamp: e.timestamp(),
	})

	e.logger.Debug("liquidity removed",
		zap.String("provider", provider.Hex()),
		zap.String("shares", shares.String()),
		zap.String("amount_a", amountAOut.String()),
		zap.String("amount_b", amountBOut.String()),
	)

	return amountAOut, amountBOut, nil
}
