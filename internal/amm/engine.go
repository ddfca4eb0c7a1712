package amm

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapLedger/internal/model"
	"swapLedger/internal/safemath"
)

const (
	// FeeDenom is the basis-point denominator for swap fees.
	FeeDenom = 10_000

	// DefaultFeeBps is the default per-pool swap fee (0.3%).
	DefaultFeeBps = 30
)

// priceScale is the 1e18 fixed-point scale used for pool price snapshots.
var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Recorder receives one history record per state-mutating operation.
// *ledger.Ledger satisfies it.
type Recorder interface {
	Append(record model.HistoryRecord) model.HistoryRecord
}

// Config holds engine-wide settings.
type Config struct {
	// FeeBps is the swap fee assigned to each new pool, in basis points.
	// Zero means DefaultFeeBps.
	FeeBps uint64
}

// Engine owns the pool registry and executes all liquidity and swap
// operations. Pools are created lazily on first deposit and never deleted.
type Engine struct {
	cfg      Config
	bank     TokenBank
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	pools map[PairKey]*Pool
}

// NewEngine builds an Engine with its collaborators. bank may be nil
// (pure-bookkeeping mode) and recorder may be nil (no history).
func NewEngine(cfg Config, bank TokenBank, recorder Recorder, logger *zap.Logger) *Engine {
	if cfg.FeeBps == 0 {
		cfg.FeeBps = DefaultFeeBps
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		bank:     bank,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		pools:    make(map[PairKey]*Pool),
	}
}

// SetClock overrides the timestamp source for history records.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// ResolvePool canonicalizes the pair and returns the pool, creating an
// empty one when the pair was never seen.
func (e *Engine) ResolvePool(tokenA, tokenB common.Address) (*Pool, bool, error) {
	key, err := NewPairKey(tokenA, tokenB)
	if err != nil {
		return nil, false, err
	}
	pool, created := e.getOrCreate(key)
	return pool, created, nil
}

func (e *Engine) getOrCreate(key PairKey) (*Pool, bool) {
	e.mu.RLock()
	pool, ok := e.pools[key]
	e.mu.RUnlock()
	if ok {
		return pool, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if pool, ok := e.pools[key]; ok {
		return pool, false
	}
	pool = newPool(key, e.cfg.FeeBps)
	e.pools[key] = pool
	e.logger.Debug("pool created",
		zap.String("token0", key.Token0.Hex()),
		zap.String("token1", key.Token1.Hex()),
		zap.Uint64("fee_bps", pool.feeBps),
	)
	return pool, true
}

func (e *Engine) lookup(tokenA, tokenB common.Address) (*Pool, bool, error) {
	key, err := NewPairKey(tokenA, tokenB)
	if err != nil {
		return nil, false, err
	}
	e.mu.RLock()
	pool, ok := e.pools[key]
	e.mu.RUnlock()
	return pool, ok, nil
}

// GetReserves returns the pool reserves in the order the caller passed the
// two tokens. A pair that was never initialized reads as (0, 0).
func (e *Engine) GetReserves(tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	pool, ok, err := e.lookup(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return new(big.Int), new(big.Int), nil
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()
	reserveA, reserveB := pool.oriented(tokenA)
	return new(big.Int).Set(reserveA), new(big.Int).Set(reserveB), nil
}

// GetPoolInfo returns a canonical-order snapshot with 1e18-scaled spot
// prices. Fails with ErrPoolEmpty when either reserve is zero.
func (e *Engine) GetPoolInfo(tokenA, tokenB common.Address) (model.PoolInfo, error) {
	pool, ok, err := e.lookup(tokenA, tokenB)
	if err != nil {
		return model.PoolInfo{}, err
	}
	if !ok {
		return model.PoolInfo{}, fmt.Errorf("pool %s/%s: %w", tokenA.Hex(), tokenB.Hex(), ErrPoolEmpty)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.reserve0.Sign() == 0 || pool.reserve1.Sign() == 0 {
		return model.PoolInfo{}, fmt.Errorf("pool %s/%s: %w", pool.key.Token0.Hex(), pool.key.Token1.Hex(), ErrPoolEmpty)
	}

	price0to1, err := safemath.MulDiv(pool.reserve1, priceScale, pool.reserve0)
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("price0to1: %w", err)
	}
	price1to0, err := safemath.MulDiv(pool.reserve0, priceScale, pool.reserve1)
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("price1to0: %w", err)
	}

	return model.PoolInfo{
		Token0:      pool.key.Token0.Hex(),
		Token1:      pool.key.Token1.Hex(),
		Reserve0:    pool.reserve0.String(),
		Reserve1:    pool.reserve1.String(),
		TotalShares: pool.totalShares.String(),
		FeeBps:      pool.feeBps,
		Price0To1:   price0to1.String(),
		Price1To0:   price1to0.String(),
	}, nil
}

// ProviderShares returns the share balance a provider holds in a pool.
func (e *Engine) ProviderShares(tokenA, tokenB, provider common.Address) (*big.Int, error) {
	pool, ok, err := e.lookup(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return new(big.Int).Set(pool.providerShares(provider)), nil
}

func (e *Engine) record(record model.HistoryRecord) {
	if e.recorder == nil {
		return
	}
	e.recorder.Append(record)
}

func (e *Engine) timestamp() uint64 {
	return uint64(e.now().Unix())
}

// settleIn pulls amounts into engine custody, refunding on partial
// failure. No pool state has changed when it returns an error.
func (e *Engine) settleIn(owner common.Address, tokens []common.Address, amounts []*big.Int) error {
	if e.bank == nil {
		return nil
	}
	for i, token := range tokens {
		if amounts[i].Sign() == 0 {
			continue
		}
		if err := e.bank.TransferFrom(owner, token, amounts[i]); err != nil {
			for j := 0; j < i; j++ {
				if amounts[j].Sign() == 0 {
					continue
				}
				if refundErr := e.bank.Transfer(owner, tokens[j], amounts[j]); refundErr != nil {
					e.logger.Error("refund after failed transfer",
						zap.String("owner", owner.Hex()),
						zap.String("token", tokens[j].Hex()),
						zap.Error(refundErr),
					)
				}
			}
			return fmt.Errorf("transfer from %s: %w", owner.Hex(), err)
		}
	}
	return nil
}

// settleOut pays amounts from engine custody to the recipient, pulling
// already-paid amounts back on partial failure so a failed operation
// leaves balances untouched.
func (e *Engine) settleOut(recipient common.Address, tokens []common.Address, amounts []*big.Int) error {
	if e.bank == nil {
		return nil
	}
	for i, token := range tokens {
		if amounts[i].Sign() == 0 {
			continue
		}
		if err := e.bank.Transfer(recipient, token, amounts[i]); err != nil {
			for j := 0; j < i; j++ {
				if amounts[j].Sign() == 0 {
					continue
				}
				if undoErr := e.bank.TransferFrom(recipient, tokens[j], amounts[j]); undoErr != nil {
					e.logger.Error("claw back after failed payout",
						zap.String("recipient", recipient.Hex()),
						zap.String("token", tokens[j].Hex()),
						zap.Error(undoErr),
					)
				}
			}
			return fmt.Errorf("transfer to %s: %w", recipient.Hex(), err)
		}
	}
	return nil
}
