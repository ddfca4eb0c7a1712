package amm

import (
	"bytes"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// PairKey identifies a pool by its canonically ordered token pair.
// Token0 is always the byte-wise lesser address, so (A,B) and (B,A)
// resolve to the same pool.
type PairKey struct {
	Token0 common.Address
	Token1 common.Address
}

// NewPairKey canonicalizes an unordered token pair.
func NewPairKey(tokenA, tokenB common.Address) (PairKey, error) {
	if tokenA == tokenB {
		return PairKey{}, ErrIdenticalTokens
	}
	if bytes.Compare(tokenA[:], tokenB[:]) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	return PairKey{Token0: tokenA, Token1: tokenB}, nil
}

// Pool holds the mutable state of one liquidity pool. All fields are
// guarded by mu, which the engine holds across every mutating operation
// on the pool.
type Pool struct {
	mu sync.Mutex

	key         PairKey
	reserve0    *big.Int
	reserve1    *big.Int
	totalShares *big.Int
	feeBps      uint64
	shares      map[common.Address]*big.Int
}

func newPool(key PairKey, feeBps uint64) *Pool {
	return &Pool{
		key:         key,
		reserve0:    new(big.Int),
		reserve1:    new(big.Int),
		totalShares: new(big.Int),
		feeBps:      feeBps,
		shares:      make(map[common.Address]*big.Int),
	}
}

// Key returns the canonical pair key.
func (p *Pool) Key() PairKey {
	return p.key
}

// FeeBps returns the pool's swap fee in basis points.
func (p *Pool) FeeBps() uint64 {
	return p.feeBps
}

// oriented maps canonical reserves back to (tokenA, tokenB) caller order.
// Returns aliases of the internal values; callers must hold the lock and
// must not mutate them.
func (p *Pool) oriented(tokenA common.Address) (reserveA, reserveB *big.Int) {
	if tokenA == p.key.Token0 {
		return p.reserve0, p.reserve1
	}
	return p.reserve1, p.reserve0
}

// setOriented writes reserves given in (tokenA, tokenB) caller order.
func (p *Pool) setOriented(tokenA common.Address, reserveA, reserveB *big.Int) {
	if tokenA == p.key.Token0 {
		p.reserve0, p.reserve1 = reserveA, reserveB
		return
	}
	p.reserve0, p.reserve1 = reserveB, reserveA
}

// providerShares returns the share balance for a provider, zero when the
// provider never deposited. Callers must hold the lock.
func (p *Pool) providerShares(provider common.Address) *big.Int {
	if bal, ok := p.shares[provider]; ok {
		return bal
	}
	return new(big.Int)
}
