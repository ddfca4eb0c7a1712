package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenBank is the token-balance collaborator the engine settles against.
// TransferFrom pulls deposited or swapped-in funds from the owner into the
// engine's custody; Transfer pays withdrawn or swapped-out funds to the
// recipient. Either call failing aborts the whole operation before any
// pool state changes.
//
// A nil TokenBank puts the engine in pure-bookkeeping mode: reserves and
// shares are tracked but no balances move. The simulator and most tests
// run that way.
type TokenBank interface {
	TransferFrom(owner common.Address, token common.Address, amount *big.Int) error
	Transfer(recipient common.Address, token common.Address, amount *big.Int) error
}
