package amm

import "errors"

// Engine sentinel errors. Callers match with errors.Is; wrap sites add the
// operation context.
var (
	ErrZeroAmount                   = errors.New("amount cannot be zero")
	ErrIdenticalTokens              = errors.New("identical tokens")
	ErrUnknownPool                  = errors.New("unknown pool")
	ErrPoolEmpty                    = errors.New("pool is empty")
	ErrInsufficientLiquidity        = errors.New("insufficient liquidity in pool")
	ErrInsufficientInitialLiquidity = errors.New("insufficient initial liquidity")
	ErrInsufficientShareBalance     = errors.New("insufficient share balance")
	ErrInvariantViolation           = errors.New("constant product invariant violated")
)
