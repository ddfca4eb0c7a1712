package model

// Operation names accepted by the replayer.
const (
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwapExactIn     = "swap_exact_in"
	OpSwapExactOut    = "swap_exact_out"
	OpClaim           = "claim"
)

// Operation is one line of a replay input file. Fields are used per op:
// add_liquidity uses TokenA/TokenB/AmountA/AmountB, remove_liquidity uses
// TokenA/TokenB/Shares, the swap ops use TokenIn/TokenOut and AmountIn or
// AmountOut, claim uses Token/Amount. Amounts are decimal strings.
type Operation struct {
	Op        string `json:"op"`
	User      string `json:"user"`
	TokenA    string `json:"token_a,omitempty"`
	TokenB    string `json:"token_b,omitempty"`
	AmountA   string `json:"amount_a,omitempty"`
	AmountB   string `json:"amount_b,omitempty"`
	Shares    string `json:"shares,omitempty"`
	TokenIn   string `json:"token_in,omitempty"`
	TokenOut  string `json:"token_out,omitempty"`
	AmountIn  string `json:"amount_in,omitempty"`
	AmountOut string `json:"amount_out,omitempty"`
	Token     string `json:"token,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}
