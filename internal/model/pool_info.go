package model

// PoolInfo is a canonical-order snapshot of one pool. Price0To1 and
// Price1To0 are fixed-point values scaled by 1e18, encoded as decimal
// strings like every other amount.
type PoolInfo struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalShares string `json:"total_shares"`
	FeeBps      uint64 `json:"fee_bps"`
	Price0To1   string `json:"price0to1"`
	Price1To0   string `json:"price1to0"`
}
