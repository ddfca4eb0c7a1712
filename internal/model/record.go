package model

import (
	"encoding/json"
)

// Record kinds stored in the history ledger.
const (
	RecordKindSwap            = "swap"
	RecordKindClaim           = "claim"
	RecordKindAddLiquidity    = "add_liquidity"
	RecordKindRemoveLiquidity = "remove_liquidity"
)

// HistoryRecord is the normalized representation of a ledger entry for
// storage. Amounts are decimal strings of raw smallest-unit values. Swap
// records fill TokenIn/TokenOut/AmountIn/AmountOut; claim records fill
// Token/Amount. Liquidity records reuse the pair fields in canonical
// order (TokenIn=token0, TokenOut=token1) and put the minted or burned
// shares in Amount.
type HistoryRecord struct {
	Sequence  uint64 `json:"sequence"`
	Kind      string `json:"kind"`
	User      string `json:"user"`
	TokenIn   string `json:"token_in,omitempty"`
	TokenOut  string `json:"token_out,omitempty"`
	AmountIn  string `json:"amount_in,omitempty"`
	AmountOut string `json:"amount_out,omitempty"`
	Token     string `json:"token,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

// MarshalJSON ensures HistoryRecord is encoded with stable field names.
func (hr HistoryRecord) MarshalJSON() ([]byte, error) {
	type Alias HistoryRecord
	return json.Marshal(Alias(hr))
}

// UnmarshalJSON decodes a HistoryRecord from JSON.
func (hr *HistoryRecord) UnmarshalJSON(data []byte) error {
	type Alias HistoryRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*hr = HistoryRecord(a)
	return nil
}
