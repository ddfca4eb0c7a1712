package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Bank is an in-memory token-balance book implementing amm.TokenBank.
// TransferFrom moves funds from an owner into the bank's vault (the
// engine's custody); Transfer pays funds out of the vault. The simulator
// and tests mint balances directly.
type Bank struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*big.Int
	vault    map[common.Address]*big.Int
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{
		balances: make(map[common.Address]map[common.Address]*big.Int),
		vault:    make(map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to the owner out of thin air.
func (b *Bank) Mint(owner, token common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(owner, token, amount)
}

// BalanceOf returns the owner's balance of token.
func (b *Bank) BalanceOf(owner, token common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[owner][token]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// VaultBalance returns the amount of token held in engine custody.
func (b *Bank) VaultBalance(token common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.vault[token]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// TransferFrom pulls amount of token from the owner into the vault.
func (b *Bank) TransferFrom(owner, token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount")
	}
	if amount.Sign() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[owner][token]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: owner %s token %s", owner.Hex(), token.Hex())
	}
	bal.Sub(bal, amount)

	if b.vault[token] == nil {
		b.vault[token] = new(big.Int)
	}
	b.vault[token].Add(b.vault[token], amount)
	return nil
}

// Transfer pays amount of token from the vault to the recipient.
func (b *Bank) Transfer(recipient, token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount")
	}
	if amount.Sign() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	held := b.vault[token]
	if held == nil || held.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient vault balance: token %s", token.Hex())
	}
	held.Sub(held, amount)
	b.credit(recipient, token, amount)
	return nil
}

func (b *Bank) credit(owner, token common.Address, amount *big.Int) {
	if b.balances[owner] == nil {
		b.balances[owner] = make(map[common.Address]*big.Int)
	}
	if b.balances[owner][token] == nil {
		b.balances[owner][token] = new(big.Int)
	}
	b.balances[owner][token].Add(b.balances[owner][token], amount)
}
