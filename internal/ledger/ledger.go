package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger holds the balance books of every registered fungible asset, keyed by
// asset address. It supports snapshot/revert so a caller can roll back every
// transfer issued inside a failed operation.
type Ledger struct {
	mu     sync.RWMutex
	tokens map[common.Address]*Token
	snaps  []map[common.Address]*Token
}

// New returns an empty ledger with no registered assets.
func New() *Ledger {
	return &Ledger{tokens: make(map[common.Address]*Token)}
}

// Register creates the balance book for a new asset address.
func (l *Ledger) Register(asset common.Address, symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tokens[asset]; ok {
		return fmt.Errorf("%w: %s", ErrAssetExists, asset.Hex())
	}
	l.tokens[asset] = newToken(symbol)
	return nil
}

// Registered reports whether the asset has a balance book.
func (l *Ledger) Registered(asset common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.tokens[asset]
	return ok
}

// BalanceOf returns the holder's balance of the asset. Unknown assets and
// holders read as zero.
func (l *Ledger) BalanceOf(asset, holder common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	token, ok := l.tokens[asset]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(token.balanceOf(holder))
}

// TotalSupply returns the asset's total minted supply.
func (l *Ledger) TotalSupply(asset common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	token, ok := l.tokens[asset]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(token.totalSupply)
}

// Allowance returns how much spender may pull from owner.
func (l *Ledger) Allowance(asset, owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	token, ok := l.tokens[asset]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(token.allowance(owner, spender))
}

// Mint creates amount units of the asset for to. Zero and negative amounts
// are rejected.
func (l *Ledger) Mint(asset, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	token.credit(to, amount)
	token.totalSupply.Add(token.totalSupply, amount)
	return nil
}

// Burn destroys amount units held by from.
func (l *Ledger) Burn(asset, from common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := token.debit(from, amount); err != nil {
		return err
	}
	token.totalSupply.Sub(token.totalSupply, amount)
	return nil
}

// Transfer moves amount units from from to to. A zero transfer is a no-op.
func (l *Ledger) Transfer(asset, from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.transfer(asset, from, to, amount)
}

// TransferFrom moves amount units from owner to to on behalf of spender,
// consuming spender's allowance.
func (l *Ledger) TransferFrom(asset, spender, owner, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	allowed := token.allowance(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	token.setAllowance(owner, spender, new(big.Int).Sub(allowed, amount))
	return l.transfer(asset, owner, to, amount)
}

// Approve lets spender pull up to amount units from owner.
func (l *Ledger) Approve(asset, owner, spender common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	token.setAllowance(owner, spender, amount)
	return nil
}

// Snapshot records the current state of every balance book and returns an
// identifier for RevertToSnapshot.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := make(map[common.Address]*Token, len(l.tokens))
	for asset, token := range l.tokens {
		cp[asset] = token.clone()
	}
	l.snaps = append(l.snaps, cp)
	return len(l.snaps) - 1
}

// RevertToSnapshot restores the state recorded by Snapshot and drops it along
// with any later snapshots.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id >= len(l.snaps) {
		return
	}
	l.tokens = l.snaps[id]
	l.snaps = l.snaps[:id]
}

// Release drops the snapshot without restoring it, once the operation that
// took it has committed.
func (l *Ledger) Release(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id >= len(l.snaps) {
		return
	}
	l.snaps = l.snaps[:id]
}

func (l *Ledger) token(asset common.Address) (*Token, error) {
	token, ok := l.tokens[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset.Hex())
	}
	return token, nil
}

func (l *Ledger) transfer(asset, from, to common.Address, amount *big.Int) error {
	token, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := token.debit(from, amount); err != nil {
		return err
	}
	token.credit(to, amount)
	return nil
}
