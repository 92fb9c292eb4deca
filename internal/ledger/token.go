package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the in-memory balance book of a single fungible asset. All
// mutation goes through the owning Ledger, which provides locking and
// snapshot handling.
type Token struct {
	symbol      string
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

func newToken(symbol string) *Token {
	return &Token{
		symbol:      symbol,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Symbol returns the display symbol set at registration.
func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) balanceOf(holder common.Address) *big.Int {
	if bal, ok := t.balances[holder]; ok {
		return bal
	}
	return new(big.Int)
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if byOwner, ok := t.allowances[owner]; ok {
		if allowed, ok := byOwner[spender]; ok {
			return allowed
		}
	}
	return new(big.Int)
}

func (t *Token) credit(holder common.Address, amount *big.Int) {
	bal, ok := t.balances[holder]
	if !ok {
		bal = new(big.Int)
		t.balances[holder] = bal
	}
	bal.Add(bal, amount)
}

func (t *Token) debit(holder common.Address, amount *big.Int) error {
	bal := t.balanceOf(holder)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	t.balances[holder] = new(big.Int).Sub(bal, amount)
	return nil
}

func (t *Token) setAllowance(owner, spender common.Address, amount *big.Int) {
	byOwner, ok := t.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		t.allowances[owner] = byOwner
	}
	byOwner[spender] = new(big.Int).Set(amount)
}

func (t *Token) clone() *Token {
	cp := newToken(t.symbol)
	cp.totalSupply.Set(t.totalSupply)
	for holder, bal := range t.balances {
		cp.balances[holder] = new(big.Int).Set(bal)
	}
	for owner, byOwner := range t.allowances {
		inner := make(map[common.Address]*big.Int, len(byOwner))
		for spender, allowed := range byOwner {
			inner[spender] = new(big.Int).Set(allowed)
		}
		cp.allowances[owner] = inner
	}
	return cp
}
