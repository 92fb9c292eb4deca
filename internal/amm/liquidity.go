package amm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Deposit pulls amount0/amount1 from the caller and mints claim-token shares.
//
// The first deposit mints floor(sqrt(amount0*amount1)), letting the first
// depositor set the initial price. Later deposits mint the minimum of the two
// supply ratios against the cached reserves; any non-proportional remainder
// stays in the pool as a donation to existing holders.
func (p *Pool) Deposit(ctx context.Context, caller common.Address, amount0, amount1 *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.ledger.Snapshot()
	prev0, prev1 := p.snapshotReserves()
	fail := func(err error) (*big.Int, error) {
		p.ledger.RevertToSnapshot(snap)
		p.restoreReserves(prev0, prev1)
		return nil, err
	}

	if err := p.ledger.TransferFrom(p.assetA, p.addr, caller, p.addr, amount0); err != nil {
		return fail(fmt.Errorf("%w: pull %s: %v", ErrTransferFailed, p.assetA.Hex(), err))
	}
	if err := p.ledger.TransferFrom(p.assetB, p.addr, caller, p.addr, amount1); err != nil {
		return fail(fmt.Errorf("%w: pull %s: %v", ErrTransferFailed, p.assetB.Hex(), err))
	}

	totalShares := p.ledger.TotalSupply(p.shareAddr)
	var shares *big.Int
	if totalShares.Sign() == 0 {
		shares = new(big.Int).Sqrt(new(big.Int).Mul(amount0, amount1))
	} else {
		byAsset0 := new(big.Int).Mul(amount0, totalShares)
		byAsset0.Quo(byAsset0, prev0)
		byAsset1 := new(big.Int).Mul(amount1, totalShares)
		byAsset1.Quo(byAsset1, prev1)
		shares = minBig(byAsset0, byAsset1)
	}

	if shares.Sign() == 0 {
		return fail(ErrZeroShareMint)
	}

	if err := p.mintShares(caller, shares); err != nil {
		return fail(err)
	}

	if err := p.resync(ctx); err != nil {
		return fail(err)
	}

	p.ledger.Release(snap)
	p.logger.Info("deposit",
		zap.String("caller", caller.Hex()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.String("shares", shares.String()),
		zap.String("reserve0", p.reserve0.String()),
		zap.String("reserve1", p.reserve1.String()),
	)
	return shares, nil
}

// Withdraw burns shareAmount of the caller's claim tokens and pays out the
// proportional cut of the pool's true balances.
func (p *Pool) Withdraw(ctx context.Context, caller common.Address, shareAmount *big.Int) (*big.Int, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	totalShares := p.ledger.TotalSupply(p.shareAddr)
	if totalShares.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: no shares outstanding", ErrInsufficientShares)
	}

	snap := p.ledger.Snapshot()
	prev0, prev1 := p.snapshotReserves()
	fail := func(err error) (*big.Int, *big.Int, error) {
		p.ledger.RevertToSnapshot(snap)
		p.restoreReserves(prev0, prev1)
		return nil, nil, err
	}

	// Redemption is priced on true balances, not the cached snapshot, so any
	// donated surplus is paid out proportionally too.
	balance0 := p.ledger.BalanceOf(p.assetA, p.addr)
	balance1 := p.ledger.BalanceOf(p.assetB, p.addr)

	amount0 := new(big.Int).Mul(shareAmount, balance0)
	amount0.Quo(amount0, totalShares)
	amount1 := new(big.Int).Mul(shareAmount, balance1)
	amount1.Quo(amount1, totalShares)

	if amount0.Sign() == 0 || amount1.Sign() == 0 {
		return fail(ErrZeroRedemption)
	}

	if err := p.burnShares(caller, shareAmount); err != nil {
		return fail(err)
	}

	if err := p.ledger.Transfer(p.assetA, p.addr, caller, amount0); err != nil {
		return fail(fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, p.assetA.Hex(), err))
	}
	if err := p.ledger.Transfer(p.assetB, p.addr, caller, amount1); err != nil {
		return fail(fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, p.assetB.Hex(), err))
	}

	if err := p.resync(ctx); err != nil {
		return fail(err)
	}

	p.ledger.Release(snap)
	p.logger.Info("withdraw",
		zap.String("caller", caller.Hex()),
		zap.String("shares", shareAmount.String()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.String("reserve0", p.reserve0.String()),
		zap.String("reserve1", p.reserve1.String()),
	)
	return amount0, amount1, nil
}

func minBig(x, y *big.Int) *big.Int {
	if x.Cmp(y) < 0 {
		return x
	}
	return y
}
