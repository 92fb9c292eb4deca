package amm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairpool/internal/model"
)

// Fee arithmetic: 0.3% charged on effective inputs, expressed in integers by
// scaling balances by 1000 and inputs by 3.
var (
	feeScale     = big.NewInt(1000)
	feeNumerator = big.NewInt(3)
)

// Swap pays out0/out1 to the recipient and validates the fee-adjusted
// constant product afterwards.
//
// Outputs are transferred optimistically; the effective input is inferred by
// comparing observed balances against what should remain after the payout,
// so a caller cannot claim to have paid without transferring. Any failure
// rolls back the payout.
func (p *Pool) Swap(ctx context.Context, caller common.Address, out0, out1 *big.Int, recipient common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if out0.Sign() == 0 && out1.Sign() == 0 {
		return ErrNoOutputRequested
	}
	// Strict bound: draining a full reserve is rejected so the pool can
	// never be emptied by a swap.
	if out0.Cmp(p.reserve0) >= 0 || out1.Cmp(p.reserve1) >= 0 {
		return fmt.Errorf("%w: requested %s/%s against reserves %s/%s",
			ErrInsufficientLiquidity, out0, out1, p.reserve0, p.reserve1)
	}

	snap := p.ledger.Snapshot()
	prev0, prev1 := p.snapshotReserves()
	fail := func(err error) error {
		p.ledger.RevertToSnapshot(snap)
		p.restoreReserves(prev0, prev1)
		return err
	}

	if err := p.ledger.Transfer(p.assetA, p.addr, recipient, out0); err != nil {
		return fail(fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, p.assetA.Hex(), err))
	}
	if err := p.ledger.Transfer(p.assetB, p.addr, recipient, out1); err != nil {
		return fail(fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, p.assetB.Hex(), err))
	}

	balance0 := p.ledger.BalanceOf(p.assetA, p.addr)
	balance1 := p.ledger.BalanceOf(p.assetB, p.addr)

	in0 := effectiveInput(balance0, prev0, out0)
	in1 := effectiveInput(balance1, prev1, out1)

	if in0.Sign() == 0 && in1.Sign() == 0 {
		return fail(ErrNoInputProvided)
	}

	// adj = balance*1000 - input*3; require adj0*adj1 >= reserve0*reserve1*1000^2.
	adj0 := new(big.Int).Mul(balance0, feeScale)
	adj0.Sub(adj0, new(big.Int).Mul(in0, feeNumerator))
	adj1 := new(big.Int).Mul(balance1, feeScale)
	adj1.Sub(adj1, new(big.Int).Mul(in1, feeNumerator))

	required := new(big.Int).Mul(prev0, prev1)
	required.Mul(required, feeScale)
	required.Mul(required, feeScale)

	if new(big.Int).Mul(adj0, adj1).Cmp(required) < 0 {
		return fail(fmt.Errorf("%w: in %s/%s out %s/%s against reserves %s/%s",
			ErrInvariantViolated, in0, in1, out0, out1, prev0, prev1))
	}

	if err := p.resync(ctx); err != nil {
		return fail(err)
	}

	swapped := model.SwappedData{
		Sender:    caller.Hex(),
		In0:       in0.String(),
		In1:       in1.String(),
		Out0:      out0.String(),
		Out1:      out1.String(),
		Recipient: recipient.Hex(),
	}
	if err := p.emit(ctx, model.EventSwapped, swapped); err != nil {
		return fail(err)
	}

	p.ledger.Release(snap)
	p.logger.Info("swap",
		zap.String("caller", caller.Hex()),
		zap.String("in0", in0.String()),
		zap.String("in1", in1.String()),
		zap.String("out0", out0.String()),
		zap.String("out1", out1.String()),
		zap.String("recipient", recipient.Hex()),
	)
	return nil
}

// effectiveInput infers how much the caller actually deposited: anything
// above what the payout should have left behind.
func effectiveInput(balance, reserve, out *big.Int) *big.Int {
	expected := new(big.Int).Sub(reserve, out)
	if balance.Cmp(expected) > 0 {
		return new(big.Int).Sub(balance, expected)
	}
	return new(big.Int)
}
