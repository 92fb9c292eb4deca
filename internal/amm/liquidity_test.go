package amm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"pairpool/internal/ledger"
)

func TestFirstDepositMintsGeometricMean(t *testing.T) {
	pool, book, _ := newTestPool(t)

	shares := deposit(t, pool, book, alice, 1000, 4000)
	if shares.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("shares = %s, want 2000", shares)
	}
	if got := pool.TotalShares(); got.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("total shares = %s, want 2000", got)
	}
	if got := pool.SharesOf(alice); got.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("alice shares = %s, want 2000", got)
	}
	checkReserves(t, pool, 1000, 4000)
}

func TestFirstDepositOneWei(t *testing.T) {
	pool, book, _ := newTestPool(t)

	shares := deposit(t, pool, book, alice, 1, 1)
	if shares.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("shares = %s, want 1", shares)
	}
}

func TestProportionalDepositPreservesRatio(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)

	shares := deposit(t, pool, book, bob, 500, 500)
	if shares.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("shares = %s, want 500", shares)
	}
	if got := pool.TotalShares(); got.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("total shares = %s, want 1500", got)
	}
	checkReserves(t, pool, 1500, 1500)
}

func TestDisproportionateDepositPricedAtWorseRatio(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)

	// The excess asset B is not refunded; it stays with the pool.
	shares := deposit(t, pool, book, bob, 100, 500)
	if shares.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("shares = %s, want 100", shares)
	}
	checkReserves(t, pool, 1100, 1500)
}

func TestDepositZeroShareMint(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)

	fund(t, pool, book, bob, 0, 5)
	_, err := pool.Deposit(context.Background(), bob, big.NewInt(0), big.NewInt(5))
	if !errors.Is(err, ErrZeroShareMint) {
		t.Fatalf("expected ErrZeroShareMint, got %v", err)
	}
	// The pulled funds must be returned.
	if got := book.BalanceOf(assetB, bob); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("bob asset B balance = %s, want 5", got)
	}
	checkReserves(t, pool, 1000, 1000)
}

func TestDepositEmptyAmountsRejected(t *testing.T) {
	pool, _, _ := newTestPool(t)

	_, err := pool.Deposit(context.Background(), alice, big.NewInt(0), big.NewInt(0))
	if !errors.Is(err, ErrZeroShareMint) {
		t.Fatalf("expected ErrZeroShareMint, got %v", err)
	}
}

func TestDepositWithoutApprovalRollsBack(t *testing.T) {
	pool, book, _ := newTestPool(t)

	if err := book.Mint(assetA, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.Mint(assetB, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err := pool.Deposit(context.Background(), alice, big.NewInt(1000), big.NewInt(1000))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := book.BalanceOf(assetA, alice); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("alice asset A balance = %s, want 1000", got)
	}
	if got := pool.TotalShares(); got.Sign() != 0 {
		t.Fatalf("total shares = %s, want 0", got)
	}
}

func TestWithdrawHalf(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)

	amount0, amount1, err := pool.Withdraw(context.Background(), alice, big.NewInt(500))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount0.Cmp(big.NewInt(500)) != 0 || amount1.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("withdrawn = (%s, %s), want (500, 500)", amount0, amount1)
	}
	checkReserves(t, pool, 500, 500)
	if got := pool.TotalShares(); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("total shares = %s, want 500", got)
	}
}

func TestWithdrawAllEmptiesPool(t *testing.T) {
	pool, book, _ := newTestPool(t)

	shares := deposit(t, pool, book, alice, 1000, 4000)

	amount0, amount1, err := pool.Withdraw(context.Background(), alice, shares)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount0.Cmp(big.NewInt(1000)) != 0 || amount1.Cmp(big.NewInt(4000)) != 0 {
		t.Fatalf("withdrawn = (%s, %s), want (1000, 4000)", amount0, amount1)
	}
	checkReserves(t, pool, 0, 0)
	if got := pool.TotalShares(); got.Sign() != 0 {
		t.Fatalf("total shares = %s, want 0", got)
	}
	if got := book.BalanceOf(assetA, alice); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("alice asset A balance = %s, want 1000", got)
	}
}

func TestWithdrawZeroRedemption(t *testing.T) {
	pool, book, _ := newTestPool(t)

	// sqrt(1 * 4000000) = 2000 shares against a single wei of asset A, so
	// one share rounds the asset A payout down to zero.
	deposit(t, pool, book, alice, 1, 4000000)

	_, _, err := pool.Withdraw(context.Background(), alice, big.NewInt(1))
	if !errors.Is(err, ErrZeroRedemption) {
		t.Fatalf("expected ErrZeroRedemption, got %v", err)
	}
}

func TestWithdrawOnEmptyPool(t *testing.T) {
	pool, _, _ := newTestPool(t)

	_, _, err := pool.Withdraw(context.Background(), alice, big.NewInt(1))
	if !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
}

func TestWithdrawMoreThanHeldRollsBack(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)
	deposit(t, pool, book, bob, 1000, 1000)

	_, _, err := pool.Withdraw(context.Background(), alice, big.NewInt(1500))
	if !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
	checkReserves(t, pool, 2000, 2000)
	if got := pool.SharesOf(alice); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("alice shares = %s, want 1000", got)
	}
}

func TestWithdrawPaysOutDonatedSurplus(t *testing.T) {
	pool, book, _ := newTestPool(t)

	deposit(t, pool, book, alice, 1000, 1000)

	// Donate 500 of asset A without syncing; redemption reads true balances.
	if err := book.Mint(assetA, bob, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.Transfer(assetA, bob, pool.Address(), big.NewInt(500)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	amount0, amount1, err := pool.Withdraw(context.Background(), alice, big.NewInt(1000))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount0.Cmp(big.NewInt(1500)) != 0 || amount1.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("withdrawn = (%s, %s), want (1500, 1000)", amount0, amount1)
	}
}

func TestDepositSinkFailureRollsBack(t *testing.T) {
	book := ledger.New()
	if err := book.Register(assetA, "TOKA"); err != nil {
		t.Fatalf("register asset A: %v", err)
	}
	if err := book.Register(assetB, "TOKB"); err != nil {
		t.Fatalf("register asset B: %v", err)
	}
	pool, err := NewPool(assetA, assetB, book, failSink{}, nil)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	fund(t, pool, book, alice, 1000, 1000)
	if _, err := pool.Deposit(context.Background(), alice, big.NewInt(1000), big.NewInt(1000)); err == nil {
		t.Fatalf("expected deposit to fail when the sink rejects the event")
	}

	if got := book.BalanceOf(assetA, alice); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("alice asset A balance = %s, want 1000", got)
	}
	if got := pool.TotalShares(); got.Sign() != 0 {
		t.Fatalf("total shares = %s, want 0", got)
	}
	checkReserves(t, pool, 0, 0)
}
