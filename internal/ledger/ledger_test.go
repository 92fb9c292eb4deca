package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	asset = common.HexToAddress("0xA0")
	alice = common.HexToAddress("0xA1")
	bob   = common.HexToAddress("0xB0")
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New()
	if err := l.Register(asset, "TOK"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return l
}

func TestMintAndTransfer(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := l.TotalSupply(asset); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("total supply = %s, want 100", got)
	}

	if err := l.Transfer(asset, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.BalanceOf(asset, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance = %s, want 60", got)
	}
	if got := l.BalanceOf(asset, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob balance = %s, want 40", got)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	err := l.Transfer(asset, alice, bob, big.NewInt(11))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := l.BalanceOf(asset, alice); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("alice balance = %s, want 10", got)
	}
}

func TestMintZeroRejected(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUnknownAsset(t *testing.T) {
	l := New()

	err := l.Mint(common.HexToAddress("0xdead"), alice, big.NewInt(1))
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Approve(asset, alice, bob, big.NewInt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := l.TransferFrom(asset, bob, alice, bob, big.NewInt(30)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := l.Allowance(asset, alice, bob); got.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("allowance = %s, want 20", got)
	}

	err := l.TransferFrom(asset, bob, alice, bob, big.NewInt(21))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestBurn(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Burn(asset, alice, big.NewInt(60)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := l.TotalSupply(asset); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("total supply = %s, want 40", got)
	}

	if err := l.Burn(asset, alice, big.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSnapshotRevert(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Approve(asset, alice, bob, big.NewInt(5)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	snap := l.Snapshot()

	if err := l.Transfer(asset, alice, bob, big.NewInt(70)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := l.Approve(asset, alice, bob, big.NewInt(99)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	l.RevertToSnapshot(snap)

	if got := l.BalanceOf(asset, alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("alice balance after revert = %s, want 100", got)
	}
	if got := l.BalanceOf(asset, bob); got.Sign() != 0 {
		t.Fatalf("bob balance after revert = %s, want 0", got)
	}
	if got := l.Allowance(asset, alice, bob); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("allowance after revert = %s, want 5", got)
	}
}

func TestSnapshotRelease(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint(asset, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	snap := l.Snapshot()
	if err := l.Transfer(asset, alice, bob, big.NewInt(25)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	l.Release(snap)

	if got := l.BalanceOf(asset, bob); got.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("bob balance after release = %s, want 25", got)
	}
}
