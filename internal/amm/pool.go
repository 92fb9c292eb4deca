package amm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"pairpool/internal/ledger"
	"pairpool/internal/model"
	"pairpool/internal/storage"
)

// Reserves wider than this are rejected rather than truncated; pricing on a
// silently wrapped reserve would be corrupt.
const maxReserveBits = 112

// Pool is a two-asset constant-product market maker. Reserve and share state
// is owned here; asset balances live in the ledger and are only referenced by
// address. All operations serialize behind the mutex and either commit fully
// or roll back every effect.
type Pool struct {
	mu sync.Mutex

	assetA common.Address
	assetB common.Address

	// addr holds the pool's asset balances; shareAddr is the claim token.
	addr      common.Address
	shareAddr common.Address

	// Snapshot of the balances as of the last sync, not the live ledger view.
	reserve0 *big.Int
	reserve1 *big.Int

	ledger *ledger.Ledger
	sink   storage.EventSink
	logger *zap.Logger

	seq uint64
}

// NewPool registers the claim token and returns a pool over the two assets.
// Both assets must already be registered in the ledger and must differ.
func NewPool(assetA, assetB common.Address, l *ledger.Ledger, sink storage.EventSink, logger *zap.Logger) (*Pool, error) {
	if assetA == assetB {
		return nil, fmt.Errorf("%w: identical assets %s", ErrInvalidPairConfiguration, assetA.Hex())
	}
	if l == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if !l.Registered(assetA) || !l.Registered(assetB) {
		return nil, fmt.Errorf("%w: unregistered asset", ErrInvalidPairConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := pairAddress(assetA, assetB)
	shareAddr := shareAddress(assetA, assetB)
	if err := l.Register(shareAddr, "PAIR-LP"); err != nil {
		return nil, err
	}

	return &Pool{
		assetA:    assetA,
		assetB:    assetB,
		addr:      addr,
		shareAddr: shareAddr,
		reserve0:  new(big.Int),
		reserve1:  new(big.Int),
		ledger:    l,
		sink:      sink,
		logger:    logger,
	}, nil
}

// Address returns the pool's own ledger address.
func (p *Pool) Address() common.Address {
	return p.addr
}

// ShareAddress returns the claim token's asset address.
func (p *Pool) ShareAddress() common.Address {
	return p.shareAddr
}

// Assets returns the two asset addresses in pool order.
func (p *Pool) Assets() (common.Address, common.Address) {
	return p.assetA, p.assetB
}

// Reserves returns copies of the cached reserve snapshot.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// TotalShares returns the outstanding claim-token supply.
func (p *Pool) TotalShares() *big.Int {
	return p.ledger.TotalSupply(p.shareAddr)
}

// SharesOf returns holder's claim-token balance.
func (p *Pool) SharesOf(holder common.Address) *big.Int {
	return p.ledger.BalanceOf(p.shareAddr, holder)
}

// Record returns the pool's persistable accounting snapshot.
func (p *Pool) Record() model.PoolRecord {
	reserve0, reserve1 := p.Reserves()
	return model.PoolRecord{
		Pool:        p.addr.Hex(),
		AssetA:      p.assetA.Hex(),
		AssetB:      p.assetB.Hex(),
		Reserve0:    reserve0.String(),
		Reserve1:    reserve1.String(),
		TotalShares: p.TotalShares().String(),
	}
}

// Sync resynchronizes the reserve snapshot to the pool's true ledger
// balances, absorbing any out-of-band transfers, and emits ReservesSynced.
func (p *Pool) Sync(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev0, prev1 := p.snapshotReserves()
	if err := p.resync(ctx); err != nil {
		p.restoreReserves(prev0, prev1)
		return err
	}
	return nil
}

// mintShares and burnShares implement share accounting on the claim token.

func (p *Pool) mintShares(holder common.Address, amount *big.Int) error {
	return p.ledger.Mint(p.shareAddr, holder, amount)
}

func (p *Pool) burnShares(holder common.Address, amount *big.Int) error {
	if err := p.ledger.Burn(p.shareAddr, holder, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientShares, err)
	}
	return nil
}

// resync reads the true balances, enforces the reserve width bound, updates
// the cached snapshot, and appends the ReservesSynced record.
func (p *Pool) resync(ctx context.Context) error {
	balance0 := p.ledger.BalanceOf(p.assetA, p.addr)
	balance1 := p.ledger.BalanceOf(p.assetB, p.addr)

	if balance0.BitLen() > maxReserveBits || balance1.BitLen() > maxReserveBits {
		return fmt.Errorf("%w: balances %s/%s exceed %d bits",
			ErrReserveOverflow, balance0, balance1, maxReserveBits)
	}

	p.reserve0.Set(balance0)
	p.reserve1.Set(balance1)

	return p.emit(ctx, model.EventReservesSynced, model.ReservesSyncedData{
		Reserve0: balance0.String(),
		Reserve1: balance1.String(),
	})
}

func (p *Pool) emit(ctx context.Context, name string, data any) error {
	if p.sink == nil {
		p.seq++
		return nil
	}
	decoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	record := model.EventRecord{
		Seq:       p.seq,
		Pool:      p.addr.Hex(),
		EventName: name,
		Decoded:   decoded,
		EmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.sink.Append(ctx, []model.EventRecord{record}); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	p.seq++
	return nil
}

func (p *Pool) snapshotReserves() (*big.Int, *big.Int) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

func (p *Pool) restoreReserves(reserve0, reserve1 *big.Int) {
	p.reserve0.Set(reserve0)
	p.reserve1.Set(reserve1)
}

func pairAddress(assetA, assetB common.Address) common.Address {
	hash := crypto.Keccak256([]byte("pairpool/pool"), assetA.Bytes(), assetB.Bytes())
	return common.BytesToAddress(hash[12:])
}

func shareAddress(assetA, assetB common.Address) common.Address {
	hash := crypto.Keccak256([]byte("pairpool/shares"), assetA.Bytes(), assetB.Bytes())
	return common.BytesToAddress(hash[12:])
}
