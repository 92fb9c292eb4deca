package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairpool/internal/amm"
	"pairpool/internal/ledger"
	"pairpool/internal/model"
)

// Stats summarizes a replay run.
type Stats struct {
	Applied int
	Failed  int
}

// Runner feeds an operations file through the engine. Operations that the
// engine rejects are counted and logged; the engine has already rolled their
// effects back, so the replay continues.
type Runner struct {
	pool   *amm.Pool
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewRunner(pool *amm.Pool, l *ledger.Ledger, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{pool: pool, ledger: l, logger: logger}
}

// Run reads JSONL operation records from path and applies them in order.
func (r *Runner) Run(ctx context.Context, path string) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open ops file: %w", err)
	}
	defer file.Close()

	var stats Stats
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		var op model.OpRecord
		if err := json.Unmarshal([]byte(raw), &op); err != nil {
			return stats, fmt.Errorf("line %d: decode op: %w", line, err)
		}

		if err := r.apply(ctx, op); err != nil {
			stats.Failed++
			r.logger.Warn("op rejected",
				zap.Int("line", line),
				zap.String("op", op.Op),
				zap.Error(err),
			)
			continue
		}
		stats.Applied++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read ops file: %w", err)
	}

	return stats, nil
}

func (r *Runner) apply(ctx context.Context, op model.OpRecord) error {
	switch op.Op {
	case model.OpMint:
		asset, err := parseAddress(op.Asset)
		if err != nil {
			return err
		}
		to, err := parseAddress(op.To)
		if err != nil {
			return err
		}
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return r.ledger.Mint(asset, to, amount)

	case model.OpApprove:
		asset, err := parseAddress(op.Asset)
		if err != nil {
			return err
		}
		owner, err := parseAddress(op.Caller)
		if err != nil {
			return err
		}
		spender := r.pool.Address()
		if op.Spender != "" {
			if spender, err = parseAddress(op.Spender); err != nil {
				return err
			}
		}
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return r.ledger.Approve(asset, owner, spender, amount)

	case model.OpTransfer:
		asset, err := parseAddress(op.Asset)
		if err != nil {
			return err
		}
		from, err := parseAddress(op.Caller)
		if err != nil {
			return err
		}
		to := r.pool.Address()
		if op.To != "" {
			if to, err = parseAddress(op.To); err != nil {
				return err
			}
		}
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return r.ledger.Transfer(asset, from, to, amount)

	case model.OpDeposit:
		caller, err := parseAddress(op.Caller)
		if err != nil {
			return err
		}
		amount0, err := parseAmount(op.Amount0)
		if err != nil {
			return err
		}
		amount1, err := parseAmount(op.Amount1)
		if err != nil {
			return err
		}
		_, err = r.pool.Deposit(ctx, caller, amount0, amount1)
		return err

	case model.OpWithdraw:
		caller, err := parseAddress(op.Caller)
		if err != nil {
			return err
		}
		shares, err := parseAmount(op.Shares)
		if err != nil {
			return err
		}
		_, _, err = r.pool.Withdraw(ctx, caller, shares)
		return err

	case model.OpSwap:
		caller, err := parseAddress(op.Caller)
		if err != nil {
			return err
		}
		out0, err := parseAmount(op.Out0)
		if err != nil {
			return err
		}
		out1, err := parseAmount(op.Out1)
		if err != nil {
			return err
		}
		recipient := caller
		if op.Recipient != "" {
			if recipient, err = parseAddress(op.Recipient); err != nil {
				return err
			}
		}
		return r.pool.Swap(ctx, caller, out0, out1, recipient)

	case model.OpSync:
		return r.pool.Sync(ctx)

	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}
