package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairpool/internal/amm"
	"pairpool/internal/config"
	"pairpool/internal/ledger"
	"pairpool/internal/replay"
	"pairpool/internal/storage"
	"pairpool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.OpsPath == "" {
		return fmt.Errorf("input path is required")
	}
	if !common.IsHexAddress(cfg.AssetA) || !common.IsHexAddress(cfg.AssetB) {
		return fmt.Errorf("asset-a and asset-b must be hex addresses")
	}
	assetA := common.HexToAddress(cfg.AssetA)
	assetB := common.HexToAddress(cfg.AssetB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []storage.EventSink{storage.NewJsonlSink(cfg.EventsOut)}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	book := ledger.New()
	if err := book.Register(assetA, "ASSET-A"); err != nil {
		return err
	}
	if err := book.Register(assetB, "ASSET-B"); err != nil {
		return err
	}

	pool, err := amm.NewPool(assetA, assetB, book, storage.NewMultiSink(sinks...), logger)
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("in", cfg.OpsPath),
		zap.String("events_out", cfg.EventsOut),
		zap.String("pool", pool.Address().Hex()),
		zap.String("asset_a", assetA.Hex()),
		zap.String("asset_b", assetB.Hex()),
		zap.Bool("postgres", store != nil),
	)

	runner := replay.NewRunner(pool, book, logger)
	stats, err := runner.Run(ctx, cfg.OpsPath)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.UpsertPool(ctx, pool.Record()); err != nil {
			return fmt.Errorf("save pool snapshot: %w", err)
		}
	}

	reserve0, reserve1 := pool.Reserves()
	logger.Info("replay done",
		zap.Int("applied", stats.Applied),
		zap.Int("failed", stats.Failed),
		zap.String("reserve0", reserve0.String()),
		zap.String("reserve1", reserve1.String()),
		zap.String("total_shares", pool.TotalShares().String()),
	)
	return nil
}
