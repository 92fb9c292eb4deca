package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Two-asset constant-product pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operations file through the pool",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("events-out", "./data/events.jsonl", "output audit events JSONL")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for events and pool snapshot")
	replayCmd.Flags().String("asset-a", "", "asset A address")
	replayCmd.Flags().String("asset-b", "", "asset B address")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "exact input amount (quotes the output)")
	quoteCmd.Flags().String("amount-out", "", "exact output amount (quotes the input)")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
