package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "swapsim",
		Short:        "AMM pool engine simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay an operations file through the engine",
		RunE:  runReplay,
	}

	runCmd.Flags().String("in", "", "input operations JSONL")
	runCmd.Flags().String("out", "./data/history.jsonl", "output history JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional history store)")
	runCmd.Flags().String("state-file", "", "optional local state file for flush tracking")
	runCmd.Flags().Int("batch-size", 1000, "history records per sink flush")
	runCmd.Flags().Uint64("fee-bps", 30, "swap fee for new pools in basis points")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap from explicit reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")
	quoteCmd.Flags().String("amount-in", "", "exact input amount to quote")
	quoteCmd.Flags().String("amount-out", "", "exact output amount to quote")
	quoteCmd.Flags().Uint64("fee-bps", 30, "swap fee in basis points")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

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
