package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapLedger/internal/amm"
	"swapLedger/internal/config"
	"swapLedger/internal/ledger"
	"swapLedger/internal/storage"
	"swapLedger/internal/storage/postgres"
	"swapLedger/internal/token"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Sink
	var stateStore ledger.StateStore
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = &postgres.Sink{Store: store, Ctx: ctx}
		stateStore = &ledger.DBStateStore{Store: store, Name: "replayer"}
	} else if cfg.Out != "" {
		sink = storage.NewJsonlSink(cfg.Out)
	}
	if cfg.StateFile != "" {
		stateStore = &ledger.FileStateStore{Path: cfg.StateFile}
	}

	bank := token.NewBank()
	history := ledger.New()
	engine := amm.NewEngine(amm.Config{FeeBps: cfg.FeeBps}, bank, history, logger)

	replayer := ledger.NewReplayer(ledger.ReplayConfig{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
		Faucet: func(user, tokenAddr common.Address, amount *big.Int) error {
			bank.Mint(user, tokenAddr, amount)
			return nil
		},
	}, engine, history, sink, logger)

	logger.Info("replay start",
		zap.String("in", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("fee_bps", cfg.FeeBps),
	)

	return replayer.Run(ctx, cfg.Input)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reserveIn, err := parseAmountFlag("reserve-in", cfg.ReserveIn)
	if err != nil {
		return err
	}
	reserveOut, err := parseAmountFlag("reserve-out", cfg.ReserveOut)
	if err != nil {
		return err
	}

	// quote against a throwaway pool seeded with the given reserves; the
	// seeding deposit mints to a sentinel provider and is never settled
	engine := amm.NewEngine(amm.Config{FeeBps: cfg.FeeBps}, nil, nil, logger)
	tokenIn := common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenOut := common.HexToAddress("0x0000000000000000000000000000000000000002")
	seeder := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	if _, err := engine.AddLiquidity(tokenIn, tokenOut, reserveIn, reserveOut, seeder); err != nil {
		return fmt.Errorf("seed reserves: %w", err)
	}

	switch {
	case cfg.AmountIn != "" && cfg.AmountOut != "":
		return fmt.Errorf("pass either amount-in or amount-out, not both")
	case cfg.AmountIn != "":
		amountIn, err := parseAmountFlag("amount-in", cfg.AmountIn)
		if err != nil {
			return err
		}
		amountOut, err := engine.GetAmountOut(tokenIn, tokenOut, amountIn)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amountOut.String())
	case cfg.AmountOut != "":
		amountOut, err := parseAmountFlag("amount-out", cfg.AmountOut)
		if err != nil {
			return err
		}
		amountIn, err := engine.GetAmountIn(tokenIn, tokenOut, amountOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amountIn.String())
	default:
		return fmt.Errorf("amount-in or amount-out is required")
	}

	return nil
}

func parseAmountFlag(name, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return parsed, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
