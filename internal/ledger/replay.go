package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapLedger/internal/amm"
	"swapLedger/internal/model"
	"swapLedger/internal/storage"
)

// StateStore persists the last flushed sequence number so a re-run over
// the same operations file resumes its sink output where it stopped.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, seq uint64) error
}

// ReplayConfig controls replay behavior.
type ReplayConfig struct {
	BatchSize  int
	StateStore StateStore
	// Faucet pays out a claim before its record is appended. Nil means
	// claims are recorded without settlement.
	Faucet func(user, token common.Address, amount *big.Int) error
}

// Replayer applies an operations JSONL file through the engine and
// flushes the appended history records to a sink. Rejected operations are
// logged and skipped; only infrastructure failures abort the run.
type Replayer struct {
	cfg    ReplayConfig
	engine *amm.Engine
	ledger *Ledger
	sink   storage.Sink
	logger *zap.Logger
}

func NewReplayer(cfg ReplayConfig, engine *amm.Engine, ledger *Ledger, sink storage.Sink, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replayer{
		cfg:    cfg,
		engine: engine,
		ledger: ledger,
		sink:   sink,
		logger: logger,
	}
}

// Run executes the replay over an operations JSONL file.
func (r *Replayer) Run(ctx context.Context, inputPath string) error {
	if r.engine == nil {
		return fmt.Errorf("engine is nil")
	}
	if r.ledger == nil {
		return fmt.Errorf("ledger is nil")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	var flushedThrough uint64
	if r.cfg.StateStore != nil {
		seq, ok, err := r.cfg.StateStore.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			flushedThrough = seq
			r.logger.Info("resume from ledger state", zap.Uint64("last_flushed_seq", seq))
		}
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, applied, rejected, failed int
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			failed++
			r.logger.Warn("decode operation", zap.Int("line", total), zap.Error(err))
			continue
		}

		if err := r.apply(op); err != nil {
			rejected++
			r.logger.Warn("operation rejected",
				zap.Int("line", total),
				zap.String("op", op.Op),
				zap.String("user", op.User),
				zap.Error(err),
			)
			continue
		}
		applied++

		if r.ledger.TotalCount() >= flushedThrough+uint64(r.cfg.BatchSize) {
			flushedThrough, err = r.flush(ctx, flushedThrough)
			if err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if _, err := r.flush(ctx, flushedThrough); err != nil {
		return err
	}

	r.logger.Info("replay complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Int("failed", failed),
		zap.Uint64("history_records", r.ledger.TotalCount()),
	)

	return nil
}

func (r *Replayer) flush(ctx context.Context, from uint64) (uint64, error) {
	records := r.ledger.RecordsFrom(from)
	if len(records) == 0 {
		return from, nil
	}
	if r.sink != nil {
		if err := r.sink.PutRecordBatch(records); err != nil {
			return from, fmt.Errorf("flush history: %w", err)
		}
	}
	through := from + uint64(len(records))
	if r.cfg.StateStore != nil {
		if err := r.cfg.StateStore.Save(ctx, through); err != nil {
			return from, fmt.Errorf("save ledger state: %w", err)
		}
	}
	return through, nil
}

func (r *Replayer) apply(op model.Operation) error {
	user, err := parseAddress(op.User)
	if err != nil {
		return fmt.Errorf("user: %w", err)
	}

	switch op.Op {
	case model.OpAddLiquidity:
		tokenA, tokenB, err := parsePair(op.TokenA, op.TokenB)
		if err != nil {
			return err
		}
		amountA, err := parseAmount(op.AmountA)
		if err != nil {
			return fmt.Errorf("amount_a: %w", err)
		}
		amountB, err := parseAmount(op.AmountB)
		if err != nil {
			return fmt.Errorf("amount_b: %w", err)
		}
		_, err = r.engine.AddLiquidity(tokenA, tokenB, amountA, amountB, user)
		return err

	case model.OpRemoveLiquidity:
		tokenA, tokenB, err := parsePair(op.TokenA, op.TokenB)
		if err != nil {
			return err
		}
		shares, err := parseAmount(op.Shares)
		if err != nil {
			return fmt.Errorf("shares: %w", err)
		}
		_, _, err = r.engine.RemoveLiquidity(tokenA, tokenB, shares, user)
		return err

	case model.OpSwapExactIn:
		tokenIn, tokenOut, err := parsePair(op.TokenIn, op.TokenOut)
		if err != nil {
			return err
		}
		amountIn, err := parseAmount(op.AmountIn)
		if err != nil {
			return fmt.Errorf("amount_in: %w", err)
		}
		_, err = r.engine.SwapExactIn(tokenIn, tokenOut, amountIn, user)
		return err

	case model.OpSwapExactOut:
		tokenIn, tokenOut, err := parsePair(op.TokenIn, op.TokenOut)
		if err != nil {
			return err
		}
		amountOut, err := parseAmount(op.AmountOut)
		if err != nil {
			return fmt.Errorf("amount_out: %w", err)
		}
		_, err = r.engine.SwapExactOut(tokenIn, tokenOut, amountOut, user)
		return err

	case model.OpClaim:
		tokenAddr, err := parseAddress(op.Token)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		if r.cfg.Faucet != nil {
			if err := r.cfg.Faucet(user, tokenAddr, amount); err != nil {
				return fmt.Errorf("faucet payout: %w", err)
			}
		}
		r.ledger.AppendClaim(model.HistoryRecord{
			User:      user.Hex(),
			Token:     tokenAddr.Hex(),
			Amount:    amount.String(),
			Timestamp: op.Timestamp,
		})
		return nil

	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}

func parsePair(a, b string) (common.Address, common.Address, error) {
	tokenA, err := parseAddress(a)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token pair: %w", err)
	}
	tokenB, err := parseAddress(b)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token pair: %w", err)
	}
	return tokenA, tokenB, nil
}

func parseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

func parseAmount(input string) (*big.Int, error) {
	if input == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", input)
	}
	return value, nil
}
