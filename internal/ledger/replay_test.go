package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapLedger/internal/amm"
	"swapLedger/internal/model"
	"swapLedger/internal/storage"
)

var (
	replayTok0  = "0x0000000000000000000000000000000000000001"
	replayTok1  = "0x0000000000000000000000000000000000000002"
	replayTok2  = "0x0000000000000000000000000000000000000003"
	replayAlice = "0x00000000000000000000000000000000000000aa"
	replayBob   = "0x00000000000000000000000000000000000000bb"
)

func writeOpsFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ops.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create ops file: %v", err)
	}
	defer file.Close()
	for _, line := range lines {
		if _, err := file.WriteString(line + "\n"); err != nil {
			t.Fatalf("write ops file: %v", err)
		}
	}
	return path
}

func opLine(t *testing.T, op model.Operation) string {
	t.Helper()
	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal op: %v", err)
	}
	return string(data)
}

func readSinkFile(t *testing.T, path string) []model.HistoryRecord {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open sink file: %v", err)
	}
	defer file.Close()

	var out []model.HistoryRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.HistoryRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode sink line: %v", err)
		}
		out = append(out, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan sink file: %v", err)
	}
	return out
}

func TestReplayEndToEnd(t *testing.T) {
	inputPath := writeOpsFile(t, []string{
		opLine(t, model.Operation{Op: model.OpClaim, User: replayAlice, Token: replayTok0, Amount: "5000", Timestamp: 1700000001}),
		opLine(t, model.Operation{Op: model.OpClaim, User: replayAlice, Token: replayTok1, Amount: "5000", Timestamp: 1700000002}),
		opLine(t, model.Operation{Op: model.OpAddLiquidity, User: replayAlice, TokenA: replayTok0, TokenB: replayTok1, AmountA: "1000", AmountB: "1000"}),
		opLine(t, model.Operation{Op: model.OpSwapExactIn, User: replayBob, TokenIn: replayTok0, TokenOut: replayTok1, AmountIn: "100"}),
		// no pool for this pair: rejected, not fatal
		opLine(t, model.Operation{Op: model.OpSwapExactIn, User: replayBob, TokenIn: replayTok0, TokenOut: replayTok2, AmountIn: "5"}),
		"not json at all",
		opLine(t, model.Operation{Op: "rebalance", User: replayAlice}),
		opLine(t, model.Operation{Op: model.OpRemoveLiquidity, User: replayAlice, TokenA: replayTok0, TokenB: replayTok1, Shares: "200"}),
	})

	historyLedger := New()
	engine := amm.NewEngine(amm.Config{}, nil, historyLedger, nil)

	outPath := filepath.Join(t.TempDir(), "history.jsonl")
	sink := storage.NewJsonlSink(outPath)

	var faucetCalls int
	replayer := NewReplayer(ReplayConfig{
		BatchSize: 2,
		Faucet: func(user, token common.Address, amount *big.Int) error {
			faucetCalls++
			return nil
		},
	}, engine, historyLedger, sink, nil)

	if err := replayer.Run(context.Background(), inputPath); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if faucetCalls != 2 {
		t.Fatalf("faucet calls: got %d want 2", faucetCalls)
	}
	if got := historyLedger.TotalCount(); got != 5 {
		t.Fatalf("history count: got %d want 5", got)
	}

	reserve0, reserve1, err := engine.GetReserves(
		common.HexToAddress(replayTok0),
		common.HexToAddress(replayTok1),
	)
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	// seed 1000/1000, swap 100 in for 90 out, then withdraw 200 of 1000 shares
	if reserve0.Cmp(big.NewInt(880)) != 0 || reserve1.Cmp(big.NewInt(728)) != 0 {
		t.Fatalf("reserves mismatch: (%s, %s)", reserve0, reserve1)
	}

	records := readSinkFile(t, outPath)
	if len(records) != 5 {
		t.Fatalf("sink record count: got %d want 5", len(records))
	}
	wantKinds := []string{
		model.RecordKindClaim,
		model.RecordKindClaim,
		model.RecordKindAddLiquidity,
		model.RecordKindSwap,
		model.RecordKindRemoveLiquidity,
	}
	for i, record := range records {
		if record.Sequence != uint64(i) {
			t.Fatalf("sink sequence gap at %d: %+v", i, record)
		}
		if record.Kind != wantKinds[i] {
			t.Fatalf("sink kind at %d: got %q want %q", i, record.Kind, wantKinds[i])
		}
	}
	if records[3].AmountIn != "100" || records[3].AmountOut != "90" {
		t.Fatalf("swap record mismatch: %+v", records[3])
	}
	if records[4].Amount != "200" {
		t.Fatalf("removal record shares mismatch: %+v", records[4])
	}
}

func TestReplayResumeSkipsFlushedRecords(t *testing.T) {
	inputPath := writeOpsFile(t, []string{
		opLine(t, model.Operation{Op: model.OpAddLiquidity, User: replayAlice, TokenA: replayTok0, TokenB: replayTok1, AmountA: "1000", AmountB: "1000"}),
		opLine(t, model.Operation{Op: model.OpSwapExactIn, User: replayBob, TokenIn: replayTok0, TokenOut: replayTok1, AmountIn: "100"}),
	})

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	stateStore := &FileStateStore{Path: statePath}

	run := func(outPath string) {
		t.Helper()
		historyLedger := New()
		engine := amm.NewEngine(amm.Config{}, nil, historyLedger, nil)
		replayer := NewReplayer(ReplayConfig{
			BatchSize:  100,
			StateStore: stateStore,
		}, engine, historyLedger, storage.NewJsonlSink(outPath), nil)
		if err := replayer.Run(context.Background(), inputPath); err != nil {
			t.Fatalf("replay: %v", err)
		}
	}

	firstOut := filepath.Join(dir, "first.jsonl")
	run(firstOut)
	if got := len(readSinkFile(t, firstOut)); got != 2 {
		t.Fatalf("first run sink count: got %d want 2", got)
	}

	seq, ok, err := stateStore.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("state load: seq=%d ok=%v err=%v", seq, ok, err)
	}
	if seq != 2 {
		t.Fatalf("persisted sequence: got %d want 2", seq)
	}

	// a second pass over the same file regenerates the same records and
	// flushes nothing past the persisted watermark
	secondOut := filepath.Join(dir, "second.jsonl")
	run(secondOut)
	if _, err := os.Stat(secondOut); !os.IsNotExist(err) {
		t.Fatalf("resumed run must not rewrite flushed records: %v", err)
	}
}
