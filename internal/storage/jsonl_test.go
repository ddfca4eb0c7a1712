package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"swapLedger/internal/model"
)

func TestJsonlSinkAppendsBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "history.jsonl")
	sink := NewJsonlSink(path)

	first := []model.HistoryRecord{
		{Sequence: 0, Kind: model.RecordKindSwap, User: "0xaa", AmountIn: "100", AmountOut: "90"},
		{Sequence: 1, Kind: model.RecordKindClaim, User: "0xbb", Token: "0x01", Amount: "5"},
	}
	second := []model.HistoryRecord{
		{Sequence: 2, Kind: model.RecordKindSwap, User: "0xaa", AmountIn: "10", AmountOut: "9"},
	}

	if err := sink.PutRecordBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutRecordBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := sink.PutRecordBatch(second); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var got []model.HistoryRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.HistoryRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("line count: got %d want 3", len(got))
	}
	for i, record := range got {
		if record.Sequence != uint64(i) {
			t.Fatalf("sequence at line %d: %d", i, record.Sequence)
		}
	}
	if got[1].Kind != model.RecordKindClaim || got[1].Amount != "5" {
		t.Fatalf("claim record mismatch: %+v", got[1])
	}
}
