package amm

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapLedger/internal/model"
)

var (
	tok0   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tok1   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	tok2   = common.HexToAddress("0x0000000000000000000000000000000000000003")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	bob    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// memRecorder collects history records without pulling in the ledger
// package (which depends on this one).
type memRecorder struct {
	mu      sync.Mutex
	records []model.HistoryRecord
}

func (m *memRecorder) Append(record model.HistoryRecord) model.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.Sequence = uint64(len(m.records))
	m.records = append(m.records, record)
	return record
}

func (m *memRecorder) byKind(kind string) []model.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.HistoryRecord, 0, len(m.records))
	for _, record := range m.records {
		if record.Kind == kind {
			out = append(out, record)
		}
	}
	return out
}

func newTestEngine() (*Engine, *memRecorder) {
	recorder := &memRecorder{}
	engine := NewEngine(Config{}, nil, recorder, nil)
	engine.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	return engine, recorder
}

func seedPool(e *Engine, amount0, amount1 int64) {
	_, err := e.AddLiquidity(tok0, tok1, big.NewInt(amount0), big.NewInt(amount1), alice)
	if err != nil {
		panic(err)
	}
}
