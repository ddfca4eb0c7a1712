package ledger

import (
	"errors"
	"fmt"
	"sync"

	"swapLedger/internal/model"
)

// ErrIndexOutOfRange is returned by RecordAt for a sequence number past
// the end of the global log.
var ErrIndexOutOfRange = errors.New("index out of range")

// Ledger is the append-only history of swap and claim events: one global
// ordered sequence plus, per user, the ordered list of that user's
// positions in it. Records are immutable once appended.
type Ledger struct {
	mu        sync.RWMutex
	records   []model.HistoryRecord
	userIndex map[string][]uint64
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		userIndex: make(map[string][]uint64),
	}
}

// Append assigns the next global sequence number, stores the record and
// indexes it under the acting user. The stored record is returned.
func (l *Ledger) Append(record model.HistoryRecord) model.HistoryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	record.Sequence = uint64(len(l.records))
	l.records = append(l.records, record)
	l.userIndex[record.User] = append(l.userIndex[record.User], record.Sequence)
	return record
}

// AppendSwap appends a swap record, forcing the swap kind.
func (l *Ledger) AppendSwap(record model.HistoryRecord) model.HistoryRecord {
	record.Kind = model.RecordKindSwap
	return l.Append(record)
}

// AppendClaim appends a faucet claim record, forcing the claim kind.
func (l *Ledger) AppendClaim(record model.HistoryRecord) model.HistoryRecord {
	record.Kind = model.RecordKindClaim
	return l.Append(record)
}

// TotalCount returns the length of the global sequence.
func (l *Ledger) TotalCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.records))
}

// UserCount returns how many records belong to the user.
func (l *Ledger) UserCount(user string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.userIndex[user]))
}

// UserHistory returns up to limit of the user's records starting at
// offset within the user's own index. Out-of-range offsets yield an
// empty slice, never an error.
func (l *Ledger) UserHistory(user string, offset, limit uint64) []model.HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	index := l.userIndex[user]
	if offset >= uint64(len(index)) {
		return []model.HistoryRecord{}
	}
	end := offset + limit
	if end > uint64(len(index)) || end < offset {
		end = uint64(len(index))
	}

	out := make([]model.HistoryRecord, 0, end-offset)
	for _, seq := range index[offset:end] {
		out = append(out, l.records[seq])
	}
	return out
}

// AllUserHistory returns every record for the user in append order.
func (l *Ledger) AllUserHistory(user string) []model.HistoryRecord {
	l.mu.RLock()
	count := uint64(len(l.userIndex[user]))
	l.mu.RUnlock()
	return l.UserHistory(user, 0, count)
}

// RecordAt returns the record at a global sequence number.
func (l *Ledger) RecordAt(index uint64) (model.HistoryRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index >= uint64(len(l.records)) {
		return model.HistoryRecord{}, fmt.Errorf("record %d of %d: %w", index, len(l.records), ErrIndexOutOfRange)
	}
	return l.records[index], nil
}

// RecordsFrom returns all records with sequence >= from, for sink flushes.
func (l *Ledger) RecordsFrom(from uint64) []model.HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if from >= uint64(len(l.records)) {
		return []model.HistoryRecord{}
	}
	out := make([]model.HistoryRecord, len(l.records)-int(from))
	copy(out, l.records[from:])
	return out
}
