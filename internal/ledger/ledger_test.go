package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"swapLedger/internal/model"
)

const (
	userAlice = "0x00000000000000000000000000000000000000aa"
	userBob   = "0x00000000000000000000000000000000000000bb"
)

func seedLedger(l *Ledger, total int) {
	for i := 0; i < total; i++ {
		user := userAlice
		if i%3 == 0 {
			user = userBob
		}
		l.AppendSwap(model.HistoryRecord{
			User:      user,
			TokenIn:   "0x0000000000000000000000000000000000000001",
			TokenOut:  "0x0000000000000000000000000000000000000002",
			AmountIn:  fmt.Sprintf("%d", 100+i),
			AmountOut: fmt.Sprintf("%d", 90+i),
			Timestamp: uint64(1700000000 + i),
		})
	}
}

func TestAppendAssignsDenseSequence(t *testing.T) {
	l := New()
	seedLedger(l, 10)

	if got := l.TotalCount(); got != 10 {
		t.Fatalf("total count: got %d want 10", got)
	}
	for i := uint64(0); i < 10; i++ {
		record, err := l.RecordAt(i)
		if err != nil {
			t.Fatalf("RecordAt(%d): %v", i, err)
		}
		if record.Sequence != i {
			t.Fatalf("sequence mismatch at %d: got %d", i, record.Sequence)
		}
	}
	if _, err := l.RecordAt(10); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestAppendKindsForced(t *testing.T) {
	l := New()
	swap := l.AppendSwap(model.HistoryRecord{User: userAlice, Kind: "bogus"})
	if swap.Kind != model.RecordKindSwap {
		t.Fatalf("swap kind not forced: %q", swap.Kind)
	}
	claim := l.AppendClaim(model.HistoryRecord{User: userAlice})
	if claim.Kind != model.RecordKindClaim {
		t.Fatalf("claim kind not forced: %q", claim.Kind)
	}
	if claim.Sequence != 1 {
		t.Fatalf("claim sequence: got %d want 1", claim.Sequence)
	}
}

func TestUserHistoryPartition(t *testing.T) {
	l := New()
	seedLedger(l, 12)

	aliceCount := l.UserCount(userAlice)
	bobCount := l.UserCount(userBob)
	if aliceCount+bobCount != l.TotalCount() {
		t.Fatalf("user counts do not partition the log: %d + %d != %d", aliceCount, bobCount, l.TotalCount())
	}
	if bobCount != 4 {
		t.Fatalf("bob count: got %d want 4", bobCount)
	}

	for _, user := range []string{userAlice, userBob} {
		history := l.AllUserHistory(user)
		if uint64(len(history)) != l.UserCount(user) {
			t.Fatalf("AllUserHistory length mismatch for %s", user)
		}
		for i, record := range history {
			if record.User != user {
				t.Fatalf("foreign record in %s history: %+v", user, record)
			}
			if i > 0 && record.Sequence <= history[i-1].Sequence {
				t.Fatalf("user history not strictly increasing: %d after %d", record.Sequence, history[i-1].Sequence)
			}
		}
	}
}

func TestUserHistoryPagination(t *testing.T) {
	l := New()
	seedLedger(l, 20)

	full := l.AllUserHistory(userAlice)
	total := uint64(len(full))

	// any page size must reassemble the full history
	for _, pageSize := range []uint64{1, 3, 7, total, total + 5} {
		var pages []model.HistoryRecord
		for offset := uint64(0); offset < total; offset += pageSize {
			pages = append(pages, l.UserHistory(userAlice, offset, pageSize)...)
		}
		if !reflect.DeepEqual(pages, full) {
			t.Fatalf("pagination with page size %d does not reassemble history", pageSize)
		}
	}
}

func TestUserHistoryForgivingBounds(t *testing.T) {
	l := New()
	seedLedger(l, 6)

	if got := l.UserHistory(userAlice, 1000, 10); len(got) != 0 {
		t.Fatalf("out-of-range offset must yield empty slice, got %d records", len(got))
	}
	if got := l.UserHistory("0x00000000000000000000000000000000000000cc", 0, 10); len(got) != 0 {
		t.Fatalf("unknown user must yield empty slice, got %d records", len(got))
	}
	if got := l.UserHistory(userAlice, 0, 0); len(got) != 0 {
		t.Fatalf("zero limit must yield empty slice, got %d records", len(got))
	}

	// limit past the end is clamped, not an error
	count := l.UserCount(userAlice)
	if got := l.UserHistory(userAlice, 0, count+100); uint64(len(got)) != count {
		t.Fatalf("oversized limit: got %d want %d", len(got), count)
	}
}

func TestRecordsFrom(t *testing.T) {
	l := New()
	seedLedger(l, 8)

	tail := l.RecordsFrom(5)
	if len(tail) != 3 {
		t.Fatalf("tail length: got %d want 3", len(tail))
	}
	if tail[0].Sequence != 5 {
		t.Fatalf("tail start: got %d want 5", tail[0].Sequence)
	}
	if got := l.RecordsFrom(8); len(got) != 0 {
		t.Fatalf("past-the-end tail must be empty, got %d", len(got))
	}

	// the returned slice is a copy; appending must not disturb it
	before := l.RecordsFrom(0)
	l.AppendClaim(model.HistoryRecord{User: userBob, Token: "0x0000000000000000000000000000000000000001", Amount: "5"})
	if len(before) != 8 {
		t.Fatalf("flush snapshot mutated by later append")
	}
}
