package storage

import "swapLedger/internal/model"

// Sink receives batches of appended history records.
type Sink interface {
	PutRecordBatch(records []model.HistoryRecord) error
}
