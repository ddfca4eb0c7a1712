package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapLedger/internal/model"
)

// Store provides Postgres persistence for the history ledger.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertRecords inserts or updates history records keyed by their global
// sequence number. Re-inserting an already-flushed record is a no-op
// update, so replays are idempotent.
func (s *Store) UpsertRecords(ctx context.Context, records []model.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO history_records (
				sequence, kind, user_address, token_in, token_out,
				amount_in, amount_out, token, amount, event_ts, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (sequence)
			DO UPDATE SET
				kind = EXCLUDED.kind,
				user_address = EXCLUDED.user_address,
				token_in = EXCLUDED.token_in,
				token_out = EXCLUDED.token_out,
				amount_in = EXCLUDED.amount_in,
				amount_out = EXCLUDED.amount_out,
				token = EXCLUDED.token,
				amount = EXCLUDED.amount,
				event_ts = EXCLUDED.event_ts,
				updated_at = now()
		`,
			int64(record.Sequence),
			record.Kind,
			record.User,
			record.TokenIn,
			record.TokenOut,
			record.AmountIn,
			record.AmountOut,
			record.Token,
			record.Amount,
			int64(record.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_applied_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_applied_seq FROM ledger_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts last_applied_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_state (name, last_applied_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_applied_seq = EXCLUDED.last_applied_seq, updated_at = now()
	`, name, seq)
	return err
}

// Sink adapts the store to storage.Sink with a bound context.
type Sink struct {
	Store *Store
	Ctx   context.Context
}

func (s *Sink) PutRecordBatch(records []model.HistoryRecord) error {
	return s.Store.UpsertRecords(s.Ctx, records)
}
