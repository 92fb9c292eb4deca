package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairpool/internal/model"
)

// Store provides Postgres persistence for pool snapshots and audit events.
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

// UpsertPool inserts or updates the pool's accounting snapshot.
func (s *Store) UpsertPool(ctx context.Context, record model.PoolRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			pool_address, asset_a, asset_b, reserve0, reserve1, total_shares, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			total_shares = EXCLUDED.total_shares,
			updated_at = now()
	`,
		record.Pool,
		record.AssetA,
		record.AssetB,
		record.Reserve0,
		record.Reserve1,
		record.TotalShares,
	)
	return err
}

// Append inserts a batch of audit events into the append-only pool_events
// table. It satisfies storage.EventSink.
func (s *Store) Append(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, seq, event_name, decoded, emitted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (pool_address, seq) DO NOTHING
		`,
			event.Pool,
			int64(event.Seq),
			event.EventName,
			[]byte(event.Decoded),
			event.EmittedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
