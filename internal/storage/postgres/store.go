package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rangeTrader/internal/model"
)

// Store provides Postgres persistence for the order-event journal.
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

// EnsureSchema creates the journal table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_events (
			id           BIGSERIAL PRIMARY KEY,
			chain_id     BIGINT NOT NULL,
			order_id     TEXT NOT NULL,
			wallet       TEXT NOT NULL,
			pool         TEXT NOT NULL,
			kind         TEXT NOT NULL,
			side         TEXT NOT NULL DEFAULT '',
			zero_for_one BOOLEAN NOT NULL,
			tick_lower   INTEGER NOT NULL,
			tick_upper   INTEGER NOT NULL,
			liquidity    TEXT NOT NULL DEFAULT '',
			amount0      TEXT NOT NULL DEFAULT '',
			amount1      TEXT NOT NULL DEFAULT '',
			tx_hash      TEXT NOT NULL,
			event_ts     BIGINT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (tx_hash, order_id, kind)
		);
		CREATE INDEX IF NOT EXISTS order_events_wallet_idx ON order_events (wallet);
	`)
	return err
}

// Append inserts order lifecycle events. Duplicate (tx, order, kind) rows
// are ignored so re-running a command never double-journals.
func (s *Store) Append(ctx context.Context, events []model.OrderEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO order_events (
				chain_id, order_id, wallet, pool, kind, side, zero_for_one,
				tick_lower, tick_upper, liquidity, amount0, amount1, tx_hash, event_ts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (tx_hash, order_id, kind) DO NOTHING
		`,
			int64(event.ChainID),
			event.OrderID,
			event.Wallet,
			event.Pool,
			string(event.Kind),
			string(event.Side),
			event.ZeroForOne,
			event.TickLower,
			event.TickUpper,
			event.Liquidity,
			event.Amount0,
			event.Amount1,
			event.TxHash,
			event.Timestamp,
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

// LoadEvents returns the journaled events for a wallet, oldest first.
// The order book view joins these onto on-chain snapshots to recover
// order direction and intent.
func (s *Store) LoadEvents(ctx context.Context, wallet string) ([]model.OrderEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, order_id, wallet, pool, kind, side, zero_for_one,
		       tick_lower, tick_upper, liquidity, amount0, amount1, tx_hash, event_ts
		FROM order_events
		WHERE wallet = $1
		ORDER BY event_ts ASC
	`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.OrderEvent
	for rows.Next() {
		var event model.OrderEvent
		var chainID int64
		var kind, side string
		if err := rows.Scan(
			&chainID,
			&event.OrderID,
			&event.Wallet,
			&event.Pool,
			&kind,
			&side,
			&event.ZeroForOne,
			&event.TickLower,
			&event.TickUpper,
			&event.Liquidity,
			&event.Amount0,
			&event.Amount1,
			&event.TxHash,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		event.ChainID = uint64(chainID)
		event.Kind = model.OrderEventKind(kind)
		event.Side = model.OrderSide(side)
		events = append(events, event)
	}
	return events, rows.Err()
}
