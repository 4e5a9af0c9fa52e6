package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/typoflow/pkg/history"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS typoflow_snapshots (
    id           TEXT PRIMARY KEY,
    timestamp    BIGINT NOT NULL,
    nodes        JSONB NOT NULL DEFAULT '[]',
    edges        JSONB NOT NULL DEFAULT '[]',
    node_count   INTEGER NOT NULL DEFAULT 0,
    failed_count INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_typoflow_snapshots_timestamp ON typoflow_snapshots(timestamp DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_typoflow_snapshots_failed ON typoflow_snapshots(failed_count, timestamp DESC);
`

// PostgresHistoryStore implements history.Store on PostgreSQL via pgx.
type PostgresHistoryStore struct {
	db *pgxpool.Pool
}

// NewPostgresHistoryStore connects to dsn and creates the schema.
func NewPostgresHistoryStore(ctx context.Context, dsn string) (*PostgresHistoryStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	s := NewPostgresHistoryStoreWithPool(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresHistoryStoreWithPool wraps an existing pool. The schema is not
// created.
func NewPostgresHistoryStoreWithPool(pool *pgxpool.Pool) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: pool}
}

// CreateSchema creates the snapshots table if it doesn't exist.
func (s *PostgresHistoryStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchemaSQL); err != nil {
		return fmt.Errorf("history: create schema: %w", err)
	}
	return nil
}

// DropSchema drops the snapshots table.
func (s *PostgresHistoryStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS typoflow_snapshots`)
	return err
}

// Close releases the pool.
func (s *PostgresHistoryStore) Close() error {
	s.db.Close()
	return nil
}

// Append inserts a snapshot.
func (s *PostgresHistoryStore) Append(ctx context.Context, snap *history.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot append nil snapshot")
	}
	if snap.ID == "" {
		return fmt.Errorf("snapshot ID cannot be empty")
	}

	nodes, edges, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	sum := history.Summarize(snap)

	_, err = s.db.Exec(ctx,
		`INSERT INTO typoflow_snapshots (id, timestamp, nodes, edges, node_count, failed_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, snap.Timestamp, []byte(nodes), []byte(edges), sum.Nodes, sum.Failed,
	)
	if err != nil {
		return fmt.Errorf("history: insert snapshot: %w", err)
	}
	return nil
}

// CountFailed returns how many snapshots contain at least one failed node.
func (s *PostgresHistoryStore) CountFailed(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM typoflow_snapshots WHERE failed_count > 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("history: count failed: %w", err)
	}
	return count, nil
}

// List returns all snapshots, most recent first. Returns an empty slice
// (not nil) if none are stored.
func (s *PostgresHistoryStore) List(ctx context.Context) ([]*history.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, timestamp, nodes, edges FROM typoflow_snapshots ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*history.Snapshot{}
	for rows.Next() {
		var (
			snap         history.Snapshot
			nodes, edges []byte
		)
		if err := rows.Scan(&snap.ID, &snap.Timestamp, &nodes, &edges); err != nil {
			return nil, fmt.Errorf("history: scan snapshot: %w", err)
		}
		if err := decodeSnapshot(&snap, nodes, edges); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows snapshots: %w", err)
	}
	return snapshots, nil
}

// Get fetches a single snapshot by id.
func (s *PostgresHistoryStore) Get(ctx context.Context, id string) (*history.Snapshot, error) {
	var (
		snap         history.Snapshot
		nodes, edges []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, timestamp, nodes, edges FROM typoflow_snapshots WHERE id = $1`, id,
	).Scan(&snap.ID, &snap.Timestamp, &nodes, &edges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", history.ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("history: get snapshot: %w", err)
	}
	if err := decodeSnapshot(&snap, nodes, edges); err != nil {
		return nil, err
	}
	return &snap, nil
}
