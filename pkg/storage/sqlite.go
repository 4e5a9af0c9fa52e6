package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DatabaseFile is the SQLite file name inside the config directory.
const DatabaseFile = "typoflow.db"

// SQLiteHistoryStore implements history.Store on SQLite.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore opens (creating if needed) the database at dbPath.
func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := InitializeDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &SQLiteHistoryStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

// Append inserts a snapshot. Snapshots are immutable, so an existing id is
// an error rather than an update.
func (s *SQLiteHistoryStore) Append(ctx context.Context, snap *history.Snapshot) error {
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

	query := `
		INSERT INTO snapshots (id, timestamp, nodes, edges, node_count, failed_count)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, snap.ID, snap.Timestamp, nodes, edges, sum.Nodes, sum.Failed); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// List returns all snapshots, most recent first.
func (s *SQLiteHistoryStore) List(ctx context.Context) ([]*history.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, nodes, edges
		FROM snapshots
		ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshots := make([]*history.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// Get returns the snapshot with the given id.
func (s *SQLiteHistoryStore) Get(ctx context.Context, id string) (*history.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, nodes, edges
		FROM snapshots
		WHERE id = ?`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", history.ErrSnapshotNotFound, id)
	}
	return snap, err
}

// CountFailed returns how many snapshots contain at least one failed node.
func (s *SQLiteHistoryStore) CountFailed(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE failed_count > 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*history.Snapshot, error) {
	var (
		snap         history.Snapshot
		nodes, edges string
	)
	if err := row.Scan(&snap.ID, &snap.Timestamp, &nodes, &edges); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	if err := decodeSnapshot(&snap, []byte(nodes), []byte(edges)); err != nil {
		return nil, err
	}
	return &snap, nil
}

func encodeSnapshot(snap *history.Snapshot) (string, string, error) {
	nodes, err := json.Marshal(snap.Nodes)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal snapshot nodes: %w", err)
	}
	edges, err := json.Marshal(snap.Edges)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal snapshot edges: %w", err)
	}
	return string(nodes), string(edges), nil
}

func decodeSnapshot(snap *history.Snapshot, nodes, edges []byte) error {
	snap.Nodes = make([]*graph.Node, 0)
	snap.Edges = make([]*graph.Edge, 0)
	if err := json.Unmarshal(nodes, &snap.Nodes); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot %s nodes: %w", snap.ID, err)
	}
	if err := json.Unmarshal(edges, &snap.Edges); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot %s edges: %w", snap.ID, err)
	}
	return nil
}
