package storage

import (
	"database/sql"
	"fmt"
)

// MigrationVersion tracks the current database schema version.
const MigrationVersion = 2

// InitializeDatabase creates or upgrades the SQLite schema for run history.
func InitializeDatabase(db *sql.DB) error {
	migrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to check migration version: %w", err)
	}

	migrations := []func(*sql.Tx) error{applyMigration1, applyMigration2}
	for i, apply := range migrations {
		version := i + 1
		if currentVersion >= version {
			continue
		}
		if err := runMigration(db, version, apply); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}

func runMigration(db *sql.DB, version int, apply func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// applyMigration1 creates the snapshots table.
func applyMigration1(tx *sql.Tx) error {
	snapshotsTable := `
	CREATE TABLE snapshots (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		nodes TEXT NOT NULL,
		edges TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := tx.Exec(snapshotsTable); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	if _, err := tx.Exec("CREATE INDEX idx_snapshots_timestamp ON snapshots(timestamp DESC, id DESC);"); err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}
	return nil
}

// applyMigration2 adds node and failure counts.
func applyMigration2(tx *sql.Tx) error {
	columns := []string{
		"ALTER TABLE snapshots ADD COLUMN node_count INTEGER NOT NULL DEFAULT 0;",
		"ALTER TABLE snapshots ADD COLUMN failed_count INTEGER NOT NULL DEFAULT 0;",
	}
	for _, stmt := range columns {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add snapshot column: %w", err)
		}
	}
	if _, err := tx.Exec("CREATE INDEX idx_snapshots_failed ON snapshots(failed_count, timestamp DESC);"); err != nil {
		return fmt.Errorf("failed to create failed_count index: %w", err)
	}
	return nil
}
