package history

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			stopped_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			interval_seconds REAL NOT NULL,
			bpm REAL NOT NULL,
			duration_minutes REAL NOT NULL,
			stop_reason TEXT NOT NULL,
			displays INTEGER NOT NULL,
			mean_delay_ns INTEGER NOT NULL,
			max_delay_ns INTEGER NOT NULL,
			over_100ms INTEGER NOT NULL,
			over_500ms INTEGER NOT NULL,
			over_1s INTEGER NOT NULL,
			superseded INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create sessions table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS sessions_started_at ON sessions (started_at);`)
	if err != nil {
		return fmt.Errorf("migrate: create sessions index: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}

	return nil
}
