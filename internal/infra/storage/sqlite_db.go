package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the necessary
// schemas for persisting tower snapshots, business snapshots and the
// immutable event log.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// Create tables
	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS tower_state (
			tower_id TEXT PRIMARY KEY,
			map_name TEXT NOT NULL DEFAULT '',
			sim_time DATETIME NOT NULL,
			sim_day INTEGER NOT NULL DEFAULT 1,
			balance REAL NOT NULL DEFAULT 0,
			reputation REAL NOT NULL DEFAULT 50,
			population INTEGER NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS business_snapshots (
			tower_id TEXT NOT NULL,
			floor INTEGER NOT NULL,
			business_type TEXT NOT NULL,
			popularity REAL NOT NULL,
			satisfaction REAL NOT NULL,
			customers INTEGER NOT NULL DEFAULT 0,
			open BOOLEAN NOT NULL DEFAULT 1,
			last_updated DATETIME NOT NULL,
			PRIMARY KEY (tower_id, floor),
			FOREIGN KEY (tower_id) REFERENCES tower_state(tower_id)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			tower_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			sim_time DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			sim_day INTEGER NOT NULL,
			FOREIGN KEY (tower_id) REFERENCES tower_state(tower_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_tower_id ON events(tower_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_events_sim_day ON events(sim_day);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
