package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ConnectToSQLite initializes and returns a SQLite connection
func ConnectToSQLite(dbPath string, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Info("Connected to SQLite database", zap.String("path", dbPath))
	return db, nil
}

// InitializeSchema creates all the necessary tables if they don't exist
func InitializeSchema(db *sql.DB) error {
	// position keeps history order stable across saves
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		location TEXT UNIQUE,
		flag TEXT NOT NULL,
		hello TEXT NOT NULL,
		timezone_offset INTEGER NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		flight_time INTEGER,
		count INTEGER NOT NULL,
		last_time INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS ledger_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last TEXT
	)`)
	if err != nil {
		return fmt.Errorf("failed to create ledger_state table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS event_logs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		location TEXT,
		description TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create event_logs table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS generation_cache (
		id TEXT PRIMARY KEY,
		location TEXT NOT NULL UNIQUE,
		flag TEXT NOT NULL,
		hello TEXT NOT NULL,
		timezone_offset INTEGER NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		flight_time INTEGER,
		provider TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create generation_cache table: %w", err)
	}

	return nil
}
