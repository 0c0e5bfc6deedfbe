// Package db provides SQLite database initialization and access.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath returns the default database path: ~/.keyswap/keyswap.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".keyswap", "keyswap.db"), nil
}

// dsnParams are applied to every pooled connection.
const dsnParams = "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"

// Open opens (or creates) the Keyswap database at path and brings its
// schema up to date.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, closeAfter(db, fmt.Errorf("connecting to %s: %w", path, err))
	}
	if err := migrate(db); err != nil {
		return nil, closeAfter(db, fmt.Errorf("running migrations: %w", err))
	}

	return db, nil
}

// closeAfter closes db after a failed setup step and returns cause.
func closeAfter(db *sql.DB, cause error) error {
	if err := db.Close(); err != nil {
		return fmt.Errorf("%w (also failed to close: %v)", cause, err)
	}
	return cause
}
