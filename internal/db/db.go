// Package db opens the listingiq SQLite store and keeps its schema current.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// Memory opens a private in-memory database, used by tests and one-off runs.
const Memory = ":memory:"

// busyTimeoutMS lets the API server and a CLI run share one database file
// without failing on a momentary write lock.
const busyTimeoutMS = 5000

// DefaultPath returns the default database path: ~/.config/listingiq/listingiq.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "listingiq", "listingiq.db"), nil
}

// SQLiteVersion reports the version of the linked SQLite library.
func SQLiteVersion() string {
	v, _, _ := sqlite3.Version()
	return v
}

// dsn builds the go-sqlite3 connection string. Pragmas set here apply to
// every pooled connection, not only the first.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", fmt.Sprint(busyTimeoutMS))
	params.Set("_txlock", "immediate")
	if path != Memory {
		params.Set("_journal_mode", "WAL")
	}
	return path + "?" + params.Encode()
}

// Open opens (or creates) the database at path and applies any pending
// migrations. Parent directories are created as needed. Pass Memory for a
// throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != Memory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == Memory {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}

	if err := check(db, path); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if err := migrate(db); err != nil {
		return nil, errors.Join(fmt.Errorf("running migrations: %w", err), db.Close())
	}

	return db, nil
}

// check confirms the connection is usable and the DSN pragmas took effect.
func check(db *sql.DB, path string) error {
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			return fmt.Errorf("opening %s: sqlite error %d: %w", path, sqliteErr.Code, err)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if fk != 1 {
		return errors.New("foreign keys are not enabled")
	}
	return nil
}
