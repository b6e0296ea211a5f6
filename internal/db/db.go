package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const (
	// DriverCGO is github.com/mattn/go-sqlite3
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite, usable with CGO_ENABLED=0
	DriverPure = "sqlite"
)

// DB wraps the database connection and exposes it as a key/value store
type DB struct {
	*sql.DB
}

// Open creates a database connection and initializes the schema
func Open(driver, path string) (*DB, error) {
	dsn, err := dsnFor(driver, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// One writer; keeps :memory: databases on a single connection too.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func dsnFor(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return path + "?_busy_timeout=5000", nil
	case DriverPure:
		return "file:" + path + "?_pragma=busy_timeout(5000)", nil
	}
	return "", fmt.Errorf("unknown sqlite driver %q (want %s or %s)", driver, DriverCGO, DriverPure)
}

// Get retrieves a value by key, nil if unset
func (db *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := db.QueryRow("SELECT value FROM store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return value, err
}

// Set replaces the value stored under key
func (db *DB) Set(key string, value []byte) error {
	_, err := db.Exec(`
		INSERT INTO store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// Delete removes a key
func (db *DB) Delete(key string) error {
	_, err := db.Exec("DELETE FROM store WHERE key = ?", key)
	return err
}

// Keys returns all stored keys
func (db *DB) Keys() ([]string, error) {
	rows, err := db.Query("SELECT key FROM store ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
