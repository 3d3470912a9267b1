// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/favorites/store.go
// Summary: SQLite-backed favorites and recent selections per menu.
// Usage: Open(path) once; Toggle/Has/List for favorites, Touch/Recent for
//   the recent-use history.

package favorites

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS favorites (
	menu    TEXT NOT NULL,
	key     TEXT NOT NULL,
	added   INTEGER NOT NULL,
	PRIMARY KEY (menu, key)
);
CREATE TABLE IF NOT EXISTS recent (
	menu    TEXT NOT NULL,
	key     TEXT NOT NULL,
	used    INTEGER NOT NULL,
	count   INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (menu, key)
);
CREATE INDEX IF NOT EXISTS idx_recent_used ON recent(menu, used DESC);
`

// Store is a favorites database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := checkVersion(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func checkVersion(db *sql.DB) error {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("favorites database version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Toggle flips the favorite flag of key in menu and returns the new state.
func (s *Store) Toggle(menu, key string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM favorites WHERE menu = ? AND key = ?", menu, key)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	removed, _ := res.RowsAffected()
	on := removed == 0
	if on {
		if _, err := tx.Exec("INSERT INTO favorites (menu, key, added) VALUES (?, ?, ?)",
			menu, key, s.now().UnixMilli()); err != nil {
			return false, fmt.Errorf("toggle favorite: %w", err)
		}
	}
	return on, tx.Commit()
}

// Has reports whether key is a favorite in menu.
func (s *Store) Has(menu, key string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM favorites WHERE menu = ? AND key = ?", menu, key).Scan(&n)
	return n > 0, err
}

// List returns the favorite keys of menu as a set.
func (s *Store) List(menu string) (map[string]bool, error) {
	rows, err := s.db.Query("SELECT key FROM favorites WHERE menu = ?", menu)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out[key] = true
	}
	return out, rows.Err()
}

// Touch records a use of key in menu.
func (s *Store) Touch(menu, key string) error {
	_, err := s.db.Exec(`INSERT INTO recent (menu, key, used) VALUES (?, ?, ?)
		ON CONFLICT(menu, key) DO UPDATE SET used = excluded.used, count = count + 1`,
		menu, key, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record recent: %w", err)
	}
	return nil
}

// Recent returns up to limit keys of menu, most recently used first.
func (s *Store) Recent(menu string, limit int) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM recent WHERE menu = ? ORDER BY used DESC, key LIMIT ?", menu, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}
