// Package history persists completed attack records in a local sqlite database.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS attacks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ssid TEXT NOT NULL,
	bssid TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	success INTEGER NOT NULL DEFAULT 0,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);`

// Entry is one finished attack run.
type Entry struct {
	ID         int64  `json:"id"`
	SSID       string `json:"ssid"`
	BSSID      string `json:"bssid"`
	Result     string `json:"result"`
	Success    bool   `json:"success"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

// Store wraps the sqlite database holding attack history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a finished attack run.
func (s *Store) Record(entry Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO attacks (ssid, bssid, result, success, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SSID, entry.BSSID, entry.Result, entry.Success, entry.StartedAt, entry.FinishedAt)
	if err != nil {
		return fmt.Errorf("record attack: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, ssid, bssid, result, success, started_at, finished_at
		 FROM attacks ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SSID, &e.BSSID, &e.Result,
			&e.Success, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}
