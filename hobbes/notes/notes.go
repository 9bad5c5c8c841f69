// Package notes persists the agent's knowledge base between sessions.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named note does not exist.
var ErrNotFound = errors.New("note not found")

// Store is a SQLite-backed note store. Notes are small named text
// blobs the agent reads and rewrites as it plays.
type Store struct {
	db *sql.DB
}

// Open creates or opens the note database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty notes db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; keeps modernc's sqlite happy without WAL tuning.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS notes (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init notes schema: %w", err)
	}

	return &Store{db: db}, nil
}

// List returns all note names in alphabetical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM notes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Get returns the content of the named note.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM notes WHERE name = ?`, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return content, err
}

// Exists reports whether the named note exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Put inserts or replaces the named note.
func (s *Store) Put(ctx context.Context, name, content string) error {
	if name == "" {
		return fmt.Errorf("empty note name")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO notes (name, content, updated_at) VALUES (?, ?, datetime('now'))
ON CONFLICT(name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		name, content)
	return err
}

// Delete removes the named note. Deleting a missing note returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE name = ?`, name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
