// Package store caches finished outlines in SQLite, keyed by the SHA-256 of
// the source bytes and a fingerprint of the settings that produced them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS outlines (
	content_hash TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	document     TEXT NOT NULL,
	outline_json BLOB NOT NULL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (content_hash, fingerprint)
);`

// Cache is a persistent outline cache.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached outline JSON, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, contentHash, fingerprint string) (data []byte, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT outline_json FROM outlines WHERE content_hash = ? AND fingerprint = ?`,
		contentHash, fingerprint)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	return data, true, nil
}

// Put stores outline JSON, replacing any previous entry for the same key.
func (c *Cache) Put(ctx context.Context, contentHash, fingerprint, document string, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO outlines (content_hash, fingerprint, document, outline_json, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash, fingerprint) DO UPDATE SET
		   document = excluded.document,
		   outline_json = excluded.outline_json,
		   created_at = excluded.created_at`,
		contentHash, fingerprint, document, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	return nil
}

// Len returns the number of cached outlines.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outlines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
