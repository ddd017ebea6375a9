// Package store persists conversation transcripts in SQLite. The database is
// the durable source of truth for thread history; everything else rebuilds
// from it on restart.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle. appendMu makes seq assignment and the insert
// one atomic step.
type DB struct {
	conn     *sql.DB
	appendMu sync.Mutex
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc.org/sqlite serializes internally but a single connection keeps
	// writer behavior predictable.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.conn.Close()
}
