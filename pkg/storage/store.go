// Package storage persists uploaded files and cached link metadata in a
// SQLite database under the storage directory.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/edjs/pkg/db"
)

const DatabaseName = "edjs.db"

type Store struct {
	db    *sql.DB
	dir   string
	Files *Files
	Links *LinkCache
}

// Open opens (creating if needed) the database in dir and applies pending
// migrations. linkTTL bounds how long cached link metadata is served.
func Open(dir string, linkTTL time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	conn, err := OpenDB(filepath.Join(dir, DatabaseName))
	if err != nil {
		return nil, err
	}

	if err := db.InitializeDatabase(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	files, err := NewFiles(conn, filepath.Join(dir, "uploads"))
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Store{
		db:    conn,
		dir:   dir,
		Files: files,
		Links: NewLinkCache(conn, linkTTL),
	}, nil
}

// OpenDB opens a SQLite database with the pragmas every connection uses.
func OpenDB(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	return conn, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for migrations and maintenance.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dir() string {
	return s.dir
}

// Optimize refreshes query planner statistics and checkpoints the WAL.
func (s *Store) Optimize() error {
	for _, stmt := range []string{"PRAGMA optimize", "PRAGMA wal_checkpoint(TRUNCATE)"} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("running %s: %w", stmt, err)
		}
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim free pages.
func (s *Store) Vacuum() error {
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("running VACUUM: %w", err)
	}
	return nil
}
