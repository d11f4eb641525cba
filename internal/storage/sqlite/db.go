// ABOUTME: SQLite database connection and lifecycle management
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite support
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/harper/stash/internal/storage/sqlstore"
)

// DB is a sqlstore.Store backed by a SQLite file
type DB struct {
	*sqlstore.Store
	path string
}

// DefaultDataDir returns $XDG_DATA_HOME/stash, or ~/.local/share/stash when unset.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/stash"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "stash")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "stash.db")
}

// Open opens or creates a SQLite database at the given path
func Open(path string, opts ...sqlstore.Option) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY on lock upgrades.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return initDB(conn, path, opts)
}

// OpenInMemory creates an in-memory SQLite database (for testing)
func OpenInMemory(opts ...sqlstore.Option) (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every new connection would get its own empty in-memory database.
	conn.SetMaxOpenConns(1)

	return initDB(conn, ":memory:", opts)
}

func initDB(conn *sql.DB, path string, opts []sqlstore.Option) (*DB, error) {
	if _, err := conn.Exec(Schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set schema version: %w", err)
	}

	return &DB{
		Store: sqlstore.New(conn, Dialect{}, opts...),
		path:  path,
	}, nil
}

// Conn returns the underlying sql.DB connection for advanced usage
func (db *DB) Conn() *sql.DB {
	return db.Store.DB()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}
