// ABOUTME: Postgres connection management for the stash store
// ABOUTME: Uses lib/pq; the schema comes from the embedded migrations
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/harper/stash/internal/storage/sqlstore"
)

// DB is a sqlstore.Store backed by postgres
type DB struct {
	*sqlstore.Store
}

// Open connects to postgres. Run Migrate first on a fresh database.
func Open(ctx context.Context, dsn string, opts ...sqlstore.Option) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	return New(conn, opts...), nil
}

// New wraps an already open connection pool
func New(conn *sql.DB, opts ...sqlstore.Option) *DB {
	return &DB{Store: sqlstore.New(conn, Dialect{}, opts...)}
}
