// ABOUTME: database/sql implementation of the storage contracts
// ABOUTME: Engine differences (placeholders, vectors, timestamps) live behind Dialect
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/stash/internal/storage"
)

// Querier is the subset of *sql.DB and *sql.Tx used by repositories
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Neighbor is one result of a nearest-vector query
type Neighbor struct {
	ID       string
	Distance float64
}

// VectorScanner reads an embedding column, NULL yields an empty vector
type VectorScanner interface {
	sql.Scanner
	Vector() []float32
}

// Dialect captures what differs between SQL engines
type Dialect interface {
	Name() string
	// Placeholder returns the n-th (1-based) bind parameter marker
	Placeholder(n int) string
	// IDText renders an id column as text for LIKE matching
	IDText(column string) string
	// Lower renders a Unicode-aware lower-case expression for a text column
	Lower(column string) string
	// VectorValue converts an embedding to a driver argument; empty means NULL
	VectorValue(v []float32) (any, error)
	NewVectorScanner() VectorScanner
	TimeValue(t time.Time) any
	// Nearest returns ids ordered by ascending cosine distance to query
	Nearest(ctx context.Context, q Querier, query []float32, limit int) ([]Neighbor, error)
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for created_at/updated_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock.now = now }
}

// WithIDGenerator overrides how new record ids are generated
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store implements storage.Store over a *sql.DB
type Store struct {
	db      *sql.DB
	dialect Dialect
	clock   *clock
	newID   func() string
}

var _ storage.Store = (*Store)(nil)

// New wraps an open database. The schema must already exist.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		clock:   &clock{now: time.Now},
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the engine dialect
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Atomic runs fn inside a transaction
func (s *Store) Atomic(ctx context.Context, fn func(storage.Repository) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&repo{q: tx, store: s}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// repo is a Repository bound to one transaction
type repo struct {
	q     Querier
	store *Store
}

var _ storage.Repository = (*repo)(nil)

func (r *repo) d() Dialect { return r.store.dialect }

func (r *repo) now() time.Time { return r.store.clock.Now() }

// rebind rewrites ? markers into the dialect's placeholder syntax
func (r *repo) rebind(query string) string {
	if r.d().Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString(r.d().Placeholder(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *repo) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.rebind(query), args...)
}

func (r *repo) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.rebind(query), args...)
}

func (r *repo) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.rebind(query), args...)
}

// clock hands out strictly increasing timestamps per store so created_at
// ordering matches insertion order
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// Now returns the current time in UTC at microsecond precision
func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// inClause returns "?, ?, ?" for n arguments
func inClause(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// PositionalPlaceholder is the $n style used by postgres
func PositionalPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
