// ABOUTME: Postgres dialect: pgvector columns, $n placeholders, native timestamps
// ABOUTME: Nearest-neighbor search uses the <=> cosine operator and the ivfflat index
package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/harper/stash/internal/storage/sqlstore"
)

// Dialect implements sqlstore.Dialect for lib/pq with the pgvector extension
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return sqlstore.PositionalPlaceholder(n) }

func (Dialect) IDText(column string) string { return column + "::text" }

func (Dialect) Lower(column string) string { return "LOWER(" + column + ")" }

func (Dialect) VectorValue(v []float32) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return pgvector.NewVector(v), nil
}

func (Dialect) NewVectorScanner() sqlstore.VectorScanner { return &nullVector{} }

func (Dialect) TimeValue(t time.Time) any { return t.UTC() }

// Nearest orders embedded items by cosine distance in the database
func (Dialect) Nearest(ctx context.Context, q sqlstore.Querier, query []float32, limit int) ([]sqlstore.Neighbor, error) {
	stmt := `
		SELECT id::text, embedding <=> $1 AS distance
		FROM items
		WHERE embedding IS NOT NULL
		ORDER BY distance`
	args := []any{pgvector.NewVector(query)}
	if limit > 0 {
		stmt += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var neighbors []sqlstore.Neighbor
	for rows.Next() {
		var n sqlstore.Neighbor
		if err := rows.Scan(&n.ID, &n.Distance); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// nullVector wraps pgvector.Vector so NULL columns scan to an empty vector
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vec.Scan(src)
}

func (n *nullVector) Vector() []float32 {
	if !n.valid {
		return nil
	}
	return n.vec.Slice()
}
