// ABOUTME: SQLite dialect: blob vectors, text timestamps, in-process cosine ranking
// ABOUTME: SQLite has no vector index, so nearest-neighbor search scans embedded rows
package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"

	"github.com/harper/stash/internal/storage"
	"github.com/harper/stash/internal/storage/sqlstore"
)

// Dialect implements sqlstore.Dialect for modernc.org/sqlite
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) IDText(column string) string { return column }

// lowerFunc is registered with the driver because SQLite's LOWER only folds ASCII
const lowerFunc = "stash_lower"

func init() {
	if err := msqlite.RegisterDeterministicScalarFunction(lowerFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("register %s: %v", lowerFunc, err))
	}
}

func unicodeLower(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", lowerFunc, v)
	}
}

func (Dialect) Lower(column string) string { return lowerFunc + "(" + column + ")" }

func (Dialect) VectorValue(v []float32) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return storage.EncodeVector(v), nil
}

func (Dialect) NewVectorScanner() sqlstore.VectorScanner { return &blobVector{} }

func (Dialect) TimeValue(t time.Time) any {
	return t.UTC().Format(sqlstore.TimeLayout)
}

// Nearest loads every embedding and ranks by cosine distance
func (Dialect) Nearest(ctx context.Context, q sqlstore.Querier, query []float32, limit int) ([]sqlstore.Neighbor, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, embedding FROM items WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var neighbors []sqlstore.Neighbor
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := storage.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		// Vectors from a different embedding model cannot be compared.
		if len(vec) != len(query) {
			continue
		}
		neighbors = append(neighbors, sqlstore.Neighbor{ID: id, Distance: storage.CosineDistance(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if limit > 0 && len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

// blobVector scans a little-endian float32 BLOB
type blobVector struct {
	v []float32
}

func (b *blobVector) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		b.v = nil
		return nil
	case []byte:
		v, err := storage.DecodeVector(x)
		if err != nil {
			return err
		}
		b.v = v
		return nil
	default:
		return fmt.Errorf("unsupported embedding value %T", src)
	}
}

func (b *blobVector) Vector() []float32 { return b.v }
