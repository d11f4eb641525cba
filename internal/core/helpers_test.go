// ABOUTME: Test doubles shared by the service tests
// ABOUTME: A scriptable AI provider, a canned URL fetcher, and an in-memory store
package core

import (
	"context"
	"testing"

	"github.com/harper/stash/internal/fetch"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/logging"
	"github.com/harper/stash/internal/storage/sqlite"
	"github.com/harper/stash/internal/storage/sqlstore"
)

// fakeProvider answers from maps; err, when set, is returned by every call
type fakeProvider struct {
	vectors map[string][]float32
	labels  map[string]string
	advice  []llm.Advice
	err     error

	embedCalls    int
	classifyCalls int
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func (f *fakeProvider) Classify(_ context.Context, text string) (string, error) {
	f.classifyCalls++
	if f.err != nil {
		return "", f.err
	}
	if label, ok := f.labels[text]; ok {
		return label, nil
	}
	return llm.FallbackCategory, nil
}

func (f *fakeProvider) AnalyzeImage(context.Context, string) ([]llm.Advice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.advice, nil
}

type fakeFetcher struct {
	meta fetch.Metadata
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) fetch.Metadata {
	f.urls = append(f.urls, url)
	return f.meta
}

func newTestStore(t *testing.T, opts ...sqlstore.Option) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenInMemory(opts...)
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sqlite.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s error = %v", table, err)
	}
	return n
}

func quiet() Option {
	return WithLogger(logging.Discard())
}
