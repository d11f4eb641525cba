// ABOUTME: Shared plumbing for the item, search, and declutter services
// ABOUTME: Sentinel errors, functional options, and provider outcome logging
package core

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/stash/internal/fetch"
	"github.com/harper/stash/internal/llm"
)

var (
	// ErrNothingToExport is returned when an export would be empty
	ErrNothingToExport = errors.New("nothing to export")
	// ErrUnsupportedFormat is returned for export formats other than json, csv, and yaml
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNoItemsIdentified is returned when image analysis finds no objects
	ErrNoItemsIdentified = errors.New("no items identified in image")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidDecision   = errors.New("invalid decision")
	ErrInvalidPeriod     = errors.New("invalid summary period")
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrNoTags            = errors.New("at least one tag name is required")
)

const (
	DefaultListLimit     = 10
	DefaultKeywordLimit  = 10
	DefaultSemanticLimit = 5
	DefaultTaskLimit     = 20

	recentWindow = 7 * 24 * time.Hour
)

// Source records where a captured item or task came from
type Source struct {
	Channel   string
	MessageID string
}

// URLFetcher looks up page metadata for saved links
type URLFetcher interface {
	Fetch(ctx context.Context, url string) fetch.Metadata
}

// Option configures a service
type Option func(*deps)

type deps struct {
	logger  *log.Logger
	now     func() time.Time
	fetcher URLFetcher
}

func newDeps(opts []Option) deps {
	d := deps{logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithLogger sets the service logger
func WithLogger(logger *log.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

// WithNow overrides the clock used for "recent" windows
func WithNow(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithFetcher sets the URL metadata fetcher used by CreateItemFromURL
func WithFetcher(f URLFetcher) Option {
	return func(d *deps) { d.fetcher = f }
}

// logProvider records a soft provider failure: unavailable is expected, anything else is worth a warning
func logProvider(logger *log.Logger, op string, err error) {
	if errors.Is(err, llm.ErrUnavailable) {
		logger.Debug("ai provider unavailable", "op", op)
		return
	}
	logger.Warn("ai provider call failed", "op", op, "err", err)
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
