// ABOUTME: URL metadata fetcher for saved links: page title and description
// ABOUTME: Failures are swallowed; callers always get a (possibly empty) Metadata
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	nurl "net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-shiori/go-readability"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 5 * 1024 * 1024

	userAgent = "Mozilla/5.0 (compatible; stash/1.0; +https://github.com/harper/stash)"
)

// Metadata is what a page says about itself. Empty fields mean unknown.
type Metadata struct {
	Title       string
	Description string
}

// Option configures a Fetcher
type Option func(*Fetcher)

func WithLogger(logger *log.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// Fetcher retrieves page metadata over HTTP
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *log.Logger
}

// New returns a Fetcher; non-positive limits fall back to the defaults
func New(timeout time.Duration, maxBytes int64, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	f := &Fetcher{
		client:   &http.Client{},
		timeout:  timeout,
		maxBytes: maxBytes,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns whatever metadata could be read from url within the timeout
func (f *Fetcher) Fetch(ctx context.Context, url string) Metadata {
	meta, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Debug("url metadata unavailable", "url", url, "err", err)
		return Metadata{}
	}
	return meta
}

func (f *Fetcher) fetch(ctx context.Context, url string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return Metadata{}, fmt.Errorf("read body: %w", err)
	}

	meta := ExtractMetadata(string(body))
	if meta.Title == "" || meta.Description == "" {
		f.fillFromReadability(&meta, body, resp.Request.URL)
	}
	return meta, nil
}

// fillFromReadability supplies missing fields from the article parser
func (f *Fetcher) fillFromReadability(meta *Metadata, body []byte, pageURL *nurl.URL) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		f.logger.Debug("readability failed", "url", pageURL, "err", err)
		return
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(article.Title)
	}
	if meta.Description == "" {
		meta.Description = strings.TrimSpace(article.Excerpt)
	}
}

var descriptionPatterns = []string{
	`name="description" content="`,
	`name="Description" content="`,
}

// ExtractMetadata reads the first <title> element and the first meta
// description using plain substring matching
func ExtractMetadata(page string) Metadata {
	var meta Metadata

	if start := strings.Index(page, "<title>"); start >= 0 {
		start += len("<title>")
		if end := strings.Index(page[start:], "</title>"); end > 0 {
			meta.Title = clean(page[start : start+end])
		}
	}

	for _, pattern := range descriptionPatterns {
		start := strings.Index(page, pattern)
		if start < 0 {
			continue
		}
		start += len(pattern)
		if end := strings.IndexByte(page[start:], '"'); end > 0 {
			meta.Description = clean(page[start : start+end])
			break
		}
	}
	return meta
}

func clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
