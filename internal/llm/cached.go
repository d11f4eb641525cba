// ABOUTME: Provider decorator that memoizes embeddings in an external cache
// ABOUTME: Cache faults are logged and bypassed so they never fail a call
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/charmbracelet/log"
)

// EmbeddingCache stores vectors by opaque key
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// CachedProvider serves Embed from cache when possible. Classify and
// AnalyzeImage pass straight through.
type CachedProvider struct {
	Provider
	cache  EmbeddingCache
	model  string
	logger *log.Logger
}

// NewCachedProvider wraps inner. model distinguishes vectors from different embedding models.
func NewCachedProvider(inner Provider, cache EmbeddingCache, model string, logger *log.Logger) *CachedProvider {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedProvider{Provider: inner, cache: cache, model: model, logger: logger}
}

// CacheKey derives the cache key for text embedded with model
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(p.model, text)

	vec, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("embedding cache read failed", "err", err)
	} else if ok {
		return vec, nil
	}

	vec, err = p.Provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, vec); err != nil {
		p.logger.Warn("embedding cache write failed", "err", err)
	}
	return vec, nil
}
