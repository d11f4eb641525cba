// ABOUTME: Redis-backed embedding cache used by llm.CachedProvider
// ABOUTME: Vectors are stored as little-endian float32 blobs with a TTL
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harper/stash/internal/storage"
)

const keyPrefix = "stash:embedding:"

// Connect parses a redis:// URL and verifies the server answers PING
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

// Embeddings implements llm.EmbeddingCache
type Embeddings struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewEmbeddings returns a cache whose entries expire after ttl (0 keeps them forever)
func NewEmbeddings(client redis.Cmdable, ttl time.Duration) *Embeddings {
	return &Embeddings{client: client, ttl: ttl}
}

func (e *Embeddings) Get(ctx context.Context, key string) ([]float32, bool, error) {
	blob, err := e.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := storage.DecodeVector(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vec, len(vec) > 0, nil
}

func (e *Embeddings) Set(ctx context.Context, key string, vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	return e.client.Set(ctx, keyPrefix+key, storage.EncodeVector(vec), e.ttl).Err()
}
