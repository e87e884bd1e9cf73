package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CacheStore = (*CacheStore)(nil)

const (
	// DefaultPrefix namespaces every key written by the ranking service
	DefaultPrefix = "newsrank:"

	scanBatch = 500
)

// CacheStore implements driven.CacheStore using Redis.
// Entries expire through Redis TTLs, so replicas share one cache.
type CacheStore struct {
	client *redis.Client
	prefix string
}

// NewCacheStore creates a new Redis-backed CacheStore
func NewCacheStore(client *redis.Client, prefix string) *CacheStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &CacheStore{client: client, prefix: prefix}
}

// Get returns the cached value for key
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return data, true, nil
}

// Set stores value with ttl. A non-positive ttl is ignored.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Invalidate deletes every key matching the glob pattern.
// Keys are found with SCAN so large keyspaces do not block the server.
func (s *CacheStore) Invalidate(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Ping verifies the connection
func (s *CacheStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
