package driven

import (
	"context"
	"time"
)

// CacheStore is a TTL key/value store shared across requests.
// Implementations must be safe for concurrent use. Entries are independent
// and idempotently overwritable.
type CacheStore interface {
	// Get returns the value for key. found is false on miss or expiry.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes every key matching the glob pattern and returns the count
	Invalidate(ctx context.Context, pattern string) (int, error)
}

// Clock abstracts time for components that need deterministic tests
type Clock interface {
	Now() time.Time
}
