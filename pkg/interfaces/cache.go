package interfaces

import (
	"context"
	"time"
)

// CacheProvider is the TTL-bounded key-value contract backing the cache gate.
// Get returns (nil, nil) on a miss; implementations must tolerate concurrent
// readers and apply last-writer-wins on concurrent writes to the same key.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with prefix. Bulk
	// invalidation is best effort and non-transactional.
	DeletePrefix(ctx context.Context, prefix string) error
}
