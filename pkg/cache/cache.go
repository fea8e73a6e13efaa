// Package cache stores pipeline intermediates and rendered artifacts.
//
// Every backend implements [Cache]: a byte store with per-entry TTL. The
// CLI uses [FileCache] under the user cache directory; the HTTP API can share
// a [RedisCache] or [MongoCache] between instances. [NullCache] disables
// caching.
//
// Keys come from a [Keyer] so that every cached value is addressed by a hash
// of the inputs that produced it:
//
//	k := cache.NewDefaultKeyer()
//	key := k.DiagramKey(cache.Hash(logData), cache.DiagramKeyOpts{Turn: 3})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs per cached value type.
const (
	// TTLDiagram keeps built diagrams. They depend only on their inputs.
	TTLDiagram = 7 * 24 * time.Hour

	// TTLArtifact keeps rendered output.
	TTLArtifact = 7 * 24 * time.Hour
)
