// Package cache defines the port for byte-oriented key-value caching
// with per-entry TTLs. Tool backends use it to avoid repeated upstream
// fetches for identical arguments.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys. Get reports a miss
// with ok=false rather than an error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
