package revocation

import (
	"context"
	"time"
)

// Cache is a key-value store with per-entry time-to-live used to hold
// revoked access tokens until they would have expired anyway.
type Cache interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
}
