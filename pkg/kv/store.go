package kv

import (
	"context"
	"time"
)

// Store is the key-value contract shared by the request shield, the login
// attempt tracker, and the session layer. All entries expire via TTL; there
// is no background sweeper.
type Store interface {
	// Get returns the value for key. The second return is false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores value under key, replacing any existing entry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Add stores value under key only if the key does not already exist.
	// Returns true if the key was created. The test-and-set is atomic.
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Incr increments the integer stored at key, creating it at 1 if absent,
	// and refreshes the key's TTL. The increment is atomic. Used for rolling
	// windows (the login failure counter).
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// IncrFixed increments the integer stored at key, setting the TTL only
	// when the increment creates the key. The key therefore expires a fixed
	// interval after the first hit regardless of later traffic. Used for
	// fixed-window rate buckets.
	IncrFixed(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
