// Package kv provides the shared key-value store backing the request shield,
// login protection, and session storage.
//
// # Overview
//
// The Store interface is the minimal contract the security subsystem needs:
// plain get/set with TTL, delete, an atomic set-if-absent (duplicate request
// suppression), and an atomic increment that refreshes the key's TTL (rate
// buckets and failure counters). Both atomic operations must be race-free
// when two requests from the same client arrive concurrently.
//
// # Implementations
//
// RedisStore: production implementation backed by Redis
//
//	store, err := kv.NewRedisStore(cfg.Redis)
//	ok, err := store.Add(ctx, "shield:sig:"+sig, "1", 15*time.Second)
//
// Tests run against miniredis; see redis_test.go.
package kv
