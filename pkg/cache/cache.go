// Package cache provides the key-value side-channel used to memoize
// authorization lookups. The cache is never a source of truth: callers must
// remain correct when every read misses, so implementations report errors but
// callers are expected to degrade to a miss rather than fail.
package cache

import (
	"context"
	"time"
)

// Cache is a small key-value store with TTL'd writes and prefix-pattern
// deletes. Patterns use redis glob syntax ('*' wildcard); keys in this
// codebase are colon-delimited and contain no glob metacharacters.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key for ttl. A non-positive ttl means no
	// expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes all keys matching the given glob patterns.
	DeletePattern(ctx context.Context, patterns ...string) error

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error
}

// Noop is a Cache that stores nothing. Every Get is a miss. It is the
// cache-disabled mode: the system stays correct, just slower.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }

func (Noop) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }

func (Noop) Delete(ctx context.Context, keys ...string) error { return nil }

func (Noop) DeletePattern(ctx context.Context, patterns ...string) error { return nil }

func (Noop) Ping(ctx context.Context) error { return nil }

func (Noop) Close() error { return nil }
