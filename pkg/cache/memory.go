package cache

import (
	"context"
	"path"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory implements Cache with an in-process LRU. It is used when no Redis
// address is configured (single-node deployments, tests). Expiry is checked
// lazily on Get; the LRU bound keeps the map from growing without limit.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiration
}

var _ Cache = (*Memory)(nil)

// DefaultMemorySize is the entry bound used when size is not positive.
const DefaultMemorySize = 4096

// NewMemory creates an in-process cache holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries}, nil
}

// Get returns the value for key, treating expired entries as misses.
func (c *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl.
func (c *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Add(key, entry)
	return nil
}

// Delete removes the given keys.
func (c *Memory) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.entries.Remove(key)
	}
	return nil
}

// DeletePattern removes all keys matching the given glob patterns. path.Match
// implements the same '*' semantics as redis globs for the colon-delimited
// keys used here (no '/' appears in keys).
func (c *Memory) DeletePattern(ctx context.Context, patterns ...string) error {
	for _, pattern := range patterns {
		for _, key := range c.entries.Keys() {
			matched, err := path.Match(pattern, key)
			if err != nil {
				return err
			}
			if matched {
				c.entries.Remove(key)
			}
		}
	}
	return nil
}

// Ping always succeeds for the in-process cache.
func (c *Memory) Ping(ctx context.Context) error { return nil }

// Close purges all entries.
func (c *Memory) Close() error {
	c.entries.Purge()
	return nil
}
