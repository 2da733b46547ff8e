package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	c, err := NewMemory(0)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ExpiredEntryIsMiss(t *testing.T) {
	c, err := NewMemory(16)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", -time.Second))

	// Negative ttl stores without expiration per the Cache contract only for
	// ttl <= 0 in Set; Memory treats non-positive ttl as no expiry.
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	// An entry whose deadline already passed must read as a miss.
	c.entries.Add("stale", memoryEntry{value: "v", expiresAt: time.Now().Add(-time.Second)})
	_, ok, _ = c.Get(ctx, "stale")
	assert.False(t, ok)
}

func TestMemory_DeletePattern(t *testing.T) {
	c, err := NewMemory(64)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "authz:coach-link:3:9:view", "1", 0)
	c.Set(ctx, "authz:coach-link:3:9:full", "1", 0)
	c.Set(ctx, "authz:coach-link:4:9:view", "0", 0)
	c.Set(ctx, "authz:profile-owner:3:9", "1", 0)

	require.NoError(t, c.DeletePattern(ctx, "authz:coach-link:3:*"))

	_, ok, _ := c.Get(ctx, "authz:coach-link:3:9:view")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "authz:coach-link:3:9:full")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "authz:coach-link:4:9:view")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "authz:profile-owner:3:9")
	assert.True(t, ok)
}

func TestMemory_LRUBound(t *testing.T) {
	c, err := NewMemory(4)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), "v", 0)
	}

	assert.LessOrEqual(t, c.entries.Len(), 4)
}

func TestNoop_AlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeletePattern(ctx, "*"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}
