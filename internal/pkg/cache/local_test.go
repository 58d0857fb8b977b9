package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheLock(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, err := c.AcquireLock(ctx, "lock:checkout:s1", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "lock:checkout:s1", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not be granted twice")

	require.NoError(t, c.ReleaseLock(ctx, "lock:checkout:s1", "b"))
	ok, _ = c.AcquireLock(ctx, "lock:checkout:s1", "b", time.Minute)
	assert.False(t, ok, "release with a foreign token must not free the lock")

	now = now.Add(2 * time.Minute)
	ok, _ = c.AcquireLock(ctx, "lock:checkout:s1", "b", time.Minute)
	assert.True(t, ok, "expired lock is free again")
}

func TestLocalCacheJSONAndPrefixDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache()

	require.NoError(t, c.SetJSON(ctx, ReportKeyPrefix+"refunds:x", map[string]float64{"total": 12.5}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, "other", 1, 0))

	var got map[string]float64
	require.NoError(t, c.GetJSON(ctx, ReportKeyPrefix+"refunds:x", &got))
	assert.Equal(t, 12.5, got["total"])

	require.NoError(t, c.DeletePrefix(ctx, ReportKeyPrefix))
	assert.ErrorIs(t, c.GetJSON(ctx, ReportKeyPrefix+"refunds:x", &got), ErrCacheMiss)

	var other int
	require.NoError(t, c.GetJSON(ctx, "other", &other))
	assert.Equal(t, 1, other)
}
