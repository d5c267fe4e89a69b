package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable Redis; set DECORLENS_TEST_REDIS_URL (e.g. redis://localhost:6379/0).
func setupRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	url := os.Getenv("DECORLENS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DECORLENS_TEST_REDIS_URL not set")
	}

	c, err := NewRedisCache(context.Background(), url, "decorlens-test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not a url", "p:")
	assert.Error(t, err)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "products", []string{"a", "b"}, time.Minute))

	got, err := c.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, got)

	exists, err := c.Exists(ctx, "products")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "products"))
	_, err = c.Get(ctx, "products")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
