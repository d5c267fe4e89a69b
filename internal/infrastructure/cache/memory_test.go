package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{name: "string", value: "mavi tablo", want: "mavi tablo"},
		{name: "number decodes as float64", value: 42, want: float64(42)},
		{
			name:  "struct decodes as map",
			value: domain.Price{Amount: "299,99", Value: 299.99, Currency: "TL"},
			want: map[string]interface{}{
				"amount":   "299,99",
				"value":    299.99,
				"currency": "TL",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t)
			require.NoError(t, c.Set(ctx, "key", tt.value, time.Minute))

			got, err := c.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "value", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_UnmarshalableValue(t *testing.T) {
	c := newTestCache(t)

	err := c.Set(context.Background(), "bad", make(chan int), time.Minute)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "old", "v", time.Millisecond))
	require.NoError(t, c.Set(ctx, "fresh", "v", time.Hour))
	assert.Equal(t, 2, c.Size())

	c.removeExpired(time.Now().Add(time.Second))
	assert.Equal(t, 1, c.Size())

	exists, err := c.Exists(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(0)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			assert.NoError(t, c.Set(ctx, key, id, time.Minute))
			_, err := c.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Size())
}
