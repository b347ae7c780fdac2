package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestJSONRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	c.SetJSON(ctx, "k", payload{Name: "miel"}, time.Minute)

	var got payload
	require.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, "miel", got.Name)

	c.Delete(ctx, "k")
	assert.False(t, c.GetJSON(ctx, "k", &got))
}

func TestRememberKeepsFirstValue(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	v, fresh, err := c.Remember(ctx, "idem:1", "order-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, "order-a", v)

	v, fresh, err = c.Remember(ctx, "idem:1", "order-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, "order-a", v)
}

func TestIncrementRateLimitExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.IncrementRateLimit(ctx, "rl", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	mr.FastForward(2 * time.Minute)
	n, err := c.IncrementRateLimit(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	var dest map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &dest))
	c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute)

	v, fresh, err := c.Remember(ctx, "k", "x", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, "x", v)

	n, err := c.IncrementRateLimit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
}
