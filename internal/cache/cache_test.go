package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientFailsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	v, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))
}

func TestUnreachableRedis(t *testing.T) {
	c := New("127.0.0.1:1", "", 0, "test:")
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := c.Get(ctx, "k")
	assert.NoError(t, err, "reads behave like a miss")
	assert.Nil(t, v)

	assert.Error(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.Error(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Delete(ctx), "no keys means no round trip")
}

// TestRedisRoundTrip runs against a live Redis when REDIS_ADDR is set.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("set REDIS_ADDR to run this integration test")
	}
	ctx := context.Background()
	c := New(addr, os.Getenv("REDIS_PASSWORD"), 0, "cyberguard-test:"+uuid.NewString()+":")
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Delete(ctx, "a", "b"))
	v, _ = c.Get(ctx, "b")
	assert.Nil(t, v)
}
