package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "devices", []byte("[]"), time.Minute))

	b, ok, err := c.Get(ctx, "devices")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("[]"), b)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "devices")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Settings(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	_, ok, err := c.GetSetting(ctx, "deviceId")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetSetting(ctx, "deviceId", "box-1"))
	v, ok, err := c.GetSetting(ctx, "deviceId")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "box-1", v)

	// settings are namespaced and do not expire
	require.True(t, mr.Exists("settings:deviceId"))
	require.Equal(t, time.Duration(0), mr.TTL("settings:deviceId"))
}

func TestRedisCache_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()

	_, _, err := c.GetSetting(context.Background(), "apiKey")
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis get")
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())
	t.Cleanup(func() { _ = rl.Close() })

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)
}
