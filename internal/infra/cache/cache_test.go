package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Del(ctx, "k", "other"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", 10*time.Millisecond))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "expired entries read as misses")
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	time.Sleep(5 * time.Millisecond)
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

type snapshot struct {
	Floors     int     `json:"floors"`
	Reputation float64 `json:"reputation"`
}

func TestStatsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewStatsCache(NewMemory())
	key := TowerKey("TOWER_1")

	var miss snapshot
	assert.ErrorIs(t, c.GetJSON(ctx, key, &miss), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, key, snapshot{Floors: 12, Reputation: 63.5}))

	var got snapshot
	require.NoError(t, c.GetJSON(ctx, key, &got))
	assert.Equal(t, snapshot{Floors: 12, Reputation: 63.5}, got)

	c.Invalidate(ctx, key)
	assert.ErrorIs(t, c.GetJSON(ctx, key, &got), ErrMiss)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "tower:TOWER_1:stats", TowerKey("TOWER_1"))
	assert.Equal(t, "tower:TOWER_1:floor:7", FloorKey("TOWER_1", 7))
}
