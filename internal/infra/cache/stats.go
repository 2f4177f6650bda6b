package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StatsCache fronts the engine's snapshot queries for the network layer, so
// a burst of identical HTTP reads costs one engine lock instead of many.
type StatsCache struct {
	client     Client
	expiration time.Duration
}

// NewStatsCache creates a stats cache over the given client. TTL is short on
// purpose: stats go stale within a tick anyway.
func NewStatsCache(client Client) *StatsCache {
	return &StatsCache{
		client:     client,
		expiration: 1 * time.Second,
	}
}

// GetJSON retrieves the cached JSON for key into v. Returns ErrMiss when
// absent.
func (c *StatsCache) GetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v as JSON under key with the cache TTL.
func (c *StatsCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, key, string(data), c.expiration)
}

// Invalidate drops cached keys, typically after a player command changes
// the state they describe.
func (c *StatsCache) Invalidate(ctx context.Context, keys ...string) {
	_ = c.client.Del(ctx, keys...)
}

// TowerKey is the cache key for the tower stats snapshot.
func TowerKey(towerID string) string {
	return fmt.Sprintf("tower:%s:stats", towerID)
}

// FloorKey is the cache key for one floor's snapshot.
func FloorKey(towerID string, floor int) string {
	return fmt.Sprintf("tower:%s:floor:%d", towerID, floor)
}
