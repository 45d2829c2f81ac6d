// Package cache holds values for a fixed time window.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL maps string keys to values that expire a fixed duration after they are set.
// It is safe for concurrent use.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   clockwork.Clock
	group   singleflight.Group
}

// NewTTL creates a cache whose entries live for ttl. A nil clock uses the real clock.
func NewTTL[V any](ttl time.Duration, clock clockwork.Clock) *TTL[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the live value for key
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache's ttl
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// Delete drops key
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included until purged
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge removes expired entries and returns how many were dropped
func (c *TTL[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// GetOrCompute returns the live value for key, or calls compute and stores
// its result. Concurrent callers for the same key share one compute call,
// which runs detached from any single caller's cancellation: a caller whose
// ctx ends gets ctx.Err() while the others keep waiting for the result.
// Errors are returned to every waiting caller and never stored.
func (c *TTL[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, bool, error) {
	var zero V
	if value, ok := c.Get(key); ok {
		return value, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := compute(shared)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}
