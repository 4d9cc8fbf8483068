// Package fetchcache provides a small TTL cache wrapping a fetch function.
//
// The collaborating feed services (crew roster, live position) refresh on
// demand: the first Get fetches, later Gets within the TTL serve the cached
// value, and a failed refresh keeps serving the stale value for a grace
// period before errors surface to callers.
package fetchcache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FetchFunc retrieves a fresh value from the source of truth.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cache caches a single value of type T with a TTL and a stale grace period.
type Cache[T any] struct {
	name   string
	ttl    time.Duration
	grace  time.Duration
	fetch  FetchFunc[T]
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	has       bool
}

// New creates a Cache. A refresh failure within ttl+grace of the last
// successful fetch serves the stale value; beyond that the error surfaces.
func New[T any](name string, ttl, grace time.Duration, fetch FetchFunc[T], logger *slog.Logger) *Cache[T] {
	return &Cache[T]{
		name:   name,
		ttl:    ttl,
		grace:  grace,
		fetch:  fetch,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the cached value, refreshing it when the TTL has elapsed.
// Concurrent callers are serialized so the source is fetched at most once
// per expiry.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.has && now.Sub(c.fetchedAt) < c.ttl {
		return c.value, nil
	}

	value, err := c.fetch(ctx)
	if err == nil {
		c.value = value
		c.fetchedAt = now
		c.has = true
		return value, nil
	}

	if c.has && now.Sub(c.fetchedAt) < c.ttl+c.grace {
		c.logger.Warn("refresh failed, serving stale value",
			"component", "fetchcache",
			"cache", c.name,
			"age_seconds", now.Sub(c.fetchedAt).Seconds(),
			"error", err,
		)
		return c.value, nil
	}

	var zero T
	return zero, err
}

// Peek returns the cached value and its fetch time without refreshing.
func (c *Cache[T]) Peek() (T, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.fetchedAt, c.has
}

// Invalidate discards the cached value so the next Get refetches.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.has = false
}
