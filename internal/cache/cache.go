// Package cache provides a generic, size-bounded cache with per-entry TTL.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize bounds the number of entries held by a cache.
const DefaultSize = 1024

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache stores values until their TTL elapses. Entries never outlive maxAge,
// whatever TTL they were stored with.
type Cache[K comparable, V any] struct {
	lru *expirable.LRU[K, item[V]]
	now func() time.Time
}

// New returns a cache whose entries are evicted after at most maxAge.
func New[K comparable, V any](maxAge time.Duration) *Cache[K, V] {
	return NewWithSize[K, V](DefaultSize, maxAge)
}

// NewWithSize is New with an explicit entry bound.
func NewWithSize[K comparable, V any](size int, maxAge time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, item[V]](size, nil, maxAge),
		now: time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	it, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !it.expiresAt.IsZero() && !c.now().Before(it.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key for ttl. A non-positive ttl means maxAge.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	it := item[V]{value: value}
	if ttl > 0 {
		it.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, it)
}

// Delete removes key.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.lru.Remove(key)
}

// Len returns the number of entries, including ones not yet reaped.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *Cache[K, V]) Close() {
	c.lru.Purge()
}
