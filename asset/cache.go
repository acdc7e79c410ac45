// Package asset caches loaded assets by key. Concurrent requests for a key that
// is still loading share one load.
package asset

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader loads the asset for key.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Cache holds loaded assets. Failed loads are not cached. A Cache is built
// explicitly and passed to whatever needs it.
type Cache[K comparable, V any] struct {
	load  Loader[K, V]
	group singleflight.Group

	mu     sync.RWMutex
	assets map[K]V
	// flights names the in-progress load of each key for the singleflight group.
	// Keys are numbered rather than printed so distinct keys never share a load.
	flights map[K]string
	next    uint64
}

// NewCache creates a cache backed by load.
func NewCache[K comparable, V any](load Loader[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		load:    load,
		assets:  make(map[K]V),
		flights: make(map[K]string),
	}
}

// Get returns a loaded asset without loading.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.assets[key]
	return v, ok
}

// GetOrLoad returns the cached asset or loads it. Callers waiting on a shared
// load return early when their own ctx is done.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(c.flight(key), func() (any, error) {
		defer c.land(key)
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := c.load(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, fmt.Errorf("load asset %v: %w", key, err)
		}
		c.mu.Lock()
		c.assets[key] = v
		c.mu.Unlock()
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		// a nil interface value does not assert to V
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[K, V]) flight(key K) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.flights[key]
	if !ok {
		c.next++
		name = strconv.FormatUint(c.next, 10)
		c.flights[key] = name
	}
	return name
}

// land forgets the flight of key once its load has finished. Later callers find
// the asset cached, or start a fresh load after a failure.
func (c *Cache[K, V]) land(key K) {
	c.mu.Lock()
	delete(c.flights, key)
	c.mu.Unlock()
}

// Put stores an asset directly, replacing any cached value.
func (c *Cache[K, V]) Put(key K, v V) {
	c.mu.Lock()
	c.assets[key] = v
	c.mu.Unlock()
}

// Evict drops key from the cache.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	delete(c.assets, key)
	c.mu.Unlock()
}

// Len returns the number of cached assets.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}
