package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces the value of a cache entry.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// QueryCache is the contract cache-bound operations rely on: a fetch-and-cache
// primitive keyed by a structured key, and invalidation by key prefix.
type QueryCache interface {
	// Fetch returns the fresh entry for key, or runs fetch and stores its
	// result when there is none.
	Fetch(ctx context.Context, key Key, fetch FetchFunc) (json.RawMessage, error)
	// Invalidate removes every entry whose key starts with prefix.
	Invalidate(ctx context.Context, prefix Key) error
}

// StoreQueryCache implements QueryCache on top of a Cache store.
//
// Concurrent fetches of one key share a single producer call. Invalidation
// bumps a generation counter: a fetch that started before any invalidation
// does not store its result, so a read that starts after a successful
// invalidation never sees data fetched before it.
type StoreQueryCache struct {
	store     Cache
	staleTime time.Duration
	logger    Logger
	metrics   *MetricsCollector

	group      singleflight.Group
	generation atomic.Uint64

	// mu orders generation bumps against result stores.
	mu       sync.RWMutex
	inflight map[string]int

	hits          atomic.Int64
	misses        atomic.Int64
	sets          atomic.Int64
	invalidations atomic.Int64
}

// QueryCacheOption configures a StoreQueryCache.
type QueryCacheOption func(*StoreQueryCache)

// WithQueryCacheLogger sets the logger.
func WithQueryCacheLogger(logger Logger) QueryCacheOption {
	return func(c *StoreQueryCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQueryCacheMetrics records hits, misses and invalidations on collector.
func WithQueryCacheMetrics(collector *MetricsCollector) QueryCacheOption {
	return func(c *StoreQueryCache) {
		c.metrics = collector
	}
}

// NewStoreQueryCache creates a query cache over store. A nil options uses
// DefaultCacheOptions; a non-positive StaleTime keeps entries until they are
// invalidated.
func NewStoreQueryCache(store Cache, options *CacheOptions, opts ...QueryCacheOption) *StoreQueryCache {
	if options == nil {
		options = DefaultCacheOptions()
	}

	cache := &StoreQueryCache{
		store:     store,
		staleTime: options.StaleTime,
		logger:    noopLogger{},
		inflight:  make(map[string]int),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Fetch implements QueryCache.
func (c *StoreQueryCache) Fetch(ctx context.Context, key Key, fetch FetchFunc) (json.RawMessage, error) {
	encoded, err := key.Encode()
	if err != nil {
		return nil, err
	}

	entry, err := c.store.Get(ctx, encoded)
	if err == nil {
		c.hits.Add(1)
		c.metrics.RecordCacheHit()

		return entry.Data, nil
	}

	if !isCacheMiss(err) {
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
	}

	c.misses.Add(1)
	c.metrics.RecordCacheMiss()

	result, err, _ := c.group.Do(encoded, func() (interface{}, error) {
		return c.fetchAndStore(ctx, key, encoded, fetch)
	})
	if err != nil {
		return nil, err
	}

	data, _ := result.(json.RawMessage)

	return data, nil
}

func (c *StoreQueryCache) fetchAndStore(ctx context.Context, key Key, encoded string, fetch FetchFunc) (json.RawMessage, error) {
	c.mu.Lock()
	generation := c.generation.Load()
	c.inflight[encoded]++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight[encoded]--
		if c.inflight[encoded] <= 0 {
			delete(c.inflight, encoded)
		}
		c.mu.Unlock()
	}()

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.generation.Load() != generation {
		c.logger.Debug("discarding result fetched before invalidation", map[string]interface{}{
			"key": key.String(),
		})

		return data, nil
	}

	entry := &CacheEntry{Data: data}
	if c.staleTime > 0 {
		entry.ExpiresAt = time.Now().Add(c.staleTime)
	}

	err = c.store.Set(ctx, encoded, entry)
	if err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})

		return data, nil
	}

	c.sets.Add(1)

	return data, nil
}

// Invalidate implements QueryCache.
func (c *StoreQueryCache) Invalidate(ctx context.Context, prefix Key) error {
	encoded, err := prefix.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.generation.Add(1)

	for key := range c.inflight {
		if HasEncodedPrefix(key, encoded) {
			c.group.Forget(key)
		}
	}
	c.mu.Unlock()

	removed, err := c.store.DeletePrefix(ctx, encoded)
	if err != nil {
		return fmt.Errorf("invalidating %s: %w", prefix, err)
	}

	c.invalidations.Add(1)
	c.metrics.RecordInvalidation(prefix)
	c.logger.Debug("cache invalidated", map[string]interface{}{
		"prefix":  prefix.String(),
		"removed": removed,
	})

	return nil
}

func isCacheMiss(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrEntryExpired) ||
		errors.Is(err, ErrCacheDisabled) ||
		errors.Is(err, ErrKeyNotFoundInAnyCache)
}

// GetStats returns a snapshot of the cache statistics.
func (c *StoreQueryCache) GetStats() CacheStats {
	return CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Sets:          c.sets.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Store returns the underlying store.
func (c *StoreQueryCache) Store() Cache {
	return c.store
}
