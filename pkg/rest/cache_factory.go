package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeRedis represents a Redis cache.
	CacheTypeRedis CacheType = "redis"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for redis cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig configures cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType `mapstructure:"type" yaml:"type"`

	// Memory cache configuration
	Memory *MemoryCacheConfig `mapstructure:"memory" yaml:"memory,omitempty"`

	// NATS KV cache configuration
	NATS *NATSKVConfig `mapstructure:"nats" yaml:"nats,omitempty"`

	// Redis cache configuration
	Redis *RedisConfig `mapstructure:"redis" yaml:"redis,omitempty"`

	// Common options applied to any backend. If nil, DefaultCacheOptions() is used.
	Options *CacheOptions `mapstructure:"options" yaml:"options,omitempty"`
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// CleanupInterval is the interval for cleaning up expired entries
	CleanupInterval string `mapstructure:"cleanup_interval" yaml:"cleanup_interval"` // Duration string like "1m", "5s"
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCleanupInterval,
		},
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig creates a cache backend from configuration. Backends that
// hold connections or goroutines are bound to ctx.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryCacheFromConfig(ctx, config.Memory)

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(ctx, config.NATS)

	case CacheTypeRedis:
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		return NewRedisCache(ctx, config.Redis)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NewMemoryCacheFromConfig creates a memory cache from configuration and starts
// its cleanup loop, which stops with ctx.
func NewMemoryCacheFromConfig(ctx context.Context, config *MemoryCacheConfig) (Cache, error) {
	if config == nil {
		config = &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCleanupInterval,
		}
	}

	cache := NewMemoryCache(config.MaxSize)

	if config.CleanupInterval != "" {
		interval, err := time.ParseDuration(config.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup interval %q: %w", config.CleanupInterval, err)
		}

		cache.StartCleanup(ctx, interval)
	}

	return cache, nil
}

// NoOpCache stores nothing. Every read misses, so each query hits the
// transport.
type NoOpCache struct{}

// NewNoOpCache returns a store for the "none" cache type.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error { return nil }

func (c *NoOpCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NoOpCache) DeletePrefix(ctx context.Context, prefix string) (int, error) { return 0, nil }

func (c *NoOpCache) Clear(ctx context.Context) error { return nil }

func (c *NoOpCache) Has(ctx context.Context, key string) bool { return false }

// CacheBuilder assembles a CacheConfig. Selecting a backend also sets its
// type; the last backend selected wins.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from a memory store with default options.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: &CacheConfig{
			Type:    CacheTypeMemory,
			Options: DefaultCacheOptions(),
		},
	}
}

// WithMemory selects the in-process store.
func (b *CacheBuilder) WithMemory(maxSize int, cleanupInterval string) *CacheBuilder {
	b.config.Type = CacheTypeMemory
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize, CleanupInterval: cleanupInterval}

	return b
}

// WithRedis selects a Redis store shared between processes.
func (b *CacheBuilder) WithRedis(config *RedisConfig) *CacheBuilder {
	b.config.Type = CacheTypeRedis
	b.config.Redis = config

	return b
}

// WithStaleTime sets how long cached reads are served before a refetch.
func (b *CacheBuilder) WithStaleTime(staleTime time.Duration) *CacheBuilder {
	b.config.Options = &CacheOptions{StaleTime: staleTime}

	return b
}

// Config returns the configuration built so far.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build opens the configured store. It lives until ctx is canceled.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	return NewCacheFromConfig(ctx, b.config)
}

// CacheChain layers stores, fastest first. Reads fall through the layers and
// back-fill the faster ones; writes and invalidations reach every layer.
type CacheChain struct {
	layers []Cache
}

// NewCacheChain layers caches in lookup order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{layers: caches}
}

func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for depth, layer := range c.layers {
		entry, err := layer.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.layers[:depth] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(layer Cache) error { return layer.Set(ctx, key, entry) })
}

func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(layer Cache) error { return layer.Delete(ctx, key) })
}

// DeletePrefix invalidates prefix in every layer. The count is the largest
// removed by a single layer.
func (c *CacheChain) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var removed int

	err := c.each(func(layer Cache) error {
		n, err := layer.DeletePrefix(ctx, prefix)
		removed = max(removed, n)

		return err
	})

	return removed, err
}

func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(layer Cache) error { return layer.Clear(ctx) })
}

// Has reports whether any layer holds key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, layer := range c.layers {
		if layer.Has(ctx, key) {
			return true
		}
	}

	return false
}

// each applies fn to every layer and joins the failures.
func (c *CacheChain) each(fn func(Cache) error) error {
	errs := make([]error, 0, len(c.layers))

	for _, layer := range c.layers {
		errs = append(errs, fn(layer))
	}

	return errors.Join(errs...)
}
