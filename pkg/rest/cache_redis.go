package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"      yaml:"addr"`
	Password  string `mapstructure:"password"  yaml:"password,omitempty"`
	DB        int    `mapstructure:"db"        yaml:"db"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// Client reuses an existing client; the cache will not close it.
	Client *redis.Client `mapstructure:"-" yaml:"-"`
}

// RedisCache stores entries in Redis under a namespace prefix. Entry expiry
// is mirrored as the Redis TTL.
type RedisCache struct {
	client    *redis.Client
	namespace string
	ownClient bool
}

// NewRedisCache creates a Redis cache and checks the server is reachable.
func NewRedisCache(ctx context.Context, config *RedisConfig) (*RedisCache, error) {
	if config == nil {
		return nil, ErrRedisConfigRequired
	}

	client := config.Client
	ownClient := false

	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		})
		ownClient = true
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		if ownClient {
			_ = client.Close()
		}

		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = constants.DefaultRedisNamespace
	}

	return &RedisCache{client: client, namespace: namespace + ":", ownClient: ownClient}, nil
}

// Get returns the entry stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}

		return nil, fmt.Errorf("reading %q from redis: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		return nil, ErrEntryExpired
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = time.Until(entry.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	err = c.client.Set(ctx, c.namespace+key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("writing %q to redis: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.namespace+key).Err()
	if err != nil {
		return fmt.Errorf("deleting %q from redis: %w", key, err)
	}

	return nil
}

// DeletePrefix removes every key under prefix using SCAN. Base64url key
// elements never contain glob metacharacters.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	patterns := []string{c.namespace + "*"}
	if prefix != "" {
		patterns = []string{c.namespace + prefix, c.namespace + prefix + keyElementSeparator + "*"}
	}

	removed := 0

	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, constants.RedisScanCount).Iterator()
		for iter.Next(ctx) {
			n, err := c.client.Del(ctx, iter.Val()).Result()
			if err != nil {
				return removed, fmt.Errorf("deleting %q from redis: %w", iter.Val(), err)
			}

			removed += int(n)
		}

		err := iter.Err()
		if err != nil {
			return removed, fmt.Errorf("scanning redis keys: %w", err)
		}
	}

	return removed, nil
}

// Clear removes every entry in the namespace.
func (c *RedisCache) Clear(ctx context.Context) error {
	_, err := c.DeletePrefix(ctx, "")

	return err
}

// Has reports whether a live entry exists for key.
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the client if the cache created it.
func (c *RedisCache) Close() error {
	if !c.ownClient {
		return nil
	}

	return c.client.Close()
}
