package rest_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

func encodedKey(t *testing.T, key rest.Key) string {
	t.Helper()

	encoded, err := key.Encode()
	require.NoError(t, err)

	return encoded
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := rest.NewMemoryCache(10)

	entry := &rest.CacheEntry{
		Data:      []byte(`{"id":"1"}`),
		ExpiresAt: time.Now().Add(time.Hour),
		ETag:      "v1",
	}

	require.NoError(t, cache.Set(ctx, "key1", entry))

	retrieved, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, "v1", retrieved.ETag)
	assert.True(t, cache.Has(ctx, "key1"))

	_, err = cache.Get(ctx, "missing")
	require.ErrorIs(t, err, rest.ErrKeyNotFound)

	require.NoError(t, cache.Delete(ctx, "key1"))
	assert.False(t, cache.Has(ctx, "key1"))

	require.NoError(t, cache.Set(ctx, "key2", entry))
	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_Expiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := rest.NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "expired", &rest.CacheEntry{
		Data:      []byte("x"),
		ExpiresAt: time.Now().Add(-time.Second),
	}))
	require.NoError(t, cache.Set(ctx, "forever", &rest.CacheEntry{Data: []byte("y")}))

	_, err := cache.Get(ctx, "expired")
	require.ErrorIs(t, err, rest.ErrEntryExpired)

	cache.Cleanup()
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Has(ctx, "forever"))
}

func TestMemoryCache_Eviction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := rest.NewMemoryCache(2)
	now := time.Now()

	require.NoError(t, cache.Set(ctx, "soon", &rest.CacheEntry{ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, cache.Set(ctx, "later", &rest.CacheEntry{ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, cache.Set(ctx, "new", &rest.CacheEntry{ExpiresAt: now.Add(time.Hour)}))

	assert.Equal(t, 2, cache.Len())
	assert.False(t, cache.Has(ctx, "soon"))
	assert.True(t, cache.Has(ctx, "later"))
	assert.True(t, cache.Has(ctx, "new"))

	// Overwriting an existing key never evicts.
	require.NoError(t, cache.Set(ctx, "new", &rest.CacheEntry{ExpiresAt: now.Add(time.Hour)}))
	assert.True(t, cache.Has(ctx, "later"))
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := rest.NewMemoryCache(0)

	keys := []rest.Key{
		rest.ReadKey("users", nil),
		rest.ReadKey("users/:id", rest.Flat(map[string]any{"id": "1"})),
		rest.ReadKey("users/:id", rest.Flat(map[string]any{"id": "2"})),
		rest.ReadKey("posts", nil),
	}

	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, encodedKey(t, key), &rest.CacheEntry{Data: []byte("{}")}))
	}

	removed, err := cache.DeletePrefix(ctx, encodedKey(t, rest.MutationKey("users/:id")))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.True(t, cache.Has(ctx, encodedKey(t, rest.ReadKey("posts", nil))))
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCache_StartCleanup(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := rest.NewMemoryCache(10)
	require.NoError(t, cache.Set(ctx, "expired", &rest.CacheEntry{ExpiresAt: time.Now().Add(-time.Second)}))

	cache.StartCleanup(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCacheFactory_MemoryCache(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := rest.NewCacheFromConfig(ctx, &rest.CacheConfig{
		Type: rest.CacheTypeMemory,
		Memory: &rest.MemoryCacheConfig{
			MaxSize:         100,
			CleanupInterval: "1m",
		},
	})
	require.NoError(t, err)
	require.IsType(t, &rest.MemoryCache{}, cache)

	require.NoError(t, cache.Set(ctx, "test-key", &rest.CacheEntry{Data: []byte("test data")}))
	assert.True(t, cache.Has(ctx, "test-key"))
}

func TestCacheFactory_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name     string
		config   *rest.CacheConfig
		expected error
	}{
		{name: "nats without config", config: &rest.CacheConfig{Type: rest.CacheTypeNATS}, expected: rest.ErrNATSConfigRequired},
		{name: "redis without config", config: &rest.CacheConfig{Type: rest.CacheTypeRedis}, expected: rest.ErrRedisConfigRequired},
		{name: "unknown type", config: &rest.CacheConfig{Type: "memcached"}, expected: rest.ErrUnsupportedCacheType},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := rest.NewCacheFromConfig(ctx, testCase.config)
			require.ErrorIs(t, err, testCase.expected)
		})
	}

	t.Run("invalid cleanup interval", func(t *testing.T) {
		t.Parallel()

		_, err := rest.NewCacheFromConfig(ctx, &rest.CacheConfig{
			Type:   rest.CacheTypeMemory,
			Memory: &rest.MemoryCacheConfig{CleanupInterval: "soon"},
		})
		require.Error(t, err)
	})
}

func TestCacheFactory_Defaults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := rest.NewCacheFromConfig(ctx, nil)
	require.NoError(t, err)
	assert.IsType(t, &rest.MemoryCache{}, cache)

	config := rest.DefaultCacheConfig()
	assert.Equal(t, rest.CacheTypeMemory, config.Type)
	assert.Equal(t, 5*time.Minute, config.Options.StaleTime)
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cache, err := rest.NewCacheFromConfig(ctx, &rest.CacheConfig{Type: rest.CacheTypeNone})
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "test-key", &rest.CacheEntry{Data: []byte("x")}))

	_, err = cache.Get(ctx, "test-key")
	require.ErrorIs(t, err, rest.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "test-key"))

	removed, err := cache.DeletePrefix(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, removed)
	require.NoError(t, cache.Delete(ctx, "test-key"))
	require.NoError(t, cache.Clear(ctx))
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := rest.NewCacheBuilder().
		WithMemory(50, "30s").
		WithStaleTime(time.Minute)

	config := builder.Config()
	assert.Equal(t, rest.CacheTypeMemory, config.Type)
	assert.Equal(t, 50, config.Memory.MaxSize)
	assert.Equal(t, time.Minute, config.Options.StaleTime)

	cache, err := builder.Build(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cache)

	config = rest.NewCacheBuilder().
		WithMemory(10, "").
		WithRedis(&rest.RedisConfig{Addr: "localhost:6379"}).
		Config()
	assert.Equal(t, rest.CacheTypeRedis, config.Type)
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, rest.DefaultCacheOptions(), config.Options)
}

func TestCacheChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l1 := rest.NewMemoryCache(10)
	l2 := rest.NewMemoryCache(10)
	chain := rest.NewCacheChain(l1, l2)

	require.NoError(t, l2.Set(ctx, "key", &rest.CacheEntry{Data: []byte("from l2")}))

	entry, err := chain.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("from l2"), entry.Data)
	assert.True(t, l1.Has(ctx, "key"), "L1 should be back-filled")

	_, err = chain.Get(ctx, "missing")
	require.ErrorIs(t, err, rest.ErrKeyNotFoundInAnyCache)

	for i := 0; i < 3; i++ {
		require.NoError(t, chain.Set(ctx, encodedKey(t, rest.ReadKey(fmt.Sprintf("users/%d", i), nil)), &rest.CacheEntry{}))
	}

	removed, err := chain.DeletePrefix(ctx, encodedKey(t, rest.MutationKey("users/1")))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, chain.Has(ctx, encodedKey(t, rest.ReadKey("users/0", nil))))

	require.NoError(t, chain.Delete(ctx, "key"))
	assert.False(t, chain.Has(ctx, "key"))

	require.NoError(t, chain.Clear(ctx))
	assert.Equal(t, 0, l1.Len())
	assert.Equal(t, 0, l2.Len())
}

func TestCacheChain_LayerFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	healthy := rest.NewMemoryCache(10)
	chain := rest.NewCacheChain(brokenStore{rest.NewNoOpCache()}, healthy)

	key := encodedKey(t, rest.ReadKey("users", nil))
	require.NoError(t, healthy.Set(ctx, key, &rest.CacheEntry{Data: []byte("{}")}))

	entry, err := chain.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), entry.Data)

	removed, err := chain.DeletePrefix(ctx, encodedKey(t, rest.MutationKey("users")))
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, removed)
	assert.False(t, healthy.Has(ctx, key), "healthy layers are still invalidated")
}

func TestCacheStats_GetHitRate(t *testing.T) {
	t.Parallel()

	stats := rest.CacheStats{}
	assert.InDelta(t, 0.0, stats.GetHitRate(), 0.0001)

	stats = rest.CacheStats{Hits: 3, Misses: 1}
	assert.InDelta(t, 0.75, stats.GetHitRate(), 0.0001)
}
