package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

func TestMetricsCollector_Requests(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	collector := rest.NewMetricsCollectorWithRegistry(registry)
	ctx := context.Background()

	client := newTestClient(t, newFakeTransport(http.StatusOK, `{}`), rest.WithMetrics(collector))
	_, err := client.Get(ctx, "users", nil)
	require.NoError(t, err)
	_, err = client.Create(ctx, "users", rest.Flat(map[string]any{"name": "ada"}))
	require.NoError(t, err)

	broken := newFakeTransport(0, "")
	broken.err = errors.New("connection refused")
	down := newTestClient(t, broken, rest.WithMetrics(collector))
	_, err = down.Get(ctx, "users", nil)
	require.Error(t, err)

	expected := `
# HELP restkit_requests_total Total number of verb calls dispatched
# TYPE restkit_requests_total counter
restkit_requests_total{status_code="200",verb="create"} 1
restkit_requests_total{status_code="200",verb="get"} 1
# HELP restkit_transport_errors_total Total number of calls whose transport failed
# TYPE restkit_transport_errors_total counter
restkit_transport_errors_total{verb="get"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"restkit_requests_total", "restkit_transport_errors_total"))

	assert.Equal(t, 2, mustCount(t, registry, "restkit_requests_in_flight"))
}

func mustCount(t *testing.T, registry *prometheus.Registry, name string) int {
	t.Helper()

	count, err := testutil.GatherAndCount(registry, name)
	require.NoError(t, err)

	return count
}

func TestMetricsCollector_Cache(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	collector := rest.NewMetricsCollectorWithRegistry(registry)
	cache := rest.NewStoreQueryCache(rest.NewMemoryCache(0), nil, rest.WithQueryCacheMetrics(collector))
	ctx := context.Background()

	fetch := func(context.Context) (json.RawMessage, error) { return json.RawMessage(`[]`), nil }

	for i := 0; i < 3; i++ {
		_, err := cache.Fetch(ctx, rest.ReadKey("users", nil), fetch)
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(ctx, rest.MutationKey("users/:id")))

	expected := `
# HELP restkit_cache_hits_total Total number of reads served from the cache
# TYPE restkit_cache_hits_total counter
restkit_cache_hits_total 2
# HELP restkit_cache_invalidations_total Total number of cache invalidations by canonical path
# TYPE restkit_cache_invalidations_total counter
restkit_cache_invalidations_total{path="users"} 1
# HELP restkit_cache_misses_total Total number of reads that had to fetch
# TYPE restkit_cache_misses_total counter
restkit_cache_misses_total 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"restkit_cache_hits_total", "restkit_cache_misses_total", "restkit_cache_invalidations_total"))
}

func TestMetricsCollector_NilIsSafe(t *testing.T) {
	t.Parallel()

	var collector *rest.MetricsCollector

	assert.NotPanics(t, func() {
		collector.RecordCacheHit()
		collector.RecordCacheMiss()
		collector.RecordInvalidation(rest.MutationKey("users"))
	})
}
