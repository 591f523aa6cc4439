// Package restclient provides the main entry point for creating REST clients
package restclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/restkit/internal/constants"
	resthttp "github.com/fivetwenty-io/restkit/internal/http"
	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// Client bundles a request client with its cache-bound operations and owns
// the cache backend's lifetime.
type Client struct {
	*rest.Operations

	queryCache *rest.StoreQueryCache
	store      rest.Cache
	metrics    *rest.MetricsCollector
	cancel     context.CancelFunc
}

// New creates a client from config. The cache backend lives until Close is
// called or ctx is done.
func New(ctx context.Context, config *rest.ClientConfig) (*Client, error) {
	if config == nil {
		return nil, rest.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, rest.ErrBaseURLRequired
	}

	baseURL := NormalizeBaseURL(config.BaseURL)

	logger := config.Logger

	var metrics *rest.MetricsCollector
	if config.MetricsRegisterer != nil {
		metrics = rest.NewMetricsCollectorWithRegistry(config.MetricsRegisterer)
	}

	transport := config.Transport
	if transport == nil {
		transport = resthttp.NewClient(
			resthttp.WithLogger(logger),
			resthttp.WithDebug(config.Debug),
			resthttp.WithUserAgent(config.UserAgent),
			resthttp.WithTimeout(config.HTTPTimeout),
		)
	}

	chain := rest.NewInterceptorChain()
	if config.RequestID {
		chain.AddRequestInterceptor(rest.RequestIDInterceptor())
	}

	if config.Debug && logger != nil {
		chain.AddRequestInterceptor(rest.LoggingInterceptor(logger))
		chain.AddResponseInterceptor(rest.LoggingResponseInterceptor(logger))
	}

	client, err := rest.NewClient(baseURL, transport,
		rest.WithDefaultOptions(rest.RequestOptions{Headers: config.Headers, Metadata: config.Metadata}),
		rest.WithLogger(logger),
		rest.WithSchema(config.Schema),
		rest.WithInterceptors(chain),
		rest.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	cacheConfig := config.Cache
	if cacheConfig == nil {
		cacheConfig = rest.DefaultCacheConfig()
	}

	options := cacheConfig.Options
	if options == nil {
		options = rest.DefaultCacheOptions()
	}

	if config.StaleTime > 0 {
		options = &rest.CacheOptions{StaleTime: config.StaleTime}
	}

	cacheCtx, cancel := context.WithCancel(ctx)

	store, err := rest.NewCacheFromConfig(cacheCtx, cacheConfig)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	queryCache := rest.NewStoreQueryCache(store, options,
		rest.WithQueryCacheLogger(logger),
		rest.WithQueryCacheMetrics(metrics),
	)

	return &Client{
		Operations: rest.NewOperations(client, queryCache),
		queryCache: queryCache,
		store:      store,
		metrics:    metrics,
		cancel:     cancel,
	}, nil
}

// NormalizeBaseURL trims a trailing slash and adds "https://" when the URL
// has no scheme.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = constants.DefaultScheme + baseURL
	}

	return baseURL
}

// QueryCache returns the query cache reads go through.
func (c *Client) QueryCache() *rest.StoreQueryCache {
	return c.queryCache
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (c *Client) Metrics() *rest.MetricsCollector {
	return c.metrics
}

// Close stops the cache backend and releases its connections.
func (c *Client) Close() error {
	c.cancel()

	switch store := c.store.(type) {
	case interface{ Close() error }:
		return store.Close()
	case interface{ Close() }:
		store.Close()
	}

	return nil
}
