package rest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientConfig configures a client built by restclient.New.
type ClientConfig struct {
	// Required fields
	// BaseURL: root every path is resolved against (e.g., "https://api.example.com").
	// restclient.New normalizes this value by trimming a trailing slash and
	// adding "https://" if no scheme is present.
	BaseURL string

	// Optional configurations
	// Headers: client-level headers merged under every call's headers.
	Headers map[string]string
	// Metadata: client-level metadata merged under every call's metadata.
	Metadata map[string]interface{}
	// UserAgent: overrides the default User-Agent header sent by the transport.
	UserAgent string
	// HTTPTimeout: per-request timeout of the default transport.
	HTTPTimeout time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the client, transport and cache.
	Logger Logger
	// Transport: replaces the default HTTP transport.
	Transport Transport
	// Schema: when set, every call is validated against it before dispatch.
	Schema *Schema
	// Cache: store backing cache-bound operations. Nil uses an in-memory store.
	Cache *CacheConfig
	// StaleTime: overrides Cache.Options.StaleTime when positive.
	StaleTime time.Duration
	// MetricsRegisterer: when set, request and cache metrics are registered on it.
	MetricsRegisterer prometheus.Registerer
	// RequestID: when true, every request carries a generated X-Request-ID header.
	RequestID bool
}
