package rest

import (
	"context"
	"encoding/json"
	"fmt"
)

// SuccessFunc runs after a mutation succeeded and its invalidation finished.
type SuccessFunc func(ctx context.Context, data json.RawMessage, cfg *Config)

// ErrorFunc runs after a mutation failed.
type ErrorFunc func(ctx context.Context, err error, cfg *Config)

// MutationOptions are caller hooks and transport options for a mutation.
type MutationOptions struct {
	// OnSuccess is called exactly once per successful execution, after the
	// cache entries under the mutation key were invalidated.
	OnSuccess SuccessFunc
	// OnError is called when the request fails.
	OnError ErrorFunc
	// RequestOptions are merged onto the client defaults for every execution.
	RequestOptions RequestOptions
}

// Operations binds client calls to a query cache: reads go through the cache
// and successful mutations invalidate every read under their canonical path.
type Operations struct {
	client *Client
	cache  QueryCache
	logger Logger
}

// OperationsOption configures Operations.
type OperationsOption func(*Operations)

// WithOperationsLogger sets the logger.
func WithOperationsLogger(logger Logger) OperationsOption {
	return func(o *Operations) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOperations creates the cache-bound operation factory for client.
func NewOperations(client *Client, cache QueryCache, opts ...OperationsOption) *Operations {
	ops := &Operations{
		client: client,
		cache:  cache,
		logger: client.logger,
	}

	for _, opt := range opts {
		opt(ops)
	}

	return ops
}

// Client returns the underlying request client.
func (o *Operations) Client() *Client {
	return o.client
}

// Cache returns the query cache operations are bound to.
func (o *Operations) Cache() QueryCache {
	return o.cache
}

// Query is a cached read of one path and config.
type Query struct {
	ops     *Operations
	path    string
	cfg     *Config
	options []RequestOptions
	key     Key
}

// Get describes a cached read of path with cfg.
func (o *Operations) Get(path string, cfg *Config, opts ...RequestOptions) *Query {
	return &Query{
		ops:     o,
		path:    path,
		cfg:     cfg,
		options: opts,
		key:     ReadKey(path, cfg),
	}
}

// Key returns the query's cache key, [canonical path, config].
func (q *Query) Key() Key {
	return q.key
}

// Fetch returns the cached result, fetching it through the client when the
// cache holds no fresh entry.
func (q *Query) Fetch(ctx context.Context) (json.RawMessage, error) {
	return q.ops.cache.Fetch(ctx, q.key, func(ctx context.Context) (json.RawMessage, error) {
		return q.ops.client.Get(ctx, q.path, q.cfg, q.options...)
	})
}

// Mutation is a create, update or delete bound to the cache.
type Mutation struct {
	ops     *Operations
	verb    Verb
	path    string
	options MutationOptions
	key     Key
}

// Create describes a cache-invalidating create on path.
func (o *Operations) Create(path string, options MutationOptions) *Mutation {
	return o.mutation(VerbCreate, path, options)
}

// Update describes a cache-invalidating update on path.
func (o *Operations) Update(path string, options MutationOptions) *Mutation {
	return o.mutation(VerbUpdate, path, options)
}

// Delete describes a cache-invalidating delete on path.
func (o *Operations) Delete(path string, options MutationOptions) *Mutation {
	return o.mutation(VerbDelete, path, options)
}

func (o *Operations) mutation(verb Verb, path string, options MutationOptions) *Mutation {
	return &Mutation{
		ops:     o,
		verb:    verb,
		path:    path,
		options: options,
		key:     MutationKey(path),
	}
}

// Key returns the mutation's cache key, [canonical path]. It is also the
// prefix invalidated on success.
func (m *Mutation) Key() Key {
	return m.key
}

// Verb returns the mutation's verb.
func (m *Mutation) Verb() Verb {
	return m.verb
}

// Execute runs the mutation with cfg. On success every cache entry under the
// mutation key is invalidated before OnSuccess runs. If invalidation fails
// the data is returned with an error wrapping ErrInvalidationFailed and
// OnSuccess is not called.
func (m *Mutation) Execute(ctx context.Context, cfg *Config) (json.RawMessage, error) {
	data, err := m.ops.client.Do(ctx, m.verb, m.path, cfg, m.options.RequestOptions)
	if err != nil {
		if m.options.OnError != nil {
			m.options.OnError(ctx, err, cfg)
		}

		return nil, err
	}

	err = m.ops.cache.Invalidate(ctx, m.key)
	if err != nil {
		m.ops.logger.Error("cache invalidation failed", map[string]interface{}{
			"verb":  string(m.verb),
			"key":   m.key.String(),
			"error": err.Error(),
		})

		return data, fmt.Errorf("%w: %w", ErrInvalidationFailed, err)
	}

	if m.options.OnSuccess != nil {
		m.options.OnSuccess(ctx, data, cfg)
	}

	return data, nil
}

// FetchAs fetches q and decodes the result into T.
func FetchAs[T any](ctx context.Context, q *Query) (*T, error) {
	return decodeAs[T](q.Fetch(ctx))
}

// ExecuteAs executes m with cfg and decodes the result into T. When
// invalidation fails the decoded data is returned alongside the error.
func ExecuteAs[T any](ctx context.Context, m *Mutation, cfg *Config) (*T, error) {
	raw, err := m.Execute(ctx, cfg)
	if raw == nil {
		return nil, err
	}

	out, derr := decodeAs[T](raw, nil)
	if derr != nil {
		return nil, derr
	}

	return out, err
}
