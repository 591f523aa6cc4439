package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

const contentTypeHeader = "Content-Type"

// Client dispatches the four verbs against a base URL. It is immutable after
// construction and safe for concurrent use.
type Client struct {
	baseURL      string
	transport    Transport
	defaults     RequestOptions
	logger       Logger
	schema       *Schema
	interceptors *InterceptorChain
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultOptions sets the client-level transport options every call is
// merged onto.
func WithDefaultOptions(options RequestOptions) ClientOption {
	return func(c *Client) {
		c.defaults = mergeOptions(RequestOptions{}, options)
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSchema makes every call validate its verb and path against schema first.
func WithSchema(schema *Schema) ClientOption {
	return func(c *Client) {
		c.schema = schema
	}
}

// WithInterceptors appends the interceptors of chain to the client's chain.
func WithInterceptors(chain *InterceptorChain) ClientOption {
	return func(c *Client) {
		if chain == nil {
			return
		}

		c.interceptors.requestInterceptors = append(c.interceptors.requestInterceptors, chain.requestInterceptors...)
		c.interceptors.responseInterceptors = append(c.interceptors.responseInterceptors, chain.responseInterceptors...)
	}
}

// WithMetrics records request metrics on collector.
func WithMetrics(collector *MetricsCollector) ClientOption {
	return func(c *Client) {
		if collector == nil {
			return
		}

		c.interceptors.AddRequestInterceptor(MetricsRequestInterceptor(collector))
		c.interceptors.AddResponseInterceptor(MetricsResponseInterceptor(collector))
	}
}

// NewClient creates a client that sends requests through transport.
func NewClient(baseURL string, transport Transport, opts ...ClientOption) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, pathSeparator),
		transport:    transport,
		logger:       noopLogger{},
		interceptors: NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.interceptors = client.interceptors.clone()

	return client, nil
}

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Schema returns the schema calls are validated against, if any.
func (c *Client) Schema() *Schema {
	return c.schema
}

// Get fetches path. cfg is a flat query object or an envelope with query and
// path parameters; the query is appended to the URL when non-empty.
func (c *Client) Get(ctx context.Context, path string, cfg *Config, opts ...RequestOptions) (json.RawMessage, error) {
	return c.do(ctx, VerbGet, path, cfg, opts)
}

// Create posts the resolved body to path.
func (c *Client) Create(ctx context.Context, path string, cfg *Config, opts ...RequestOptions) (json.RawMessage, error) {
	return c.do(ctx, VerbCreate, path, cfg, opts)
}

// Update patches path with the resolved body.
func (c *Client) Update(ctx context.Context, path string, cfg *Config, opts ...RequestOptions) (json.RawMessage, error) {
	return c.do(ctx, VerbUpdate, path, cfg, opts)
}

// Delete deletes path. cfg must be a flat path parameters object.
func (c *Client) Delete(ctx context.Context, path string, cfg *Config, opts ...RequestOptions) (json.RawMessage, error) {
	return c.do(ctx, VerbDelete, path, cfg, opts)
}

// Do dispatches verb. It is the common entry point of the four verb methods.
func (c *Client) Do(ctx context.Context, verb Verb, path string, cfg *Config, opts ...RequestOptions) (json.RawMessage, error) {
	return c.do(ctx, verb, path, cfg, opts)
}

// BuildRequest resolves cfg against path and returns the request descriptor
// that would be sent, without sending it.
func (c *Client) BuildRequest(verb Verb, path string, cfg *Config, opts ...RequestOptions) (*Request, error) {
	if !verb.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}

	if c.schema != nil {
		err := c.schema.Validate(verb, path)
		if err != nil {
			return nil, err
		}
	}

	resolved, err := Resolve(verb, cfg)
	if err != nil {
		return nil, err
	}

	rendered, err := RenderPath(path, resolved.PathParams)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + pathSeparator + strings.TrimPrefix(rendered, pathSeparator)

	if verb == VerbGet {
		if query := EncodeQuery(resolved.PayloadValues); query != "" {
			url += "?" + query
		}
	}

	options := mergeOptions(c.defaults, opts...)

	req := &Request{
		Verb:     verb,
		Method:   verb.Method(),
		URL:      url,
		Headers:  buildHeaders(options.Headers),
		Metadata: options.Metadata,
	}

	if verb == VerbCreate || verb == VerbUpdate {
		body, err := json.Marshal(resolved.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		req.Body = body
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, verb Verb, path string, cfg *Config, opts []RequestOptions) (json.RawMessage, error) {
	req, err := c.BuildRequest(verb, path, cfg, opts...)
	if err != nil {
		return nil, err
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)

	ierr := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)

	if err != nil {
		c.logger.Debug("request failed", map[string]interface{}{
			"verb":  string(verb),
			"url":   req.URL,
			"error": err.Error(),
		})

		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}

	if ierr != nil {
		return nil, ierr
	}

	c.logger.Debug("request completed", map[string]interface{}{
		"verb":        string(verb),
		"url":         req.URL,
		"status_code": resp.StatusCode,
		"duration":    time.Since(start).String(),
	})

	return handleResponse(req, resp)
}

// handleResponse parses the body before classifying the status so an error
// payload's message can be surfaced. An empty body yields nil.
func handleResponse(req *Request, resp *Response) (json.RawMessage, error) {
	success := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices

	var parsed json.RawMessage

	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 {
		switch {
		case json.Valid(body):
			parsed = json.RawMessage(body)
		case success:
			return nil, &TransportError{Method: req.Method, URL: req.URL, Err: ErrMalformedBody}
		}
	}

	if !success {
		return nil, newHTTPError(resp, parsed)
	}

	return parsed, nil
}

// buildHeaders layers the JSON content type under the merged headers.
func buildHeaders(headers map[string]string) http.Header {
	result := make(http.Header)
	result.Set(contentTypeHeader, constants.ContentTypeJSON)

	for key, value := range headers {
		result.Set(key, value)
	}

	return result
}

// mergeOptions deep merges options onto base without mutating either.
// Header keys compare case-insensitively.
func mergeOptions(base RequestOptions, options ...RequestOptions) RequestOptions {
	merged := RequestOptions{
		Headers:  make(map[string]string, len(base.Headers)),
		Metadata: mergeMaps(nil, base.Metadata),
	}

	for key, value := range base.Headers {
		merged.Headers[http.CanonicalHeaderKey(key)] = value
	}

	for _, opt := range options {
		for key, value := range opt.Headers {
			merged.Headers[http.CanonicalHeaderKey(key)] = value
		}

		merged.Metadata = mergeMaps(merged.Metadata, opt.Metadata)
	}

	return merged
}

func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}

	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})

		switch {
		case srcIsMap && dstIsMap:
			dst[key] = mergeMaps(mergeMaps(nil, dstMap), srcMap)
		case srcIsMap:
			dst[key] = mergeMaps(nil, srcMap)
		default:
			dst[key] = value
		}
	}

	return dst
}

// GetAs fetches path and decodes the result into T. A nil result means the
// response body was empty.
func GetAs[T any](ctx context.Context, c *Client, path string, cfg *Config, opts ...RequestOptions) (*T, error) {
	return decodeAs[T](c.Get(ctx, path, cfg, opts...))
}

// CreateAs creates and decodes the result into T.
func CreateAs[T any](ctx context.Context, c *Client, path string, cfg *Config, opts ...RequestOptions) (*T, error) {
	return decodeAs[T](c.Create(ctx, path, cfg, opts...))
}

// UpdateAs updates and decodes the result into T.
func UpdateAs[T any](ctx context.Context, c *Client, path string, cfg *Config, opts ...RequestOptions) (*T, error) {
	return decodeAs[T](c.Update(ctx, path, cfg, opts...))
}

// DeleteAs deletes and decodes the result into T.
func DeleteAs[T any](ctx context.Context, c *Client, path string, cfg *Config, opts ...RequestOptions) (*T, error) {
	return decodeAs[T](c.Delete(ctx, path, cfg, opts...))
}

func decodeAs[T any](raw json.RawMessage, err error) (*T, error) {
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, nil
	}

	var out *T

	err = json.Unmarshal(raw, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return out, nil
}
