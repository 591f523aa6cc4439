package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
)

// Verb is one of the four operations a client exposes.
type Verb string

const (
	VerbGet    Verb = "get"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Method returns the HTTP method the verb is dispatched with.
func (v Verb) Method() string {
	switch v {
	case VerbGet:
		return http.MethodGet
	case VerbCreate:
		return http.MethodPost
	case VerbUpdate:
		return http.MethodPatch
	case VerbDelete:
		return http.MethodDelete
	default:
		return ""
	}
}

// Valid reports whether v is a known verb.
func (v Verb) Valid() bool {
	return v.Method() != ""
}

// Verbs returns every verb in dispatch order.
func Verbs() []Verb {
	return []Verb{VerbGet, VerbCreate, VerbUpdate, VerbDelete}
}

// ParseVerb parses a verb name.
func ParseVerb(s string) (Verb, error) {
	verb := Verb(s)
	if !verb.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVerb, s)
	}

	return verb, nil
}

// Values is a parameter object. Nested objects may be Values, any map with
// string keys or a struct, which is read through its JSON object form.
type Values map[string]any

// ToValues normalizes v into Values. Maps with string keys are used as-is;
// any other value is converted through its JSON object form. Numbers keep
// their exact decimal text.
func ToValues(v any) (Values, error) {
	switch typed := v.(type) {
	case nil:
		return Values{}, nil
	case Values:
		return typed, nil
	case map[string]any:
		return Values(typed), nil
	}

	if object, ok := mapObject(reflect.ValueOf(v)); ok {
		return Values(object), nil
	}

	decoded, err := decodeJSON(v)
	if err != nil {
		return nil, err
	}

	if decoded == nil {
		return Values{}, nil
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotAnObject, v)
	}

	return Values(object), nil
}

// normalize returns value in the shape lookups and query encoding walk:
// objects become map[string]any, structs and pointers are read through
// their JSON form. Scalars and slices are returned unchanged.
func normalize(value any) any {
	switch typed := value.(type) {
	case nil, string, json.Number, bool, []byte:
		return value
	case Values:
		return map[string]any(typed)
	case map[string]any:
		return typed
	case fmt.Stringer:
		if _, isMarshaler := value.(json.Marshaler); !isMarshaler {
			return typed
		}
	}

	rv := reflect.ValueOf(value)

	if object, ok := mapObject(rv); ok {
		return object
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	case reflect.Struct:
	default:
		return value
	}

	decoded, err := decodeJSON(value)
	if err != nil {
		return value
	}

	return decoded
}

// mapObject copies a map with string keys into map[string]any.
func mapObject(rv reflect.Value) (map[string]any, bool) {
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	if rv.IsNil() {
		return map[string]any{}, true
	}

	object := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		object[iter.Key().String()] = iter.Value().Interface()
	}

	return object, true
}

// decodeJSON round-trips v through JSON, keeping numbers as json.Number so
// integers beyond float64 precision survive.
func decodeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var decoded any

	err = decoder.Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}

	return decoded, nil
}

// Config is the per-call operation config. It is either flat, where one
// object serves as the payload (body or query) and as the path parameter
// source, or an envelope that separates the two.
type Config struct {
	envelope   bool
	payload    any
	pathParams any
}

// Flat returns a config whose value doubles as payload and path parameters.
func Flat(v any) *Config {
	return &Config{payload: v}
}

// Enveloped returns a config with an explicit payload (body for create and
// update, query for get) and path parameters. A nil pathParams falls back to
// the payload.
func Enveloped(payload, pathParams any) *Config {
	return &Config{envelope: true, payload: payload, pathParams: pathParams}
}

// IsEnvelope reports whether the config uses the envelope form.
func (c *Config) IsEnvelope() bool {
	return c != nil && c.envelope
}

// Payload returns the body or query value.
func (c *Config) Payload() any {
	if c == nil {
		return nil
	}

	return c.payload
}

// PathParams returns the explicit path parameters of an envelope config.
func (c *Config) PathParams() any {
	if c == nil {
		return nil
	}

	return c.pathParams
}

// MarshalJSON renders the config as it appears inside a cache key.
func (c *Config) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}

	if !c.envelope {
		return json.Marshal(c.payload)
	}

	return json.Marshal(struct {
		Payload    any `json:"payload"`
		PathParams any `json:"pathParams"`
	}{c.payload, c.pathParams})
}

// Request is the descriptor handed to interceptors and the transport.
type Request struct {
	Verb     Verb
	Method   string
	URL      string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is what a transport returns for a completed exchange.
type Response struct {
	StatusCode int
	StatusText string
	Headers    http.Header
	Body       []byte
}

// Transport performs a single HTTP exchange.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// RequestOptions are transport options. Client defaults and per-call options
// are deep merged, later values winning.
type RequestOptions struct {
	Headers  map[string]string
	Metadata map[string]interface{}
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
