package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrMalformedBody       = errors.New("response body is not valid JSON")
	ErrEnvelopeNotAllowed  = errors.New("delete accepts path parameters only")
	ErrUnknownVerb         = errors.New("unknown verb")
	ErrTransportRequired   = errors.New("transport is required")
	ErrBaseURLRequired     = errors.New("base URL is required")
	ErrConfigRequired      = errors.New("config is required")
	ErrInvalidationFailed  = errors.New("cache invalidation failed")
	ErrPathNotDeclared     = errors.New("path not declared in schema")
	ErrVerbNotDeclared     = errors.New("verb not declared for path")
	ErrUndeclaredParameter = errors.New("path parameter not declared in schema")
	ErrInvalidSchema       = errors.New("invalid schema")
	ErrNotAnObject         = errors.New("value is not an object")
)

// MissingParameterError is returned when a path placeholder cannot be resolved
// from the supplied values. It is raised before any network call.
type MissingParameterError struct {
	Template string
	Name     string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing path parameter %q for %q", e.Name, e.Template)
}

// HTTPError is returned when the transport completed but the server answered
// with a non-success status.
type HTTPError struct {
	StatusCode int
	StatusText string
	// Message is the server supplied "message" field, if the body carried one.
	Message string
	Body    json.RawMessage
}

// Error returns the server message when present, the status text otherwise.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return e.StatusText
}

// TransportError is returned when the request could not be completed: the
// transport failed or a success response carried an unparseable body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// SchemaError reports a call that the configured schema does not allow.
type SchemaError struct {
	Verb Verb
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Verb, e.Path, e.Err)
}

// Unwrap returns the schema violation.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// newHTTPError builds an HTTPError, preferring a "message" field from the body.
func newHTTPError(resp *Response, body json.RawMessage) *HTTPError {
	statusText := resp.StatusText
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}

	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		StatusText: statusText,
		Body:       body,
	}

	if body != nil {
		var payload struct {
			Message any `json:"message"`
		}

		err := json.Unmarshal(body, &payload)
		if err == nil {
			if msg, ok := payload.Message.(string); ok {
				httpErr.Message = msg
			}
		}
	}

	return httpErr
}

// IsMissingParameter checks if the error is a missing path parameter error.
func IsMissingParameter(err error) bool {
	missing := &MissingParameterError{}

	return errors.As(err, &missing)
}

// IsHTTPError checks if the error is a non-success HTTP response.
func IsHTTPError(err error) bool {
	httpErr := &HTTPError{}

	return errors.As(err, &httpErr)
}

// IsTransportError checks if the error is a transport failure.
func IsTransportError(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}

	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	return 0
}
