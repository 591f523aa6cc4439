package constants

import "errors"

// Configuration errors.
var (
	ErrNoBaseURLConfigured = errors.New("no base URL configured, use --base-url or set base_url in the config file")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
)

// Validation errors.
var (
	ErrInvalidKeyValue   = errors.New("expected key=value")
	ErrInvalidBody       = errors.New("body is not valid JSON")
	ErrPayloadNotAllowed = errors.New("delete takes path parameters only")
	ErrConflictingValue  = errors.New("value conflicts with an existing nested key")
)
