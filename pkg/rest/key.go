package rest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const keyElementSeparator = "."

// Key is a structured cache key. Reads use [canonical path, config] and
// mutations use [canonical path].
type Key []any

// ReadKey returns the cache key of a get on path with cfg.
func ReadKey(path string, cfg *Config) Key {
	return Key{CanonicalPath(path), cfg}
}

// MutationKey returns the cache key of a create, update or delete on path.
func MutationKey(path string) Key {
	return Key{CanonicalPath(path)}
}

// Encode renders the key as a string in which tuple prefixes are string
// prefixes: each element is base64url-encoded JSON, joined by ".".
func (k Key) Encode() (string, error) {
	parts := make([]string, len(k))

	for i, element := range k {
		data, err := json.Marshal(element)
		if err != nil {
			return "", fmt.Errorf("failed to encode cache key element %d: %w", i, err)
		}

		parts[i] = base64.RawURLEncoding.EncodeToString(data)
	}

	return strings.Join(parts, keyElementSeparator), nil
}

// String renders the key for logs.
func (k Key) String() string {
	data, err := json.Marshal([]any(k))
	if err != nil {
		return fmt.Sprint([]any(k))
	}

	return string(data)
}

// HasEncodedPrefix reports whether the encoded key belongs under the encoded
// prefix, i.e. the prefix tuple is a leading sub-tuple of the key tuple.
func HasEncodedPrefix(encodedKey, encodedPrefix string) bool {
	if encodedPrefix == "" {
		return true
	}

	return encodedKey == encodedPrefix || strings.HasPrefix(encodedKey, encodedPrefix+keyElementSeparator)
}
