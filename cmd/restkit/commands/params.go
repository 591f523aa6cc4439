package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// ParseKeyValues turns key=value pairs into an object. Dotted keys build
// nested objects, so "user.id=7" yields {"user": {"id": "7"}}.
func ParseKeyValues(pairs []string) (map[string]any, error) {
	result := make(map[string]any)

	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", constants.KeyValueParts)
		if len(parts) != constants.KeyValueParts || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, pair)
		}

		err := setNested(result, strings.Split(parts[0], "."), parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, pair)
		}
	}

	return result, nil
}

func setNested(target map[string]any, keys []string, value string) error {
	for _, key := range keys[:len(keys)-1] {
		existing, ok := target[key]
		if !ok {
			next := make(map[string]any)
			target[key] = next
			target = next

			continue
		}

		next, isMap := existing.(map[string]any)
		if !isMap {
			return constants.ErrConflictingValue
		}

		target = next
	}

	last := keys[len(keys)-1]
	if _, isMap := target[last].(map[string]any); isMap {
		return constants.ErrConflictingValue
	}

	target[last] = value

	return nil
}

// ParseHeaders turns key=value pairs into headers.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", constants.KeyValueParts)
		if len(parts) != constants.KeyValueParts || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, pair)
		}

		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return headers, nil
}

// ParseBody decodes a JSON body. A leading "@" reads the body from a file.
// An empty string means no body.
func ParseBody(body string) (any, error) {
	if body == "" {
		return nil, nil
	}

	data := []byte(body)

	if strings.HasPrefix(body, "@") {
		var err error

		data, err = os.ReadFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
	}

	var payload any

	err := json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidBody, err)
	}

	return payload, nil
}

// BuildConfig chooses the operation config for verb. Path parameters and a
// payload together form an envelope; either alone is used flat.
func BuildConfig(verb rest.Verb, params map[string]any, payload any) (*rest.Config, error) {
	hasParams := len(params) > 0
	hasPayload := payload != nil

	if verb == rest.VerbDelete && hasPayload {
		return nil, constants.ErrPayloadNotAllowed
	}

	switch {
	case hasParams && hasPayload:
		return rest.Enveloped(payload, params), nil
	case hasPayload:
		return rest.Flat(payload), nil
	case hasParams:
		return rest.Flat(params), nil
	default:
		return nil, nil
	}
}
