package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	pathSeparator     = "/"
	placeholderMarker = ":"
	lookupSeparator   = "."
)

// RenderPath substitutes every ":name" segment of template with the matching
// value. Names may be dotted to reach into nested objects. Segment order and
// empty leading/trailing segments are preserved.
func RenderPath(template string, values Values) (string, error) {
	parts := strings.Split(template, pathSeparator)

	for i, part := range parts {
		if !strings.HasPrefix(part, placeholderMarker) {
			continue
		}

		name := strings.TrimPrefix(part, placeholderMarker)

		value, ok := lookup(values, name)
		if !ok {
			return "", &MissingParameterError{Template: template, Name: name}
		}

		parts[i] = stringify(value)
	}

	return strings.Join(parts, pathSeparator), nil
}

// CanonicalPath drops every placeholder segment from template. The result is
// only used to group cache keys; it is never sent over the wire.
func CanonicalPath(template string) string {
	parts := strings.Split(template, pathSeparator)
	kept := parts[:0:0]

	for _, part := range parts {
		if !strings.HasPrefix(part, placeholderMarker) {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, pathSeparator)
}

// Placeholders returns the placeholder names of template in order.
func Placeholders(template string) []string {
	var names []string

	for _, part := range strings.Split(template, pathSeparator) {
		if strings.HasPrefix(part, placeholderMarker) {
			names = append(names, strings.TrimPrefix(part, placeholderMarker))
		}
	}

	return names
}

// lookup resolves a dotted name through nested objects. A sibling key that
// shares the leaf name is never consulted.
func lookup(values Values, name string) (any, bool) {
	var current any = map[string]any(values)

	for _, key := range strings.Split(name, lookupSeparator) {
		object, ok := normalize(current).(map[string]any)
		if !ok {
			return nil, false
		}

		next, ok := object[key]
		if !ok || next == nil {
			return nil, false
		}

		current = next
	}

	return normalize(current), true
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
