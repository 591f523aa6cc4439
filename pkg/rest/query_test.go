package rest_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestEncodeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   rest.Values
		expected string
	}{
		{name: "empty", values: rest.Values{}, expected: ""},
		{name: "nil", values: nil, expected: ""},
		{name: "sorted keys", values: rest.Values{"b": "2", "a": "1"}, expected: "a=1&b=2"},
		{name: "numbers and booleans", values: rest.Values{"page": 2, "all": true}, expected: "all=true&page=2"},
		{name: "spaces", values: rest.Values{"q": "a b"}, expected: "q=a%20b"},
		{name: "reserved characters", values: rest.Values{"q": "a&b=c"}, expected: "q=a%26b%3Dc"},
		{name: "nil values skipped", values: rest.Values{"a": nil, "b": "1"}, expected: "b=1"},
		{
			name:     "nested object",
			values:   rest.Values{"filter": map[string]any{"role": "admin"}},
			expected: "filter%5Brole%5D=admin",
		},
		{
			name:     "typed nested map",
			values:   rest.Values{"filter": map[string]string{"a": "b"}},
			expected: "filter%5Ba%5D=b",
		},
		{
			name: "nested struct",
			values: rest.Values{"filter": struct {
				Role  string `json:"role"`
				Limit int64  `json:"limit"`
			}{Role: "admin", Limit: 9007199254740993}},
			expected: "filter%5Blimit%5D=9007199254740993&filter%5Brole%5D=admin",
		},
		{
			name:     "int64 beyond float precision",
			values:   rest.Values{"id": int64(9007199254740993)},
			expected: "id=9007199254740993",
		},
		{
			name:     "large json number",
			values:   rest.Values{"id": json.Number("9007199254740993")},
			expected: "id=9007199254740993",
		},
		{
			name:     "list",
			values:   rest.Values{"ids": []any{"x", "y"}},
			expected: "ids%5B0%5D=x&ids%5B1%5D=y",
		},
		{
			name:     "typed list",
			values:   rest.Values{"ids": []int{3, 4}},
			expected: "ids%5B0%5D=3&ids%5B1%5D=4",
		},
		{
			name:     "list of objects",
			values:   rest.Values{"sort": []any{map[string]any{"field": "name"}}},
			expected: "sort%5B0%5D%5Bfield%5D=name",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, rest.EncodeQuery(testCase.values))
		})
	}
}
