package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/cmd/restkit/commands"
	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/rest"
)

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pairs    []string
		expected map[string]any
		err      error
	}{
		{
			name:     "flat",
			pairs:    []string{"id=7", "name=ada"},
			expected: map[string]any{"id": "7", "name": "ada"},
		},
		{
			name:     "dotted keys nest",
			pairs:    []string{"user.id=7", "user.org=acme", "page=2"},
			expected: map[string]any{"user": map[string]any{"id": "7", "org": "acme"}, "page": "2"},
		},
		{
			name:     "value may contain equals",
			pairs:    []string{"filter=a=b"},
			expected: map[string]any{"filter": "a=b"},
		},
		{
			name:     "empty value",
			pairs:    []string{"q="},
			expected: map[string]any{"q": ""},
		},
		{name: "missing equals", pairs: []string{"id"}, err: constants.ErrInvalidKeyValue},
		{name: "empty key", pairs: []string{"=7"}, err: constants.ErrInvalidKeyValue},
		{name: "scalar then object", pairs: []string{"user=7", "user.id=7"}, err: constants.ErrConflictingValue},
		{name: "object then scalar", pairs: []string{"user.id=7", "user=7"}, err: constants.ErrConflictingValue},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result, err := commands.ParseKeyValues(testCase.pairs)
			if testCase.err != nil {
				require.ErrorIs(t, err, testCase.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, result)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	headers, err := commands.ParseHeaders([]string{"X-Tenant = acme", "Accept=application/json, text/plain"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "Accept": "application/json, text/plain"}, headers)

	_, err = commands.ParseHeaders([]string{"broken"})
	require.ErrorIs(t, err, constants.ErrInvalidKeyValue)
}

func TestParseBody(t *testing.T) {
	t.Parallel()

	t.Run("empty means no body", func(t *testing.T) {
		t.Parallel()

		body, err := commands.ParseBody("")
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("inline json", func(t *testing.T) {
		t.Parallel()

		body, err := commands.ParseBody(`[{"name":"ada"}]`)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"name": "ada"}}, body)
	})

	t.Run("from file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "body.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"grace"}`), 0o600))

		body, err := commands.ParseBody("@" + path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "grace"}, body)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := commands.ParseBody(`{"name":`)
		require.ErrorIs(t, err, constants.ErrInvalidBody)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := commands.ParseBody("@" + filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	params := map[string]any{"id": "7"}
	payload := map[string]any{"name": "ada"}

	tests := []struct {
		name     string
		verb     rest.Verb
		params   map[string]any
		payload  any
		expected *rest.Config
		err      error
	}{
		{name: "nothing", verb: rest.VerbGet, expected: nil},
		{name: "params only", verb: rest.VerbGet, params: params, expected: rest.Flat(params)},
		{name: "payload only", verb: rest.VerbCreate, payload: payload, expected: rest.Flat(payload)},
		{name: "both", verb: rest.VerbUpdate, params: params, payload: payload, expected: rest.Enveloped(payload, params)},
		{name: "delete with params", verb: rest.VerbDelete, params: params, expected: rest.Flat(params)},
		{name: "delete with payload", verb: rest.VerbDelete, params: params, payload: payload, err: constants.ErrPayloadNotAllowed},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := commands.BuildConfig(testCase.verb, testCase.params, testCase.payload)
			if testCase.err != nil {
				require.ErrorIs(t, err, testCase.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, cfg)
		})
	}
}
