package commands_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/restkit/cmd/restkit/commands"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := commands.NewLogger(&buf, false)
		logger.Debug("HTTP Request", map[string]interface{}{"url": "https://api.example.com/users"})
		logger.Info("ignored", nil)
		assert.Empty(t, buf.String())

		logger.Warn("cache read failed", map[string]interface{}{"key": "users"})
		assert.Contains(t, buf.String(), "cache read failed")
		assert.Contains(t, buf.String(), "key=users")
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := commands.NewLogger(&buf, true)
		logger.Debug("HTTP Request", map[string]interface{}{"status_code": 200})
		logger.Error("request failed", nil)

		assert.Contains(t, buf.String(), "HTTP Request")
		assert.Contains(t, buf.String(), "status_code=200")
		assert.Contains(t, buf.String(), "request failed")
	})
}
