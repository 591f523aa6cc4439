package commands

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// Logger adapts zerolog to rest.Logger.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a console logger writing to w. Verbose enables debug
// output; otherwise only warnings and errors are shown.
func NewLogger(w io.Writer, verbose bool) *Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: logger}
}

// Debug implements rest.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info implements rest.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn implements rest.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error implements rest.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

var _ rest.Logger = (*Logger)(nil)
