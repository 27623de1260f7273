package core

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process root logger. Format "console" writes
// human-readable output; anything else emits JSON lines. Components derive
// their own loggers with logger.With().Str("component", ...).
func NewLogger(format, level string) zerolog.Logger {
	return NewLoggerWithCapture(format, level, nil)
}

// NewLoggerWithCapture is NewLogger plus an optional capture writer that
// receives every log line as JSON, regardless of the display format. The
// serve command points this at a LogRingBuffer so recent logs can be served
// over the API.
func NewLoggerWithCapture(format, level string, capture io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer
	if format == "console" {
		out = zerolog.NewConsoleWriter()
	} else {
		out = os.Stderr
	}
	if capture != nil {
		out = zerolog.MultiLevelWriter(out, capture)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
