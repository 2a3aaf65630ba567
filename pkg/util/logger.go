package util

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Development gets human-readable text
// at debug level; every other environment gets JSON at info level.
// component is attached to every record so server and worker logs can be
// told apart once aggregated.
func NewLogger(env, component string) *slog.Logger {
	return newLogger(os.Stdout, env, component)
}

func newLogger(w io.Writer, env, component string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

// DiscardLogger is used by tests that don't care about log output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
