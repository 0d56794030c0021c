// Package logging wires zerolog for the CLI and the terminal UI.
//
//	log := logging.New(os.Stderr, zerolog.InfoLevel)
//	ctx := logging.WithLogger(context.Background(), &log)
//	ctx, runID := logging.WithRunID(ctx)
//	logging.FromContext(ctx).Info().Str("file", path).Msg("Reading charges")
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

var defaultLogger = zerolog.Nop()

// ParseLevel maps a config value to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New returns a logger writing to w. Terminals get the console writer,
// anything else gets JSON lines.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) && os.Getenv("LOG_FORMAT") != "json" {
		w = zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Open returns a logger for path, or a no-op logger when path is empty.
// The returned closer must be called when done.
func Open(path string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level), f, nil
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = &defaultLogger
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &defaultLogger
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &defaultLogger
}

// WithRunID tags the logger in ctx with a fresh run id so every line of one
// reconciliation can be grouped. The id is returned for the run's result.
func WithRunID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	logger := FromContext(ctx).With().Str("run_id", id).Logger()
	return WithLogger(ctx, &logger), id
}
