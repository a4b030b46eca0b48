// Package logging wraps slog.Logger with the field names used across colmap.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with colmap-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs
// text to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger writing JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger writing human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithCommand tags every record with a command id.
func (l *Logger) WithCommand(id string) *Logger {
	return &Logger{Logger: l.Logger.With("command", id)}
}

// LogQuery records a finished statement that returned rows.
func (l *Logger) LogQuery(ctx context.Context, sql string, elapsed time.Duration, err error) {
	l.logStatement(ctx, "query", sql, elapsed, err)
}

// LogExec records a finished statement that returned no rows.
func (l *Logger) LogExec(ctx context.Context, sql string, elapsed time.Duration, err error) {
	l.logStatement(ctx, "exec", sql, elapsed, err)
}

func (l *Logger) logStatement(ctx context.Context, kind, sql string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, kind+" failed",
			slog.String("sql", sql),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		return
	}
	l.DebugContext(ctx, kind,
		slog.String("sql", sql),
		slog.Duration("elapsed", elapsed),
	)
}
