package framecast

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger with framecast-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithAnalysis adds an analysis_id field to the logger.
func (l *Logger) WithAnalysis(id uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("analysis_id", id),
	}
}

// WithPrincipal adds a principal field to the logger.
func (l *Logger) WithPrincipal(id uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("principal", id),
	}
}

// LogFrameQuery logs a resolved range query.
func (l *Logger) LogFrameQuery(ctx context.Context, fromMS, toMS, chunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "frame query failed",
			"from_ms", fromMS,
			"to_ms", toMS,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "frame query completed",
			"from_ms", fromMS,
			"to_ms", toMS,
			"chunks", chunks,
		)
	}
}

// LogDelete logs an analysis deletion.
func (l *Logger) LogDelete(ctx context.Context, id uuid.UUID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"analysis_id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "delete completed",
			"analysis_id", id,
		)
	}
}
