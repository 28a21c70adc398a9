package recgo

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with recgo-specific context.
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
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithMode adds the query mode to the logger.
func (l *Logger) WithMode(mode string) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode),
	}
}

// WithTopK adds a top_k field to the logger.
func (l *Logger) WithTopK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("top_k", k),
	}
}

// WithWorker adds a worker index to the logger.
func (l *Logger) WithWorker(w int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", w),
	}
}

// LogLookup logs the lookup maps built for a call.
func (l *Logger) LogLookup(ctx context.Context, exclusions, restrictions, observations, dropped int) {
	l.DebugContext(ctx, "lookup maps built",
		"exclusions", exclusions,
		"restrictions", restrictions,
		"observations", observations,
		"dropped", dropped,
	)
}

// LogProgress logs periodic progress of a batch call.
func (l *Logger) LogProgress(ctx context.Context, completed uint64, total int, perSecond float64) {
	l.InfoContext(ctx, "recommendations progress",
		"completed", completed,
		"total", total,
		"queries_per_second", perSecond,
	)
}

// LogRecommend logs the end of a batch call.
func (l *Logger) LogRecommend(ctx context.Context, queries, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recommend failed",
			"queries", queries,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "recommend completed",
			"queries", queries,
			"rows", rows,
		)
	}
}

// LogEvaluate logs a precision/recall evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, entities int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluation failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluation completed",
			"entities", entities,
		)
	}
}
