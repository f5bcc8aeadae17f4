package flashmat

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with flashmat-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithWorker adds a worker id field to the logger.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", id),
	}
}

// WithMatrix adds the matrix name to the logger.
func (l *Logger) WithMatrix(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("matrix", name),
	}
}

// LogRun logs a finished out-of-core operation.
func (l *Logger) LogRun(ctx context.Context, op string, blocks, failed int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"blocks", blocks,
			"failed_blocks", failed,
			"duration", d,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op+" completed",
			"blocks", blocks,
			"duration", d,
		)
	}
}

// LogBlockFailure logs a row block whose read failed.
func (l *Logger) LogBlockFailure(ctx context.Context, block int, err error) {
	l.WarnContext(ctx, "row block failed",
		"block", block,
		"error", err,
	)
}

// LogSteal logs a successful steal.
func (l *Logger) LogSteal(ctx context.Context, blocks int) {
	l.DebugContext(ctx, "row blocks stolen",
		"blocks", blocks,
	)
}
