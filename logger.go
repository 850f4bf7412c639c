package chunkstore

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chunk store specific helpers so that every
// operation logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs text
// to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger writing JSON to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger writing human-readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// LogSchema logs schema initialization.
func (l *Logger) LogSchema(ctx context.Context, backend string, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "schema init failed",
			"backend", backend,
			"dimension", dimension,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "schema ready",
		"backend", backend,
		"dimension", dimension,
	)
}

// LogInsert logs a single insert.
func (l *Logger) LogInsert(ctx context.Context, id int64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"dimension", dimension,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "insert completed",
		"id", id,
		"dimension", dimension,
	)
}

// LogBatchInsert logs a bulk insert; committed is the number of chunks stored
// before err occurred.
func (l *Logger) LogBatchInsert(ctx context.Context, count, committed int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch insert stopped",
			"total", count,
			"committed", committed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch insert completed",
		"count", count,
	)
}

// LogSearch logs a similarity search.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", resultsFound,
	)
}

// LogDelete logs a delete.
func (l *Logger) LogDelete(ctx context.Context, deleted int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "delete completed",
		"deleted", deleted,
	)
}

// LogUpdate logs an update.
func (l *Logger) LogUpdate(ctx context.Context, id int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"id", id,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "update completed",
		"id", id,
	)
}
