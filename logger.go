package pme

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with engine-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithClassifier adds a classifier field to the logger.
func (l *Logger) WithClassifier(id uint16) *Logger {
	return &Logger{
		Logger: l.Logger.With("classifier", id),
	}
}

// LogSubmit logs a submission.
func (l *Logger) LogSubmit(ctx context.Context, id uint16, patterns int, status Status, err error) {
	if err != nil {
		l.ErrorContext(ctx, "submit failed",
			"classifier", id,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "submit completed",
		"classifier", id,
		"patterns", patterns,
		"status", status,
	)
}

// LogLearn logs a learn operation.
func (l *Logger) LogLearn(ctx context.Context, id uint16, category uint16, outcome LearnOutcome, err error) {
	if err != nil {
		l.WarnContext(ctx, "learn failed",
			"classifier", id,
			"category", category,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "learn completed",
		"classifier", id,
		"category", category,
		"outcome", outcome,
	)
}

// LogScore logs a scoring pass.
func (l *Logger) LogScore(ctx context.Context, id uint16, out ScoreOutcome, err error) {
	if err != nil {
		l.WarnContext(ctx, "score failed",
			"classifier", id,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "score completed",
		"classifier", id,
		"pattern", out.PatternID,
		"correct", out.Correct,
	)
}

// LogRebalance logs a rebalance.
func (l *Logger) LogRebalance(ctx context.Context, id uint16, reassigned int) {
	l.InfoContext(ctx, "rebalance completed",
		"classifier", id,
		"reassigned", reassigned,
	)
}

// LogFlush logs a flush.
func (l *Logger) LogFlush(ctx context.Context, id uint16, dropped int) {
	l.InfoContext(ctx, "classifier flushed",
		"classifier", id,
		"dropped", dropped,
	)
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, version uint64, classifiers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"version", version,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "model saved",
		"version", version,
		"classifiers", classifiers,
	)
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, version uint64, patterns int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"version", version,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "model loaded",
		"version", version,
		"patterns", patterns,
	)
}
