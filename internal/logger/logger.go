// Package logger provides a structured, leveled logger used across every
// bounded context in this module.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level is a logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the logging contract every component depends on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger is the default LoggerInterface implementation, backed by slog.
type Logger struct {
	base *slog.Logger
}

// New creates a Logger writing to w at the given level. name is attached as
// a "component" attribute; extra may hold additional base attributes
// (key, value, key, value, ...), nil if none.
func New(w io.Writer, level Level, name string, extra []any) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	base := slog.New(h)
	attrs := append([]any{"component", name}, extra...)
	return &Logger{base: base.With(attrs...)}
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.base.DebugContext(ctx, msg, kv...)
}

func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.base.InfoContext(ctx, msg, kv...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.base.WarnContext(ctx, msg, kv...)
}

func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.base.ErrorContext(ctx, msg, kv...)
}

// With returns a derived logger carrying the given additional attributes.
func (l *Logger) With(kv ...any) LoggerInterface {
	return &Logger{base: l.base.With(kv...)}
}
