package logger

import (
	"context"
	"errors"
	"log/slog"
)

// Tee returns a logger that writes every record to each of loggers. Each
// logger keeps its own level, so a debug file log can sit next to an info
// console log.
func Tee(loggers ...*slog.Logger) *slog.Logger {
	sinks := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			sinks = append(sinks, l.Handler())
		}
	}
	return slog.New(teeHandler(sinks))
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every enabled sink even when an earlier one fails.
func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
