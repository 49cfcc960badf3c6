// Package logger builds the slog loggers used across the ambient agent.
//
// Services log JSON when attached to a pipe or a log collector and switch to
// the charmbracelet/log handler when stdout is a terminal. A run can also
// mirror everything into a JSON log file.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Format selects the handler New builds.
type Format int

const (
	// FormatText is slog's key=value text handler.
	FormatText Format = iota

	// FormatJSON is one JSON object per line.
	FormatJSON

	// FormatPretty is the colorized charmbracelet/log handler.
	FormatPretty
)

type config struct {
	level  slog.Level
	format Format
	source bool
	w      io.Writer
}

// Option configures a logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithFormat picks the output handler.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithWriter sets the destination. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.w = w
	}
}

// WithSource adds the calling file and line to each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

// New creates a *slog.Logger. With no options it writes text at Info level
// to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level: slog.LevelInfo,
		w:     os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.w == nil {
		c.w = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level, AddSource: c.source}

	switch c.format {
	case FormatPretty:
		return slog.New(charmlog.NewWithOptions(c.w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		}))
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(c.w, handlerOpts))
	default:
		return slog.New(slog.NewTextHandler(c.w, handlerOpts))
	}
}

// ForOutput picks pretty output for terminals and JSON otherwise.
func ForOutput(f *os.File, debug bool) *slog.Logger {
	format := FormatJSON
	if term.IsTerminal(int(f.Fd())) {
		format = FormatPretty
	}
	return New(WithWriter(f), WithDebug(debug), WithFormat(format))
}

// Open builds the logger for a long-running command. Records go to out as
// ForOutput would write them and, when logFile is set, are also appended to
// that file as JSON with source locations. The returned closer releases the
// file and is safe to call when no file was opened.
func Open(out *os.File, debug bool, logFile string) (*slog.Logger, io.Closer, error) {
	console := ForOutput(out, debug)
	if logFile == "" {
		return console, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := New(WithWriter(f), WithDebug(debug), WithFormat(FormatJSON), WithSource(true))
	return Tee(console, file), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
