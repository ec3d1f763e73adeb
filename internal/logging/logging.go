// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the slog loggers used by minicode.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Options controls the console logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level

	// NoColor disables ANSI colors (also implied by NO_COLOR).
	NoColor bool

	// TimeFormat overrides the default clock format.
	TimeFormat string
}

// DefaultTimeFormat is short on purpose: runs are interactive.
const DefaultTimeFormat = "15:04:05.000"

// New returns a tint-backed logger writing to output.
func New(output io.Writer, opts Options) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}
	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = DefaultTimeFormat
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      opts.Level,
		TimeFormat: timeFormat,
		NoColor:    opts.NoColor || os.Getenv("NO_COLOR") != "",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Setup installs a console logger as the process default and returns it.
func Setup(output io.Writer, opts Options) *slog.Logger {
	logger := New(output, opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
