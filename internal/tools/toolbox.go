// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jeranaias/minicode/internal/logging"
)

// Notifier delivers a message to the person running the agent.
type Notifier func(message string) error

// Toolbox implements the tools. It holds no state between calls beyond its
// collaborators, so one Toolbox can serve concurrent calls.
type Toolbox struct {
	fs       afero.Fs
	renderer Renderer
	notify   Notifier
	logger   *slog.Logger
	headless bool
	baseDir  string
}

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithFs sets the filesystem the file tools operate on.
func WithFs(fs afero.Fs) Option {
	return func(tb *Toolbox) { tb.fs = fs }
}

// WithRenderer sets the page renderer used by the web tools.
func WithRenderer(r Renderer) Option {
	return func(tb *Toolbox) { tb.renderer = r }
}

// WithNotifier sets how tell_human_something reaches the human.
func WithNotifier(n Notifier) Option {
	return func(tb *Toolbox) { tb.notify = n }
}

// WithLogger sets the logger for tool outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(tb *Toolbox) { tb.logger = l }
}

// WithHeadless controls whether the browser window is hidden.
func WithHeadless(headless bool) Option {
	return func(tb *Toolbox) { tb.headless = headless }
}

// WithBaseDir sets the directory relative paths are resolved against.
// Without it they are resolved against the process working directory.
func WithBaseDir(dir string) Option {
	return func(tb *Toolbox) { tb.baseDir = cleanDir(dir) }
}

// NewToolbox returns a Toolbox over the real filesystem, a Chrome renderer
// and a stdout notifier unless options say otherwise.
func NewToolbox(opts ...Option) *Toolbox {
	tb := &Toolbox{
		fs:       afero.NewOsFs(),
		headless: true,
	}
	for _, opt := range opts {
		opt(tb)
	}
	tb.logger = logging.OrDefault(tb.logger)
	if tb.renderer == nil {
		tb.renderer = &ChromeRenderer{Logger: tb.logger}
	}
	if tb.notify == nil {
		tb.notify = WriterNotifier(os.Stdout)
	}
	return tb
}

// Fs returns the filesystem the toolbox operates on.
func (tb *Toolbox) Fs() afero.Fs {
	return tb.fs
}

// BaseDir returns the directory relative paths are resolved against.
func (tb *Toolbox) BaseDir() string {
	if tb.baseDir != "" {
		return tb.baseDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// InDir returns a copy of tb that resolves relative paths against dir.
func (tb *Toolbox) InDir(dir string) *Toolbox {
	clone := *tb
	clone.baseDir = cleanDir(dir)
	return &clone
}

// resolve joins a relative path onto the base directory.
func (tb *Toolbox) resolve(path string) string {
	if filepath.IsAbs(path) || tb.baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(tb.baseDir, path)
}

func cleanDir(dir string) string {
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// WriterNotifier prints messages to w.
func WriterNotifier(w io.Writer) Notifier {
	return func(message string) error {
		_, err := fmt.Fprintf(w, "\n[agent] %s\n", message)
		return err
	}
}
