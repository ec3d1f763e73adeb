// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jeranaias/minicode/internal/agent"
	"github.com/jeranaias/minicode/internal/config"
	"github.com/jeranaias/minicode/internal/logging"
	"github.com/jeranaias/minicode/internal/tools"
)

// =============================================================================
// SHARED SETUP
// =============================================================================

// SetupLogging installs the process logger for args and returns it.
func SetupLogging(args Args) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case args.Verbose:
		level = slog.LevelDebug
	case args.Quiet:
		level = slog.LevelWarn
	}
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	return logging.Setup(stderr, logging.Options{
		Level:   level,
		NoColor: !IsStderrTTY() || args.NoColor,
	})
}

// projectDir returns args.Dir as an absolute path, or "" when unset.
func projectDir(args Args) (string, error) {
	if args.Dir == "" {
		return "", nil
	}
	abs, err := filepath.Abs(args.Dir)
	if err != nil {
		return "", NewValidationError("dir", args.Dir, err.Error())
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", NewValidationError("dir", args.Dir, "is not a directory")
	}
	return abs, nil
}

// loadConfig loads .env, the config file, environment overrides and finally
// the command-line overrides, in that order.
func loadConfig(args Args, logger *slog.Logger) (*config.Config, error) {
	dir, err := projectDir(args)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(dir); err != nil {
		logger.Warn("ignoring .env file", "err", err)
	}

	cfg := config.NewLoader(logger).Load(dir)
	cfg.ApplyEnvOverrides()

	if args.Model != "" {
		cfg.LM.Model = args.Model
	}
	if args.MaxIters > 0 {
		cfg.Agent.MaxIters = args.MaxIters
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewCommandError("config", "load", "invalid configuration", err)
	}
	return cfg, nil
}

// newToolbox builds the toolbox used by the CLI. Messages for the human go
// to w.
func newToolbox(cfg *config.Config, logger *slog.Logger, w io.Writer, extra ...tools.Option) *tools.Toolbox {
	opts := []tools.Option{
		tools.WithLogger(logger),
		tools.WithHeadless(cfg.Agent.Headless),
		tools.WithNotifier(tools.WriterNotifier(w)),
	}
	return tools.NewToolbox(append(opts, extra...)...)
}

// newAgent builds an agent for args, reporting progress on stderr unless
// quiet.
func newAgent(cfg *config.Config, args Args, logger *slog.Logger) (*agent.Agent, error) {
	// Keep stdout clean for the JSON document.
	humanOut := stdout
	if args.JSON {
		humanOut = stderr
	}

	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithToolbox(newToolbox(cfg, logger, humanOut)),
	}
	// Relative tool paths resolve against --dir.
	if dir, _ := projectDir(args); dir != "" {
		opts = append(opts, agent.WithWorkDir(dir))
	}
	if !args.Quiet {
		progress := &progressPrinter{w: stderr, verbose: args.Verbose}
		opts = append(opts, agent.WithEventHandler(progress.handle))
	}

	a, err := agent.New(cfg, opts...)
	if err != nil {
		return nil, NewCommandError("agent", "init", "cannot build agent", err)
	}
	return a, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// RUN COMMAND
// =============================================================================

// HandleRun handles "run" (and "ask"): solve one requirement.
func HandleRun(args Args) error {
	logger := slog.Default()

	cfg, err := loadConfig(args, logger)
	if err != nil {
		return err
	}
	a, err := newAgent(cfg, args, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	result, err := a.Run(ctx, args.Query)
	if err != nil {
		return NewCommandError("run", "solve", "agent run failed", err)
	}

	if args.Verbose {
		printStats(stderr, a.Executor().Stats())
	}
	if args.JSON {
		return NewJSONResponse("run", result).Print()
	}
	displaySolution(result.Solution)
	return nil
}
