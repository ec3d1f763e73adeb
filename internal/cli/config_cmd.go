// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/jeranaias/minicode/internal/config"
)

// apiKeyKey is masked wherever a value is printed.
const apiKeyKey = "dspy.api_key"

// ConfigPathData is the JSON form of "config path".
type ConfigPathData struct {
	Source      string   `json:"source"`
	SearchPaths []string `json:"search_paths"`
}

// HandleConfig handles "config show|path|init|get|set".
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "path":
		return handleConfigPath(args)
	case "init":
		return handleConfigInit(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	default:
		return NewValidationErrorWithExample("config action", args.Subcommand,
			"unknown action", "minicode config show|path|init|get|set")
	}
}

// configValue returns key's value for display, masking the credential.
func configValue(cfg *config.Config, key string) (interface{}, error) {
	if key == apiKeyKey {
		return cfg.MaskedAPIKey(), nil
	}
	return cfg.Get(key)
}

func handleConfigShow(args Args) error {
	cfg, err := loadConfig(args, slog.Default())
	if err != nil {
		return err
	}

	keys := config.AllKeys()
	values := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		v, err := configValue(cfg, key)
		if err != nil {
			return NewCommandError("config", "show", "cannot read "+key, err)
		}
		values[key] = v
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{
			"source": cfg.Source(),
			"values": values,
		}).Print()
	}

	source := cfg.Source()
	if source == "" {
		source = "(built-in defaults)"
	}
	width := lo.Max(lo.Map(keys, func(k string, _ int) int { return len(k) }))

	fmt.Fprintln(stdout, TitleStyle.Render("Configuration"))
	fmt.Fprintf(stdout, "%s %s\n", RenderLabel("source", width), ValueStyle.Render(source))
	fmt.Fprintln(stdout, RenderSeparator(width+30))
	for _, key := range keys {
		fmt.Fprintf(stdout, "%s %s\n", RenderLabel(key, width), ValueStyle.Render(fmt.Sprint(values[key])))
	}
	return nil
}

func handleConfigPath(args Args) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	loader := config.NewLoader(slog.Default())
	cfg := loader.Load(dir)
	data := ConfigPathData{Source: cfg.Source(), SearchPaths: loader.SearchPaths(dir)}

	if args.JSON {
		return NewJSONResponse("config", data).Print()
	}
	if data.Source != "" {
		fmt.Fprintln(stdout, data.Source)
	} else {
		fmt.Fprintln(stdout, DimStyle.Render("no config file found; searched:"))
		for _, p := range data.SearchPaths {
			fmt.Fprintf(stdout, "  %s\n", p)
		}
	}
	return nil
}

func handleConfigInit(args Args) error {
	dir, err := saveDir(args)
	if err != nil {
		return err
	}
	path := config.PathIn(dir)
	if _, err := os.Stat(path); err == nil && !args.Force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}

	written, err := config.Default().Save(dir)
	if err != nil {
		return NewCommandError("config", "init", "cannot write config", err)
	}
	return reportSaved(args, written)
}

func handleConfigGet(args Args) error {
	cfg, err := loadConfig(args, slog.Default())
	if err != nil {
		return err
	}
	v, err := configValue(cfg, args.ConfigKey)
	if err != nil {
		return NewValidationErrorWithExample("key", args.ConfigKey, err.Error(), "dspy.model")
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{args.ConfigKey: v}).Print()
	}
	fmt.Fprintln(stdout, v)
	return nil
}

// handleConfigSet edits the file the config was loaded from, or creates one
// in the project (or home) directory. Environment overrides are not
// persisted.
func handleConfigSet(args Args) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	cfg := config.NewLoader(slog.Default()).Load(dir)

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationErrorWithExample("key", args.ConfigKey, err.Error(), "minicode config set agent.max_iters 50")
	}
	if err := cfg.Validate(); err != nil {
		return NewCommandError("config", "set", "value rejected", err)
	}

	target := dir
	if source := cfg.Source(); source != "" {
		// <dir>/.mini-code-agent/config.yaml
		target = filepath.Dir(filepath.Dir(source))
	}
	written, err := cfg.Save(target)
	if err != nil {
		return NewCommandError("config", "set", "cannot write config", err)
	}
	return reportSaved(args, written)
}

// saveDir is the directory config init writes under: --dir, else home.
func saveDir(args Args) (string, error) {
	dir, err := projectDir(args)
	if err != nil || dir != "" {
		return dir, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", NewCommandError("config", "init", "cannot resolve home directory", err)
	}
	return home, nil
}

func reportSaved(args Args, path string) error {
	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Print()
	}
	fmt.Fprintf(stdout, "%s %s\n", SuccessStyle.Render("saved"), path)
	return nil
}
