// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the minicode YAML configuration.
//
// # Key Types
//
//   - Config: the complete configuration
//   - LMConfig: language-model connection (the "dspy" section)
//   - AgentConfig: reasoning-loop settings (the "agent" section)
//   - Loader: search-path resolution over an afero.Fs
//
// # File Locations
//
// The first existing, parseable and valid file wins:
//   - <project dir or cwd>/.mini-code-agent/config.yaml
//   - <home>/.mini-code-agent/config.yaml
//   - Built-in defaults
//
// Environment variables (MINICODE_*) are applied on top, after an optional
// .env file in the project directory has been loaded.
//
// # Usage
//
//	cfg := config.Load(projectDir)
//	fmt.Println(cfg.LM.Model, cfg.Agent.MaxIters)
//
//	path, err := cfg.Save("")  // writes ~/.mini-code-agent/config.yaml
package config
