// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/minicode/internal/logging"
	"github.com/jeranaias/minicode/internal/util"
)

const (
	// DirName is the dot-directory holding the config file.
	DirName = ".mini-code-agent"

	// FileName is the config file name inside DirName.
	FileName = "config.yaml"

	// DefaultModel is used when no config file is found.
	DefaultModel = "openai/deepseek-chat"

	// DefaultMaxIters bounds the reasoning loop.
	DefaultMaxIters = 200

	// DefaultToolTimeout bounds a single tool call.
	DefaultToolTimeout = 2 * time.Minute
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete minicode configuration.
type Config struct {
	// LM holds the language-model connection settings.
	LM LMConfig `yaml:"dspy" json:"dspy"`

	// Agent holds the reasoning-loop settings.
	Agent AgentConfig `yaml:"agent" json:"agent"`

	// source is the file this config was read from ("" for defaults).
	source string
}

// LMConfig describes how to reach the language model.
type LMConfig struct {
	// Model is "<provider>/<model>", e.g. "openai/deepseek-chat".
	Model string `yaml:"model" json:"model"`

	// APIKey is the provider credential. Empty means "look in the environment".
	APIKey string `yaml:"api_key" json:"api_key"`

	// APIBase overrides the provider's endpoint.
	APIBase string `yaml:"api_base,omitempty" json:"api_base,omitempty"`

	// AllowToolAsyncSyncConversion keeps the browser-backed tools available.
	AllowToolAsyncSyncConversion bool `yaml:"allow_tool_async_sync_conversion" json:"allow_tool_async_sync_conversion"`
}

// AgentConfig controls the reasoning loop.
type AgentConfig struct {
	// MaxIters is the maximum number of reasoning iterations.
	MaxIters int `yaml:"max_iters" json:"max_iters"`

	// Headless hides the browser window used by the web tools.
	Headless bool `yaml:"headless" json:"headless"`

	// ToolTimeout bounds one tool call, as a Go duration string.
	ToolTimeout string `yaml:"tool_timeout,omitempty" json:"tool_timeout,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LM: LMConfig{
			Model:                        DefaultModel,
			APIKey:                       "",
			AllowToolAsyncSyncConversion: true,
		},
		Agent: AgentConfig{
			MaxIters:    DefaultMaxIters,
			Headless:    true,
			ToolTimeout: DefaultToolTimeout.String(),
		},
	}
}

// Source returns the path the config was loaded from, or "" for defaults.
func (c *Config) Source() string {
	return c.source
}

// ToolTimeoutDuration parses Agent.ToolTimeout, falling back to the default.
func (c *Config) ToolTimeoutDuration() time.Duration {
	if c.Agent.ToolTimeout == "" {
		return DefaultToolTimeout
	}
	d, err := time.ParseDuration(c.Agent.ToolTimeout)
	if err != nil || d <= 0 {
		return DefaultToolTimeout
	}
	return d
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// =============================================================================
// FILE FORMAT
// =============================================================================

// fileConfig mirrors Config with pointers so missing keys can be told apart
// from zero values.
type fileConfig struct {
	LM *struct {
		Model                        *string `yaml:"model"`
		APIKey                       *string `yaml:"api_key"`
		APIBase                      *string `yaml:"api_base"`
		AllowToolAsyncSyncConversion *bool   `yaml:"allow_tool_async_sync_conversion"`
	} `yaml:"dspy"`
	Agent *struct {
		MaxIters    *int    `yaml:"max_iters"`
		Headless    *bool   `yaml:"headless"`
		ToolTimeout *string `yaml:"tool_timeout"`
	} `yaml:"agent"`
}

// Parse decodes YAML into a Config on top of the defaults.
// The dspy section with model and api_key is required; everything else
// falls back to defaults.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	var errs ValidateErrors
	if raw.LM == nil {
		errs = append(errs, ValidationError{Field: "dspy", Message: "section is required"})
	} else {
		if raw.LM.Model == nil {
			errs = append(errs, ValidationError{Field: "dspy.model", Message: "field is required"})
		}
		if raw.LM.APIKey == nil {
			errs = append(errs, ValidationError{Field: "dspy.api_key", Message: "field is required"})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	cfg := Default()
	cfg.LM.Model = *raw.LM.Model
	cfg.LM.APIKey = *raw.LM.APIKey
	if raw.LM.APIBase != nil {
		cfg.LM.APIBase = *raw.LM.APIBase
	}
	if raw.LM.AllowToolAsyncSyncConversion != nil {
		cfg.LM.AllowToolAsyncSyncConversion = *raw.LM.AllowToolAsyncSyncConversion
	}
	if raw.Agent != nil {
		if raw.Agent.MaxIters != nil {
			cfg.Agent.MaxIters = *raw.Agent.MaxIters
		}
		if raw.Agent.Headless != nil {
			cfg.Agent.Headless = *raw.Agent.Headless
		}
		if raw.Agent.ToolTimeout != nil {
			cfg.Agent.ToolTimeout = *raw.Agent.ToolTimeout
		}
	}
	return cfg, nil
}

// Marshal encodes the config as YAML with a short header.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# minicode configuration file\n")
	buf.WriteString("# dspy: language-model connection, agent: reasoning loop\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Loader resolves and reads config files.
type Loader struct {
	// Fs is the filesystem to read from.
	Fs afero.Fs

	// Logger receives one line per outcome.
	Logger *slog.Logger

	// HomeDir returns the user's home directory.
	HomeDir func() (string, error)

	// Getwd returns the current working directory.
	Getwd func() (string, error)
}

// NewLoader returns a Loader over the real filesystem.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		Fs:      afero.NewOsFs(),
		Logger:  logging.OrDefault(logger),
		HomeDir: os.UserHomeDir,
		Getwd:   os.Getwd,
	}
}

// PathIn returns <dir>/.mini-code-agent/config.yaml.
func PathIn(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// SearchPaths returns the candidate files in priority order: the project
// directory (or cwd when empty), then the home directory.
func (l *Loader) SearchPaths(projectDir string) []string {
	var paths []string

	if projectDir != "" {
		paths = append(paths, PathIn(projectDir))
	} else if cwd, err := l.Getwd(); err == nil {
		paths = append(paths, PathIn(cwd))
	}

	if home, err := l.HomeDir(); err == nil {
		homePath := PathIn(home)
		if len(paths) == 0 || paths[0] != homePath {
			paths = append(paths, homePath)
		}
	}

	return paths
}

// Load returns the first existing, parseable and valid config on the search
// path, or the defaults. It never fails; every outcome is logged.
func (l *Loader) Load(projectDir string) *Config {
	logger := logging.OrDefault(l.Logger)

	for _, path := range l.SearchPaths(projectDir) {
		if _, err := l.Fs.Stat(path); err != nil {
			continue
		}
		cfg, err := l.LoadFile(path)
		if err != nil {
			logger.Warn("failed to load config, trying next location", "path", path, "err", err)
			continue
		}
		logger.Debug("loaded config", "path", path)
		return cfg
	}

	logger.Warn("no config file found, using default configuration")
	return Default()
}

// LoadFile reads, parses and validates a single config file.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.source = path
	return cfg, nil
}

// Load reads the config for projectDir from the real filesystem and applies
// environment overrides.
func Load(projectDir string) *Config {
	cfg := NewLoader(nil).Load(projectDir)
	cfg.ApplyEnvOverrides()
	return cfg
}

// LoadDotEnv loads <dir>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config to <dir>/.mini-code-agent/config.yaml, defaulting to
// the home directory, and returns the written path.
// SECURITY: the file holds a credential, so it is written 0600.
func (c *Config) Save(dir string) (string, error) {
	return c.SaveTo(afero.NewOsFs(), dir)
}

// SaveTo is Save over an explicit filesystem.
func (c *Config) SaveTo(fs afero.Fs, dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = home
	}

	data, err := c.Marshal()
	if err != nil {
		return "", err
	}

	path := PathIn(dir)
	if err := util.AtomicWriteFileWithDir(fs, path, data, 0600, 0700); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.LM.Model) == "" {
		errs = append(errs, ValidationError{Field: "dspy.model", Message: "must not be empty"})
	}

	if c.LM.APIBase != "" {
		u, err := url.Parse(c.LM.APIBase)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "dspy.api_base",
				Message: fmt.Sprintf("invalid URL '%s', expected http(s)://host[/path]", c.LM.APIBase),
			})
		}
	}

	if c.Agent.MaxIters < 1 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_iters",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Agent.MaxIters),
		})
	}

	if c.Agent.ToolTimeout != "" {
		if d, err := time.ParseDuration(c.Agent.ToolTimeout); err != nil || d <= 0 {
			errs = append(errs, ValidationError{
				Field:   "agent.tool_timeout",
				Message: fmt.Sprintf("invalid duration '%s'", c.Agent.ToolTimeout),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies MINICODE_* variables:
//   - MINICODE_MODEL: overrides dspy.model
//   - MINICODE_API_KEY: overrides dspy.api_key
//   - MINICODE_API_BASE: overrides dspy.api_base
//   - MINICODE_MAX_ITERS: overrides agent.max_iters
//   - MINICODE_HEADLESS: overrides agent.headless
//
// Unparseable numeric or boolean values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("MINICODE_MODEL"); model != "" {
		c.LM.Model = model
	}
	if key := os.Getenv("MINICODE_API_KEY"); key != "" {
		c.LM.APIKey = key
	}
	if base := os.Getenv("MINICODE_API_BASE"); base != "" {
		c.LM.APIBase = base
	}
	if iters := os.Getenv("MINICODE_MAX_ITERS"); iters != "" {
		if n, err := strconv.Atoi(iters); err == nil && n > 0 {
			c.Agent.MaxIters = n
		}
	}
	if headless := os.Getenv("MINICODE_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			c.Agent.Headless = b
		}
	}
}

// MaskedAPIKey describes the key without revealing it.
func (c *Config) MaskedAPIKey() string {
	if c.LM.APIKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d]", len(c.LM.APIKey))
}
