// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/minicode/internal/logging"
)

func newTestLoader(fs afero.Fs) *Loader {
	return &Loader{
		Fs:      fs,
		Logger:  logging.Discard(),
		HomeDir: func() (string, error) { return "/home/dev", nil },
		Getwd:   func() (string, error) { return "/work/project", nil },
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

const validYAML = `
dspy:
  model: openai/gpt-4o-mini
  api_key: sk-test
  api_base: https://example.com/v1
  allow_tool_async_sync_conversion: false
agent:
  max_iters: 12
`

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai/deepseek-chat", cfg.LM.Model)
	assert.Equal(t, "", cfg.LM.APIKey)
	assert.Empty(t, cfg.LM.APIBase)
	assert.True(t, cfg.LM.AllowToolAsyncSyncConversion)
	assert.Equal(t, 200, cfg.Agent.MaxIters)
	assert.True(t, cfg.Agent.Headless)
	assert.Equal(t, DefaultToolTimeout, cfg.ToolTimeoutDuration())
	assert.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Source())
}

func TestLoader_SearchPaths(t *testing.T) {
	l := newTestLoader(afero.NewMemMapFs())

	assert.Equal(t, []string{
		"/explicit/.mini-code-agent/config.yaml",
		"/home/dev/.mini-code-agent/config.yaml",
	}, l.SearchPaths("/explicit"))

	assert.Equal(t, []string{
		"/work/project/.mini-code-agent/config.yaml",
		"/home/dev/.mini-code-agent/config.yaml",
	}, l.SearchPaths(""))

	// Project dir equal to home is listed once
	assert.Equal(t, []string{"/home/dev/.mini-code-agent/config.yaml"}, l.SearchPaths("/home/dev"))
}

func TestLoader_ProjectWinsOverHome(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/work/project/.mini-code-agent/config.yaml", validYAML)
	writeFile(t, fs, "/home/dev/.mini-code-agent/config.yaml", "dspy:\n  model: home/model\n  api_key: home\n")

	cfg := newTestLoader(fs).Load("")
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LM.Model)
	assert.Equal(t, "sk-test", cfg.LM.APIKey)
	assert.Equal(t, "https://example.com/v1", cfg.LM.APIBase)
	assert.False(t, cfg.LM.AllowToolAsyncSyncConversion)
	assert.Equal(t, 12, cfg.Agent.MaxIters)
	assert.Equal(t, "/work/project/.mini-code-agent/config.yaml", cfg.Source())
}

func TestLoader_FallsThroughOnParseFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/work/project/.mini-code-agent/config.yaml", "dspy: [not: a: map")
	writeFile(t, fs, "/home/dev/.mini-code-agent/config.yaml", "dspy:\n  model: home/model\n  api_key: home\n")

	cfg := newTestLoader(fs).Load("")
	assert.Equal(t, "home/model", cfg.LM.Model)
	assert.Equal(t, DefaultMaxIters, cfg.Agent.MaxIters, "agent section is optional")
	assert.True(t, cfg.LM.AllowToolAsyncSyncConversion)
	assert.Equal(t, "/home/dev/.mini-code-agent/config.yaml", cfg.Source())
}

func TestLoader_FallsThroughOnMissingRequiredFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/work/project/.mini-code-agent/config.yaml", "agent:\n  max_iters: 5\n")

	cfg := newTestLoader(fs).Load("")
	assert.Equal(t, Default().LM, cfg.LM)
	assert.Empty(t, cfg.Source())
}

func TestLoader_FallsThroughOnInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/work/project/.mini-code-agent/config.yaml",
		"dspy:\n  model: a/b\n  api_key: k\nagent:\n  max_iters: 0\n")

	cfg := newTestLoader(fs).Load("")
	assert.Empty(t, cfg.Source())
	assert.Equal(t, DefaultMaxIters, cfg.Agent.MaxIters)
}

func TestLoader_DefaultsWhenNothingFound(t *testing.T) {
	cfg := newTestLoader(afero.NewMemMapFs()).Load("/nowhere")
	assert.Equal(t, Default(), cfg)
}

func TestParse_RequiredFields(t *testing.T) {
	_, err := Parse([]byte(""))
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "dspy", verrs[0].Field)

	_, err = Parse([]byte("dspy:\n  model: x/y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dspy.api_key")

	cfg, err := Parse([]byte("dspy:\n  model: x/y\n  api_key: ''\n"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.LM.APIKey)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.LM.APIKey = "sk-abc"
	cfg.Agent.MaxIters = 42

	path, err := cfg.SaveTo(fs, "/work/project")
	require.NoError(t, err)
	assert.Equal(t, "/work/project/.mini-code-agent/config.yaml", path)

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	loaded, err := newTestLoader(fs).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", loaded.LM.APIKey)
	assert.Equal(t, 42, loaded.Agent.MaxIters)
	assert.Equal(t, cfg.LM.Model, loaded.LM.Model)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"empty model", func(c *Config) { c.LM.Model = " " }, "dspy.model"},
		{"bad api base", func(c *Config) { c.LM.APIBase = "ftp://x" }, "dspy.api_base"},
		{"good api base", func(c *Config) { c.LM.APIBase = "http://localhost:11434/v1" }, ""},
		{"zero iters", func(c *Config) { c.Agent.MaxIters = 0 }, "agent.max_iters"},
		{"bad timeout", func(c *Config) { c.Agent.ToolTimeout = "soon" }, "agent.tool_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("MINICODE_MODEL", "deepseek/deepseek-chat")
	t.Setenv("MINICODE_API_KEY", "env-key")
	t.Setenv("MINICODE_API_BASE", "https://api.example.org/v1")
	t.Setenv("MINICODE_MAX_ITERS", "7")
	t.Setenv("MINICODE_HEADLESS", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "deepseek/deepseek-chat", cfg.LM.Model)
	assert.Equal(t, "env-key", cfg.LM.APIKey)
	assert.Equal(t, "https://api.example.org/v1", cfg.LM.APIBase)
	assert.Equal(t, 7, cfg.Agent.MaxIters)
	assert.False(t, cfg.Agent.Headless)
}

func TestConfig_ApplyEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("MINICODE_MAX_ITERS", "many")
	t.Setenv("MINICODE_HEADLESS", "maybe")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, DefaultMaxIters, cfg.Agent.MaxIters)
	assert.True(t, cfg.Agent.Headless)
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("dspy.model")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, v)

	require.NoError(t, cfg.Set("agent.max_iters", "15"))
	assert.Equal(t, 15, cfg.Agent.MaxIters)

	require.NoError(t, cfg.Set("dspy.allow_tool_async_sync_conversion", "false"))
	assert.False(t, cfg.LM.AllowToolAsyncSyncConversion)

	require.NoError(t, cfg.Set("agent.max_iters", 3))
	assert.Equal(t, 3, cfg.Agent.MaxIters)

	_, err = cfg.Get("dspy.nope")
	assert.ErrorContains(t, err, "unknown field")

	_, err = cfg.Get("dspy")
	assert.ErrorContains(t, err, "section")

	assert.Error(t, cfg.Set("agent.max_iters", "lots"))
}

func TestAllKeys(t *testing.T) {
	assert.Equal(t, []string{
		"dspy.model",
		"dspy.api_key",
		"dspy.api_base",
		"dspy.allow_tool_async_sync_conversion",
		"agent.max_iters",
		"agent.headless",
		"agent.tool_timeout",
	}, AllKeys())
}

func TestToolTimeoutDuration(t *testing.T) {
	cfg := Default()
	cfg.Agent.ToolTimeout = "45s"
	assert.Equal(t, 45*time.Second, cfg.ToolTimeoutDuration())

	cfg.Agent.ToolTimeout = "bogus"
	assert.Equal(t, DefaultToolTimeout, cfg.ToolTimeoutDuration())
}

func TestConfig_MaskedAPIKey(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "[not set]", cfg.MaskedAPIKey())
	cfg.LM.APIKey = "sk-123456"
	assert.Equal(t, "[REDACTED, length=9]", cfg.MaskedAPIKey())
	assert.NotContains(t, cfg.MaskedAPIKey(), "123456")
}
