// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"os"
	"sort"
	"strings"
)

// Provider is an OpenAI-compatible chat-completions endpoint.
type Provider struct {
	// Name is the model-name prefix selecting this provider
	Name string

	// BaseURL is the API root, without the /chat/completions suffix
	BaseURL string

	// KeyEnv is the conventional environment variable holding the key
	KeyEnv string

	// KeyRequired is false for local servers
	KeyRequired bool
}

// DefaultProvider is used when the model name carries no known prefix.
const DefaultProvider = "openai"

var providers = map[string]Provider{
	"openai":     {Name: "openai", BaseURL: "https://api.openai.com/v1", KeyEnv: "OPENAI_API_KEY", KeyRequired: true},
	"deepseek":   {Name: "deepseek", BaseURL: "https://api.deepseek.com/v1", KeyEnv: "DEEPSEEK_API_KEY", KeyRequired: true},
	"openrouter": {Name: "openrouter", BaseURL: "https://openrouter.ai/api/v1", KeyEnv: "OPENROUTER_API_KEY", KeyRequired: true},
	"ollama":     {Name: "ollama", BaseURL: "http://localhost:11434/v1"},
}

// Providers returns the known provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveModel splits "<provider>/<model>" into the provider and the model
// name sent on the wire. Names without a known prefix go to the default
// provider unchanged.
func ResolveModel(model string) (Provider, string) {
	model = strings.TrimSpace(model)
	if prefix, rest, ok := strings.Cut(model, "/"); ok && rest != "" {
		if p, known := providers[strings.ToLower(prefix)]; known {
			return p, rest
		}
	}
	return providers[DefaultProvider], model
}

// ResolveAPIKey returns key, or the provider's conventional environment
// variable when key is empty.
func (p Provider) ResolveAPIKey(key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	if p.KeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(p.KeyEnv))
}
