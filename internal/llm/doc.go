// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm provides the chat-completions client the agent reasons with.
//
// One OpenAI-compatible wire format covers every supported provider. The
// provider is chosen by the prefix of the configured model name
// ("openai/gpt-4o", "deepseek/deepseek-chat", "openrouter/anthropic/claude-3.5-sonnet",
// "ollama/qwen2.5-coder"); an api_base setting overrides the endpoint.
//
// # Key Types
//
//   - Client: request building, retries with exponential backoff, rate limiting
//   - Message, ToolCall, ToolSpec: the chat-completions wire types
//   - APIError: an error body returned by the provider
//
// # Usage
//
//	client, err := llm.FromConfig(cfg.LM, logger)
//	resp, err := client.Chat(ctx, llm.ChatRequest{Messages: msgs, Tools: specs})
package llm
