// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/minicode/internal/config"
	"github.com/jeranaias/minicode/internal/logging"
)

const okBody = `{
	"id": "chatcmpl-1",
	"model": "test-model",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "read_file", "arguments": "{\"path\":\"main.go\"}"}
			}]
		},
		"finish_reason": "tool_calls"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newTestClient(url string) *Client {
	return NewClient("openai/test-model", "sk-test").
		WithBaseURL(url).
		WithRateLimit(nil).
		WithLogger(logging.Discard())
}

// =============================================================================
// PROVIDER TESTS
// =============================================================================

func TestResolveModel(t *testing.T) {
	tests := []struct {
		model        string
		wantProvider string
		wantModel    string
	}{
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"openai/deepseek-chat", "openai", "deepseek-chat"},
		{"deepseek/deepseek-chat", "deepseek", "deepseek-chat"},
		{"openrouter/anthropic/claude-3.5-sonnet", "openrouter", "anthropic/claude-3.5-sonnet"},
		{"ollama/qwen2.5-coder", "ollama", "qwen2.5-coder"},
		{"gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"meta-llama/llama-3-8b", "openai", "meta-llama/llama-3-8b"},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			p, m := ResolveModel(tc.model)
			assert.Equal(t, tc.wantProvider, p.Name)
			assert.Equal(t, tc.wantModel, m)
		})
	}
}

func TestProvider_ResolveAPIKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "from-env")
	p, _ := ResolveModel("deepseek/deepseek-chat")

	assert.Equal(t, "explicit", p.ResolveAPIKey("explicit"))
	assert.Equal(t, "from-env", p.ResolveAPIKey(""))

	ollama, _ := ResolveModel("ollama/llama3")
	assert.Equal(t, "", ollama.ResolveAPIKey(""))
}

func TestFromConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := FromConfig(config.LMConfig{Model: "openai/gpt-4o"}, logging.Discard())
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := FromConfig(config.LMConfig{Model: "openai/gpt-4o", APIKey: "k", APIBase: "https://proxy.example/v1/"}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example/v1", c.BaseURL())
	assert.Equal(t, "gpt-4o", c.Model())

	local, err := FromConfig(config.LMConfig{Model: "ollama/llama3"}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", local.BaseURL())
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_RequestAndToolCalls(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	params := &jsonschema.Schema{Type: "object"}
	resp, err := newTestClient(server.URL).Chat(context.Background(), ChatRequest{
		Messages: []Message{NewSystemMessage("sys"), NewUserMessage("hi")},
		Tools:    []ToolSpec{NewToolSpec("read_file", "Read a file", params)},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "read_file", got.Tools[0].Function.Name)

	msg, ok := resp.Message()
	require.True(t, ok)
	assert.Empty(t, msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	args, err := msg.ToolCalls[0].Function.DecodeArguments()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"path": "main.go"}, args)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChat_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, ErrAuthFailed},
		{"not found", http.StatusNotFound, `{"error":{"message":"no such model"}}`, ErrModelNotFound},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad tools","code":"invalid_value"}}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			} else {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tc.status, apiErr.Status)
				assert.Equal(t, "invalid_value", apiErr.Code)
				assert.Equal(t, "bad tools", apiErr.Message)
			}
			assert.Equal(t, int32(1), calls.Load(), "non-retryable errors are not retried")
		})
	}
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChat_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).WithMaxRetries(2).Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(2), calls.Load())
}

func TestChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChat_NotConfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := NewClient("openai/gpt-4o", "")

	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChat_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(server.URL).Chat(ctx, ChatRequest{Messages: []Message{NewUserMessage("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient("openai/x", "k")
	assert.Equal(t, retryBaseDelay, c.calculateBackoff(1))
	assert.Equal(t, 2*retryBaseDelay, c.calculateBackoff(2))
	assert.Equal(t, retryMaxDelay, c.calculateBackoff(10))
}

func TestDecodeArguments(t *testing.T) {
	args, err := FunctionCall{Name: "f"}.DecodeArguments()
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = FunctionCall{Name: "f", Arguments: "{not json"}.DecodeArguments()
	assert.Error(t, err)
}
