// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/minicode/internal/logging"
)

// =============================================================================
// FETCH WEBSITE HTML TESTS
// =============================================================================

func TestFetchWebsiteHTML(t *testing.T) {
	renderer := &fakeRenderer{html: "<html><body>hi</body></html>"}
	tb := NewToolbox(WithRenderer(renderer), WithLogger(logging.Discard()), WithHeadless(false))

	html, err := tb.FetchWebsiteHTML(context.Background(), "https://example.com/page", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>hi</body></html>", html)
	assert.Equal(t, "https://example.com/page", renderer.url)
	assert.Equal(t, 2*time.Second, renderer.opts.Wait)
	assert.False(t, renderer.opts.Headless)
	assert.Greater(t, renderer.opts.Timeout, renderer.opts.Wait)
}

func TestFetchWebsiteHTML_InvalidURL(t *testing.T) {
	renderer := &fakeRenderer{}
	tb := NewToolbox(WithRenderer(renderer), WithLogger(logging.Discard()))

	for _, u := range []string{"", "example.com", "ftp://example.com/file", "https://"} {
		_, err := tb.FetchWebsiteHTML(context.Background(), u, DefaultFetchWait)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
	assert.Zero(t, renderer.calls)
}

func TestFetchWebsiteHTML_RendererError(t *testing.T) {
	boom := errors.New("chrome not found")
	tb := NewToolbox(WithRenderer(&fakeRenderer{err: boom}), WithLogger(logging.Discard()))

	_, err := tb.FetchWebsiteHTML(context.Background(), "https://example.com", 0)
	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// SEARCH ENGINE TESTS
// =============================================================================

func TestParseBingResults(t *testing.T) {
	html, err := os.ReadFile("testdata/bing_results.html")
	require.NoError(t, err)

	results, err := ParseBingResults(string(html))
	require.NoError(t, err)

	assert.Equal(t, []SearchResult{
		{
			Title:       "Effective Go - Concurrency",
			URL:         "https://go.dev/doc/effective_go#concurrency",
			Description: "Share memory by communicating; goroutines and channels.",
		},
		{
			Title: "Go Concurrency Patterns: Pipelines",
			URL:   "https://go.dev/blog/pipelines",
		},
		{
			Title:       "Go by Example: Goroutines",
			URL:         "https://gobyexample.com/goroutines",
			Description: "A goroutine is a lightweight thread of execution.",
		},
	}, results)
}

func TestParseBingResults_NoResults(t *testing.T) {
	results, err := ParseBingResults("<html><body><p>No results</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUseSearchEngine_Bing(t *testing.T) {
	html, err := os.ReadFile("testdata/bing_results.html")
	require.NoError(t, err)
	renderer := &fakeRenderer{html: string(html)}
	tb := NewToolbox(WithRenderer(renderer), WithLogger(logging.Discard()))

	results, err := tb.UseSearchEngine(context.Background(), "golang concurrency & channels", "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	assert.Equal(t, "https://cn.bing.com/search?q=golang+concurrency+%26+channels", renderer.url)
	assert.Equal(t, 1500*time.Millisecond, renderer.opts.Wait)
	assert.Equal(t, 30*time.Second, renderer.opts.Timeout)
	assert.True(t, renderer.opts.Headless)
}

func TestUseSearchEngine_UnsupportedEngine(t *testing.T) {
	renderer := &fakeRenderer{}
	tb := NewToolbox(WithRenderer(renderer), WithLogger(logging.Discard()))

	for _, engine := range []string{"google", "duckduckgo", "baidu", "Bing", "BING"} {
		results, err := tb.UseSearchEngine(context.Background(), "anything", engine)
		assert.ErrorIs(t, err, ErrUnsupportedEngine, engine)
		assert.Nil(t, results)
	}
	assert.Zero(t, renderer.calls)
}

// =============================================================================
// TELL HUMAN TESTS
// =============================================================================

func TestTellHuman(t *testing.T) {
	var buf bytes.Buffer
	tb := NewToolbox(WithNotifier(WriterNotifier(&buf)), WithRenderer(&fakeRenderer{}), WithLogger(logging.Discard()))

	ack, err := tb.TellHuman("build is green")
	require.NoError(t, err)
	assert.Equal(t, Delivered, ack)
	assert.Contains(t, buf.String(), "build is green")

	_, err = tb.TellHuman("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestTellHuman_NotifierError(t *testing.T) {
	tb := NewToolbox(
		WithNotifier(func(string) error { return errors.New("closed pipe") }),
		WithRenderer(&fakeRenderer{}),
		WithLogger(logging.Discard()),
	)

	_, err := tb.TellHuman("hello")
	assert.ErrorContains(t, err, "closed pipe")
}
