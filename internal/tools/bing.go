// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultSearchEngine is the only engine use_search_engine supports.
	DefaultSearchEngine = "bing"

	bingSearchURL = "https://cn.bing.com/search?q="
	bingTimeout   = 30 * time.Second
	bingSettle    = 1500 * time.Millisecond
)

// SearchResult is one organic web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// UseSearchEngine searches the web for question and returns the organic
// results in page order. Only "bing" is supported; an empty engine means
// bing.
func (tb *Toolbox) UseSearchEngine(ctx context.Context, question, engine string) ([]SearchResult, error) {
	if engine == "" {
		engine = DefaultSearchEngine
	}
	if engine != DefaultSearchEngine {
		return nil, tb.failWeb("use_search_engine", engine, fmt.Errorf("%w: %q (only %q is available)", ErrUnsupportedEngine, engine, DefaultSearchEngine))
	}

	target := bingSearchURL + url.QueryEscape(question)
	html, err := tb.renderer.Render(ctx, target, RenderOptions{
		Wait:     bingSettle,
		Timeout:  bingTimeout,
		Headless: tb.headless,
	})
	if err != nil {
		return nil, tb.failWeb("use_search_engine", target, err)
	}

	results, err := ParseBingResults(html)
	if err != nil {
		return nil, tb.failWeb("use_search_engine", target, err)
	}

	tb.logger.Info("web search complete", "engine", engine, "question", question, "results", len(results))
	return results, nil
}

// ParseBingResults extracts the organic results of a Bing result page.
// Items without a title or a link are dropped.
func ParseBingResults(html string) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	results := make([]SearchResult, 0)
	doc.Find("li.b_algo").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("h2 a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return
		}
		results = append(results, SearchResult{
			Title:       title,
			URL:         href,
			Description: strings.TrimSpace(item.Find("p").First().Text()),
		})
	})

	return results, nil
}
