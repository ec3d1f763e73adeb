// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	// DefaultFetchWait is how long fetch_website_html lets scripts settle
	// after the network goes idle.
	DefaultFetchWait = 3 * time.Second

	// DefaultFetchTimeout bounds one fetch_website_html navigation.
	DefaultFetchTimeout = 60 * time.Second
)

// =============================================================================
// RENDERER
// =============================================================================

// RenderOptions controls one page render.
type RenderOptions struct {
	// Wait is the settle delay after the network goes idle
	Wait time.Duration

	// Timeout bounds navigation, idle wait and capture
	Timeout time.Duration

	// Headless hides the browser window
	Headless bool
}

// Renderer loads a URL in a browser and returns the rendered document.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
}

// ChromeRenderer renders pages with a local Chrome through the DevTools
// protocol. Every call starts and tears down its own browser.
type ChromeRenderer struct {
	// ExecPath overrides Chrome discovery
	ExecPath string

	Logger *slog.Logger
}

// Render navigates to target, waits for network idle plus opts.Wait, and
// returns document.documentElement.outerHTML.
func (r *ChromeRenderer) Render(ctx context.Context, target string, opts RenderOptions) (string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", opts.Headless))
	if r.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Start the browser before the navigation deadline begins.
	if err := chromedp.Run(browserCtx); err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	// Only an idle event that follows our navigation counts.
	var navigating atomic.Bool
	idle := make(chan struct{})
	var once sync.Once
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			navigating.Store(true)
		case "networkIdle":
			if navigating.Load() {
				once.Do(func() { close(idle) })
			}
		}
	})

	var html string
	err := chromedp.Run(runCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.Sleep(opts.Wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", target, err)
	}

	if r.Logger != nil {
		r.Logger.Debug("page rendered", "url", target, "bytes", len(html))
	}
	return html, nil
}

// =============================================================================
// FETCH WEBSITE HTML
// =============================================================================

// FetchWebsiteHTML returns the rendered HTML of url after the page has gone
// network idle and then settled for wait.
func (tb *Toolbox) FetchWebsiteHTML(ctx context.Context, rawURL string, wait time.Duration) (string, error) {
	if err := validateWebURL(rawURL); err != nil {
		return "", tb.failWeb("fetch_website_html", rawURL, err)
	}
	if wait < 0 {
		wait = 0
	}

	html, err := tb.renderer.Render(ctx, rawURL, RenderOptions{
		Wait:     wait,
		Timeout:  DefaultFetchTimeout + wait,
		Headless: tb.headless,
	})
	if err != nil {
		return "", tb.failWeb("fetch_website_html", rawURL, err)
	}

	tb.logger.Info("page fetched", "url", rawURL, "bytes", len(html))
	return html, nil
}

// validateWebURL accepts absolute http and https URLs.
func validateWebURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return nil
}

func (tb *Toolbox) failWeb(tool, target string, err error) error {
	tb.logger.Warn("tool failed", "tool", tool, "url", target, "error", err)
	return err
}
