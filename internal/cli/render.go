// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/minicode/internal/agent"
	"github.com/jeranaias/minicode/internal/tools"
	"github.com/jeranaias/minicode/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// renderMarkdown renders markdown for the terminal. It returns content
// unchanged if the renderer cannot be built or rendering fails.
func renderMarkdown(content string) string {
	markdownRendererOnce.Do(func() {
		width := GetTerminalWidth()
		if width > MaxRenderWidth {
			width = MaxRenderWidth
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-4),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displaySolution prints the solution to stdout. Markdown is rendered only
// when stdout is a terminal so piped output stays plain.
func displaySolution(solution string) {
	if IsStdoutTTY() && ColorsEnabled() {
		fmt.Fprint(stdout, renderMarkdown(solution))
		return
	}
	fmt.Fprint(stdout, solution)
	if !strings.HasSuffix(solution, "\n") {
		fmt.Fprintln(stdout)
	}
}

// =============================================================================
// PROGRESS OUTPUT
// =============================================================================

const (
	// progressWidth bounds one progress line when not verbose
	progressWidth = 100

	// argValueWidth bounds one argument value in a tool call line
	argValueWidth = 40
)

// progressPrinter writes agent events to a stream (stderr in the CLI).
type progressPrinter struct {
	w       io.Writer
	verbose bool
}

// handle is an agent.EventHandler.
func (p *progressPrinter) handle(ev agent.Event) {
	switch ev.Kind {
	case agent.EventIterationStart:
		if p.verbose {
			fmt.Fprintln(p.w, DimStyle.Render(fmt.Sprintf("step %d/%d", ev.Iteration, ev.MaxIters)))
		}

	case agent.EventThought:
		thought := strings.TrimSpace(ev.Thought)
		if thought == "" {
			return
		}
		if !p.verbose {
			thought = util.TruncateWidth(util.FirstLine(thought), progressWidth)
		}
		fmt.Fprintln(p.w, ThoughtStyle.Render(thought))

	case agent.EventToolCall:
		fmt.Fprintf(p.w, "%s %s %s\n",
			DimStyle.Render("→"),
			ToolStyle.Render(ev.Tool),
			DimStyle.Render(formatArgs(ev.Args)))

	case agent.EventToolResult:
		if ev.Result == nil {
			return
		}
		if ev.Result.Success {
			summary := fmt.Sprintf("ok (%s)", ev.Result.Duration.Round(time.Millisecond))
			if p.verbose {
				summary += "\n" + util.Indent(util.TruncateRunes(ev.Result.Output, 2000), "    ")
			}
			fmt.Fprintf(p.w, "  %s %s\n", SuccessStyle.Render("✓"), DimStyle.Render(summary))
			return
		}
		fmt.Fprintf(p.w, "  %s %s\n", ErrorStyle.Render("✗"),
			WarningStyle.Render(util.TruncateWidth(util.FirstLine(ev.Result.Error), progressWidth)))

	case agent.EventComplete:
		fmt.Fprintf(p.w, "%s %s\n", SuccessStyle.Render("done"),
			DimStyle.Render(fmt.Sprintf("(%s after %d step(s))", ev.StopReason, ev.Iteration)))
	}
}

// formatArgs renders tool arguments as sorted key=value pairs.
func formatArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.ReplaceAll(fmt.Sprint(args[k]), "\n", `\n`)
		parts = append(parts, k+"="+util.TruncateWidth(v, argValueWidth))
	}
	return strings.Join(parts, " ")
}

// printStats summarizes the tool calls made so far.
func printStats(w io.Writer, stats tools.ExecutionStats) {
	if stats.TotalExecutions == 0 {
		return
	}
	fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%d tool call(s): %d ok, %d failed, avg %s",
		stats.TotalExecutions, stats.Successful, stats.Failed, stats.AvgDuration.Round(time.Millisecond))))
}
