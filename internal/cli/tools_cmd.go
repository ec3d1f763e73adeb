// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"

	"github.com/jeranaias/minicode/internal/tools"
	"github.com/jeranaias/minicode/internal/util"
)

// ToolInfo is the JSON form of one tool in "tools --json".
type ToolInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Risk        string             `json:"risk"`
	Async       bool               `json:"async"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// ToolRunData is the JSON form of a direct tool invocation.
type ToolRunData struct {
	Tool       string        `json:"tool"`
	Success    bool          `json:"success"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	MatchCount int           `json:"match_count,omitempty"`
}

// HandleTools handles "tools": list every tool the agent can call.
func HandleTools(args Args) error {
	logger := slog.Default()
	cfg, err := loadConfig(args, logger)
	if err != nil {
		return err
	}

	registry := tools.DefaultRegistry(newToolbox(cfg, logger, stderr), cfg.LM.AllowToolAsyncSyncConversion)
	all := registry.All()

	if args.JSON {
		infos := lo.Map(all, func(t *tools.Tool, _ int) ToolInfo {
			return ToolInfo{
				Name:        t.Name,
				Description: t.Description,
				Risk:        t.RiskLevel.String(),
				Async:       t.Async,
				Parameters:  t.Schema.JSONSchema(),
			}
		})
		return NewJSONResponse("tools", infos).Print()
	}

	printToolList(stdout, all)
	if !cfg.LM.AllowToolAsyncSyncConversion {
		fmt.Fprintln(stdout, DimStyle.Render("Browser tools are disabled (dspy.allow_tool_async_sync_conversion: false)."))
	}
	return nil
}

// printToolList writes the tools with their parameters.
func printToolList(w io.Writer, list []*tools.Tool) {
	nameWidth := lo.Max(lo.Map(list, func(t *tools.Tool, _ int) int { return len(t.Name) }))

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Tools (%d)", len(list))))
	for _, t := range list {
		fmt.Fprintf(w, "  %s  %s\n",
			riskStyle(t.RiskLevel.Color()).Render(padRight(t.Name, nameWidth)),
			ValueStyle.Render(t.Summary()))
		for _, p := range t.Schema.Parameters {
			fmt.Fprintf(w, "  %s    %s\n", strings.Repeat(" ", nameWidth), DimStyle.Render(describeParam(p)))
		}
	}
}

// describeParam renders "--name <type> (required)" style help for p.
func describeParam(p tools.Parameter) string {
	var sb strings.Builder
	sb.WriteString("--" + p.Name + " <" + p.Type + ">")
	switch {
	case p.Required:
		sb.WriteString(" required")
	case p.Default != nil:
		sb.WriteString(fmt.Sprintf(" default %v", p.Default))
	}
	if len(p.Enum) > 0 {
		sb.WriteString(" one of " + strings.Join(p.Enum, "|"))
	}
	if p.Description != "" {
		sb.WriteString(": " + util.FirstLine(p.Description))
	}
	return sb.String()
}

// HandleTool handles "tool <name> --param value ...": run one tool directly,
// without a model.
func HandleTool(args Args) error {
	logger := slog.Default()
	cfg, err := loadConfig(args, logger)
	if err != nil {
		return err
	}

	humanOut := stdout
	if args.JSON {
		humanOut = stderr
	}
	var extra []tools.Option
	if dir, _ := projectDir(args); dir != "" {
		extra = append(extra, tools.WithBaseDir(dir))
	}
	registry := tools.DefaultRegistry(newToolbox(cfg, logger, humanOut, extra...), true)

	tool := registry.Get(args.ToolName)
	if tool == nil {
		return NewValidationErrorWithExample("tool", args.ToolName, "unknown tool",
			strings.Join(registry.Names(), ", "))
	}

	params, err := tools.CoerceArgs(tool.Schema, args.ToolParams)
	if err != nil {
		return NewCommandError("tool", args.ToolName, "bad parameters", err)
	}

	// A direct call shows the whole output; truncation is for the model.
	executor := tools.NewExecutor(registry, logger)
	executor.SetTimeout(cfg.ToolTimeoutDuration())
	executor.SetMaxOutputSize(0)

	ctx, stop := signalContext()
	defer stop()

	res := executor.Execute(ctx, tools.ToolCall{Name: tool.Name, Params: params})

	if args.JSON {
		data := ToolRunData{
			Tool:       tool.Name,
			Success:    res.Success,
			Output:     res.Output,
			Error:      res.Error,
			Duration:   res.Duration,
			MatchCount: res.MatchCount,
		}
		resp := NewJSONResponse("tool", data)
		if !res.Success {
			resp.Success = false
			resp.Error = &res.Error
		}
		if err := resp.Print(); err != nil {
			return err
		}
		if !res.Success {
			return &reportedError{err: ErrToolFailed}
		}
		return nil
	}

	if !res.Success {
		return NewCommandError("tool", tool.Name, res.Error, ErrToolFailed)
	}
	fmt.Fprint(stdout, res.Output)
	if !strings.HasSuffix(res.Output, "\n") {
		fmt.Fprintln(stdout)
	}
	return nil
}
