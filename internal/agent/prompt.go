// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"fmt"
	"strings"

	"github.com/jeranaias/minicode/internal/llm"
	"github.com/jeranaias/minicode/internal/tools"
)

// FinishTool is the tool the model calls to end the loop.
const FinishTool = "finish"

const finishDescription = "Signal that all information needed for the solution has been gathered and the task is complete."

// buildSystemPrompt describes the task, the fields and the tools.
func buildSystemPrompt(registry *tools.Registry, workDir string) string {
	var sb strings.Builder

	sb.WriteString("You are a code agent working on the user's machine.\n\n")
	sb.WriteString("You are given the field `requirement` (the user's requirement) and must produce the field ")
	sb.WriteString("`solution` (a concrete solution).\n\n")
	sb.WriteString("Work step by step. In each step, think briefly about where you are, then call one or more tools ")
	sb.WriteString("to inspect or change files or to look things up on the web. Every tool result comes back to you ")
	sb.WriteString("as an observation; failed calls come back as errors you can react to. ")
	sb.WriteString("When you have done everything the requirement asks for, call `" + FinishTool + "`.\n\n")

	sb.WriteString("Available tools:\n")
	i := 1
	for _, tool := range registry.All() {
		fmt.Fprintf(&sb, "%d. %s: %s", i, tool.Name, tool.Summary())
		if params := describeParams(tool.Schema); params != "" {
			fmt.Fprintf(&sb, " Parameters: %s.", params)
		}
		sb.WriteString("\n")
		i++
	}
	fmt.Fprintf(&sb, "%d. %s: %s\n", i, FinishTool, finishDescription)

	if workDir != "" {
		fmt.Fprintf(&sb, "\nRelative paths are resolved against the working directory: %s\n", workDir)
	}
	return sb.String()
}

func describeParams(schema tools.Schema) string {
	parts := make([]string, 0, len(schema.Parameters))
	for _, p := range schema.Parameters {
		s := p.Name + " (" + p.Type
		if p.Required {
			s += ", required"
		}
		parts = append(parts, s+")")
	}
	return strings.Join(parts, ", ")
}

// requirementMessage frames the input field.
func requirementMessage(requirement string) string {
	return "requirement: " + requirement
}

// extractionPrompt asks for the output field once the loop has stopped.
func extractionPrompt(reason StopReason) string {
	lead := "The task is finished."
	if reason == StopMaxIters {
		lead = "The step budget is exhausted; no more tools can be called."
	}
	return lead + " Based on the whole trajectory above, write the final `solution` for the requirement. " +
		"Reply with the solution text only."
}

// finishSpec is the tool spec of the finish tool.
func finishSpec() llm.ToolSpec {
	return llm.NewToolSpec(FinishTool, finishDescription, tools.Schema{}.JSONSchema())
}
