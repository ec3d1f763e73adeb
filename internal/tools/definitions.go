// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// RISK LEVELS
// =============================================================================

// RiskLevel indicates how much a tool can change outside the process.
type RiskLevel int

const (
	// RiskLow - Read-only operations, no side effects
	RiskLow RiskLevel = iota

	// RiskMedium - Talks to the network or the human, no local writes
	RiskMedium

	// RiskHigh - Creates, rewrites or renames files
	RiskHigh
)

// String returns the string representation of a risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Color returns the color associated with a risk level.
func (r RiskLevel) Color() string {
	switch r {
	case RiskLow:
		return "#34D399" // Emerald
	case RiskMedium:
		return "#FBBF24" // Amber
	case RiskHigh:
		return "#FB923C" // Orange
	default:
		return "#A6ADC8"
	}
}

// =============================================================================
// TOOL DEFINITION
// =============================================================================

// Tool represents an executable tool.
type Tool struct {
	// Name is the identifier the model calls (e.g. "read_file")
	Name string

	// Description explains what the tool does; the first line is the summary
	Description string

	// Schema defines the tool's parameters
	Schema Schema

	// RiskLevel indicates how much the tool can change
	RiskLevel RiskLevel

	// Async marks tools that drive a browser; they can be left out when
	// async tools are disabled in the configuration.
	Async bool

	// Executor handles the actual execution
	Executor ToolExecutor
}

// Summary returns the first line of the description.
func (t *Tool) Summary() string {
	if idx := strings.Index(t.Description, "\n"); idx != -1 {
		return t.Description[:idx]
	}
	return t.Description
}

// Schema defines a tool's parameters.
type Schema struct {
	Parameters []Parameter
}

// Parameter defines a single tool parameter.
type Parameter struct {
	// Name of the parameter
	Name string

	// Type is the JSON type ("string", "integer", "number", "boolean", "array")
	Type string

	// Items is the element type for arrays (defaults to "string")
	Items string

	// Required indicates if the parameter must be provided
	Required bool

	// Description explains the parameter
	Description string

	// Default is the value used when the parameter is omitted
	Default interface{}

	// Enum restricts string values
	Enum []string
}

// Param returns the named parameter definition.
func (s Schema) Param(name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// =============================================================================
// TOOL EXECUTOR INTERFACE
// =============================================================================

// ToolExecutor is the interface for individual tool execution.
// A returned error means the call failed; Result carries the detail.
type ToolExecutor interface {
	Execute(ctx context.Context, params map[string]interface{}) (Result, error)
}

// ExecutorFunc adapts a function to ToolExecutor.
type ExecutorFunc func(ctx context.Context, params map[string]interface{}) (Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	return f(ctx, params)
}

// Result holds the outcome of a tool execution.
type Result struct {
	// Success indicates if the tool executed successfully
	Success bool

	// Output is the tool's output (for successful execution)
	Output string

	// Error is the error message (for failed execution)
	Error string

	// Duration is how long execution took
	Duration time.Duration

	// Truncated indicates output was truncated
	Truncated bool

	// MatchCount is the number of files found, substitutions made or
	// search results parsed
	MatchCount int
}

// okResult builds a successful result.
func okResult(output string) Result {
	return Result{Success: true, Output: output}
}

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry holds the tools offered to the model.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates a registry holding the given tools, in order.
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool. Registration order is preserved.
func (r *Registry) Register(tool *Tool) {
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// All returns all registered tools in registration order.
func (r *Registry) All() []*Tool {
	result := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// =============================================================================
// TOOL CALL
// =============================================================================

// ToolCall represents a parsed tool invocation.
type ToolCall struct {
	ID     string
	Name   string
	Params map[string]interface{}
}
