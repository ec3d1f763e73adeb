// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import "github.com/jeranaias/minicode/internal/tools"

// EventKind identifies a loop event.
type EventKind int

const (
	// EventIterationStart is emitted before each model call.
	EventIterationStart EventKind = iota

	// EventThought is emitted when the model returns text alongside (or
	// instead of) tool calls.
	EventThought

	// EventToolCall is emitted before a tool runs.
	EventToolCall

	// EventToolResult is emitted after a tool ran.
	EventToolResult

	// EventComplete is emitted once the solution is known.
	EventComplete
)

// String returns the string representation of an event kind.
func (k EventKind) String() string {
	switch k {
	case EventIterationStart:
		return "iteration"
	case EventThought:
		return "thought"
	case EventToolCall:
		return "tool_call"
	case EventToolResult:
		return "tool_result"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event carries the data of one loop event. Fields not relevant to Kind are
// zero.
type Event struct {
	Kind      EventKind
	Iteration int
	MaxIters  int
	Thought   string
	Tool      string
	Args      map[string]interface{}
	Result    *tools.Result

	// Set on EventComplete
	StopReason StopReason
	Solution   string
}

// EventHandler receives loop events. It is called synchronously from Run.
type EventHandler func(Event)
