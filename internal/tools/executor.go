// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/minicode/internal/logging"
	"github.com/jeranaias/minicode/internal/util"
)

// =============================================================================
// EXECUTION RECORD
// =============================================================================

// ExecutionRecord tracks the result of a tool execution.
type ExecutionRecord struct {
	// ToolName is the name of the executed tool
	ToolName string

	// Params are the parameters passed to the tool
	Params map[string]interface{}

	// Result is the outcome of the execution
	Result Result

	// Timestamp is when the execution started
	Timestamp time.Time
}

// =============================================================================
// EXECUTOR
// =============================================================================

// DefaultToolTimeout is applied when the context has no deadline.
const DefaultToolTimeout = 2 * time.Minute

// DefaultMaxOutputSize is the largest output, in runes, handed back.
const DefaultMaxOutputSize = 30000

const maxHistorySize = 1000

// Executor validates and runs tool calls, turning every failure into a
// Result the model can read.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
	history  []ExecutionRecord
	mu       sync.Mutex

	maxOutputSize int
	timeout       time.Duration
}

// NewExecutor creates a new tool executor with the given registry.
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry:      registry,
		logger:        logging.OrDefault(logger),
		history:       make([]ExecutionRecord, 0),
		maxOutputSize: DefaultMaxOutputSize,
		timeout:       DefaultToolTimeout,
	}
}

// SetTimeout sets the per-call timeout used when the context has none.
func (e *Executor) SetTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.timeout = d
	}
}

// SetMaxOutputSize sets the output truncation limit in runes. Zero or less
// turns truncation off.
func (e *Executor) SetMaxOutputSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxOutputSize = n
}

// Registry returns the tool registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// History returns a copy of the execution history.
func (e *Executor) History() []ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]ExecutionRecord, len(e.history))
	copy(result, e.history)
	return result
}

// ClearHistory clears the execution history.
func (e *Executor) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = make([]ExecutionRecord, 0)
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs a tool call. It never returns an error: unknown tools,
// invalid arguments, tool errors and timeouts all come back as a failed
// Result.
func (e *Executor) Execute(ctx context.Context, call ToolCall) Result {
	start := time.Now()
	record := ExecutionRecord{
		ToolName:  call.Name,
		Params:    call.Params,
		Timestamp: start,
	}

	result := e.run(ctx, call)
	result.Duration = time.Since(start)

	e.mu.Lock()
	limit := e.maxOutputSize
	e.mu.Unlock()
	if limit > 0 && len(result.Output) > limit {
		if truncated := util.TruncateRunes(result.Output, limit); truncated != result.Output {
			result.Output = truncated
			result.Truncated = true
		}
	}

	if result.Success {
		e.logger.Debug("tool succeeded", "tool", call.Name, "duration", result.Duration, "truncated", result.Truncated)
	} else {
		e.logger.Warn("tool call failed", "tool", call.Name, "duration", result.Duration, "error", result.Error)
	}

	record.Result = result
	e.addToHistory(record)
	return result
}

func (e *Executor) run(ctx context.Context, call ToolCall) Result {
	tool := e.registry.Get(call.Name)
	if tool == nil {
		return Result{Error: "unknown tool: " + call.Name}
	}

	if call.Params == nil {
		call.Params = map[string]interface{}{}
	}
	if err := ValidateToolArgs(&tool.Schema, call.Params); err != nil {
		return Result{Error: "parameter validation failed: " + err.Error()}
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		e.mu.Lock()
		timeout := e.timeout
		e.mu.Unlock()
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		result, err := tool.Executor.Execute(ctx, call.Params)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return Result{Error: out.err.Error()}
		}
		return out.result
	case <-ctx.Done():
		return Result{Error: "tool execution timed out: " + ctx.Err().Error()}
	}
}

// addToHistory adds an execution record, dropping the oldest beyond
// maxHistorySize.
func (e *Executor) addToHistory(record ExecutionRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) >= maxHistorySize {
		e.history = e.history[len(e.history)-maxHistorySize+1:]
	}
	e.history = append(e.history, record)
}

// =============================================================================
// EXECUTION STATISTICS
// =============================================================================

// ExecutionStats provides statistics about tool executions.
type ExecutionStats struct {
	TotalExecutions int
	Successful      int
	Failed          int
	TotalDuration   time.Duration
	AvgDuration     time.Duration
}

// Stats returns statistics about the execution history.
func (e *Executor) Stats() ExecutionStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := ExecutionStats{TotalExecutions: len(e.history)}
	for _, record := range e.history {
		if record.Result.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.TotalDuration += record.Result.Duration
	}
	if stats.TotalExecutions > 0 {
		stats.AvgDuration = stats.TotalDuration / time.Duration(stats.TotalExecutions)
	}
	return stats
}
