// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/jeranaias/minicode/internal/config"
	"github.com/jeranaias/minicode/internal/llm"
	"github.com/jeranaias/minicode/internal/logging"
	"github.com/jeranaias/minicode/internal/tools"
)

// ErrEmptyRequirement is returned by Run for a blank requirement.
var ErrEmptyRequirement = errors.New("requirement is empty")

// ChatModel is the model the loop talks to. *llm.Client implements it.
type ChatModel interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// StopReason tells why the loop ended.
type StopReason string

const (
	// StopAnswered means the model replied without calling a tool.
	StopAnswered StopReason = "answered"

	// StopFinished means the model called the finish tool.
	StopFinished StopReason = "finished"

	// StopMaxIters means the iteration budget ran out.
	StopMaxIters StopReason = "max_iters"
)

// Step is one tool call of the trajectory.
type Step struct {
	Iteration   int                    `json:"iteration"`
	Thought     string                 `json:"thought,omitempty"`
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args,omitempty"`
	Observation string                 `json:"observation"`
	Success     bool                   `json:"success"`
}

// Result is the outcome of one Run.
type Result struct {
	RunID       string        `json:"run_id"`
	Requirement string        `json:"requirement"`
	Solution    string        `json:"solution"`
	Reasoning   string        `json:"reasoning,omitempty"`
	Trajectory  []Step        `json:"trajectory"`
	Iterations  int           `json:"iterations"`
	StopReason  StopReason    `json:"stop_reason"`
	Duration    time.Duration `json:"duration"`
}

// Agent turns requirements into solutions with a model and the tool set.
// An Agent holds no per-run state; Run may be called repeatedly.
type Agent struct {
	cfg      *config.Config
	model    ChatModel
	toolbox  *tools.Toolbox
	registry *tools.Registry
	executor *tools.Executor
	logger   *slog.Logger
	onEvent  EventHandler
	workDir  string
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel replaces the model client built from the configuration.
func WithModel(m ChatModel) Option {
	return func(a *Agent) { a.model = m }
}

// WithToolbox replaces the default toolbox.
func WithToolbox(tb *tools.Toolbox) Option {
	return func(a *Agent) { a.toolbox = tb }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithEventHandler registers a callback for loop events.
func WithEventHandler(h EventHandler) Option {
	return func(a *Agent) { a.onEvent = h }
}

// WithWorkDir sets the directory relative tool paths are resolved against.
// It defaults to the toolbox's base directory.
func WithWorkDir(dir string) Option {
	return func(a *Agent) { a.workDir = dir }
}

// New builds an agent from cfg. The model client is created from cfg.LM
// unless WithModel is given. Browser-backed tools are registered only when
// cfg.LM.AllowToolAsyncSyncConversion is set.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &Agent{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrDefault(a.logger)

	if a.model == nil {
		client, err := llm.FromConfig(cfg.LM, a.logger)
		if err != nil {
			return nil, err
		}
		a.model = client
	}
	if a.toolbox == nil {
		a.toolbox = tools.NewToolbox(
			tools.WithLogger(a.logger),
			tools.WithHeadless(cfg.Agent.Headless),
		)
	}
	if a.workDir != "" {
		a.toolbox = a.toolbox.InDir(a.workDir)
	}
	a.workDir = a.toolbox.BaseDir()

	a.registry = tools.DefaultRegistry(a.toolbox, cfg.LM.AllowToolAsyncSyncConversion)
	a.executor = tools.NewExecutor(a.registry, a.logger)
	a.executor.SetTimeout(cfg.ToolTimeoutDuration())

	a.logger.Debug("agent ready",
		"model", cfg.LM.Model,
		"tools", a.registry.Len(),
		"max_iters", cfg.Agent.MaxIters,
		"config", cfg.Source(),
	)
	return a, nil
}

// Config returns the configuration the agent was built with.
func (a *Agent) Config() *config.Config {
	return a.cfg
}

// Tools returns the tools offered to the model, in prompt order.
func (a *Agent) Tools() []*tools.Tool {
	return a.registry.All()
}

// Executor returns the tool executor, including its history.
func (a *Agent) Executor() *tools.Executor {
	return a.executor
}

// =============================================================================
// RUN LOOP
// =============================================================================

// Run processes one requirement and returns its solution and trajectory.
// Tool failures are observations, not errors; Run fails only on model
// errors and context cancellation.
func (a *Agent) Run(ctx context.Context, requirement string) (*Result, error) {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return nil, ErrEmptyRequirement
	}

	start := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		Requirement: requirement,
		Trajectory:  make([]Step, 0),
	}
	logger := a.logger.With("run", result.RunID)
	maxIters := a.cfg.Agent.MaxIters

	messages := []llm.Message{
		llm.NewSystemMessage(buildSystemPrompt(a.registry, a.workDir)),
		llm.NewUserMessage(requirementMessage(requirement)),
	}
	specs := append(lo.Map(a.registry.All(), func(t *tools.Tool, _ int) llm.ToolSpec {
		return llm.NewToolSpec(t.Name, t.Description, t.Schema.JSONSchema())
	}), finishSpec())

	var thoughts []string

loop:
	for iter := 1; iter <= maxIters; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		result.Iterations = iter
		a.emit(Event{Kind: EventIterationStart, Iteration: iter, MaxIters: maxIters})

		resp, err := a.model.Chat(ctx, llm.ChatRequest{Messages: messages, Tools: specs})
		if err != nil {
			return nil, fmt.Errorf("model call failed at iteration %d: %w", iter, err)
		}
		msg, _ := resp.Message()
		thought := strings.TrimSpace(msg.Content)
		if thought != "" {
			thoughts = append(thoughts, thought)
			a.emit(Event{Kind: EventThought, Iteration: iter, Thought: thought})
		}

		if len(msg.ToolCalls) == 0 {
			result.Solution = thought
			result.StopReason = StopAnswered
			break loop
		}

		calls := lo.Map(msg.ToolCalls, func(c llm.ToolCall, _ int) llm.ToolCall {
			if c.ID == "" {
				c.ID = "call_" + uuid.NewString()
			}
			if c.Type == "" {
				c.Type = "function"
			}
			return c
		})
		messages = append(messages, llm.NewAssistantMessage(msg.Content, calls...))

		finished := false
		for _, call := range calls {
			if finished {
				// Every call id needs an answer, even after finish.
				messages = append(messages, llm.NewToolMessage(call.ID, "skipped: finish was already called"))
				continue
			}
			if call.Function.Name == FinishTool {
				finished = true
				messages = append(messages, llm.NewToolMessage(call.ID, "Completed."))
				result.Trajectory = append(result.Trajectory, Step{
					Iteration: iter, Thought: thought, Tool: FinishTool, Observation: "Completed.", Success: true,
				})
				continue
			}

			step := a.runTool(ctx, iter, thought, call)
			result.Trajectory = append(result.Trajectory, step)
			messages = append(messages, llm.NewToolMessage(call.ID, step.Observation))
		}

		if finished {
			result.StopReason = StopFinished
			break loop
		}
	}

	if result.StopReason == "" {
		result.StopReason = StopMaxIters
		logger.Warn("iteration budget exhausted", "max_iters", maxIters)
	}

	if result.StopReason != StopAnswered {
		messages = append(messages, llm.NewUserMessage(extractionPrompt(result.StopReason)))
		resp, err := a.model.Chat(ctx, llm.ChatRequest{Messages: messages})
		if err != nil {
			return nil, fmt.Errorf("solution extraction failed: %w", err)
		}
		result.Solution = strings.TrimSpace(resp.GetContent())
	}

	result.Reasoning = strings.Join(thoughts, "\n\n")
	result.Duration = time.Since(start)

	logger.Info("run complete",
		"stop_reason", result.StopReason,
		"iterations", result.Iterations,
		"tool_calls", len(result.Trajectory),
		"duration", result.Duration.Round(time.Millisecond),
	)
	a.emit(Event{
		Kind:       EventComplete,
		Iteration:  result.Iterations,
		MaxIters:   maxIters,
		StopReason: result.StopReason,
		Solution:   result.Solution,
	})
	return result, nil
}

// runTool executes one model tool call and records it as a step.
func (a *Agent) runTool(ctx context.Context, iter int, thought string, call llm.ToolCall) Step {
	step := Step{Iteration: iter, Thought: thought, Tool: call.Function.Name}

	args, err := call.Function.DecodeArguments()
	if err != nil {
		step.Observation = "Error: " + err.Error()
		res := tools.Result{Error: err.Error()}
		a.emit(Event{Kind: EventToolCall, Iteration: iter, Tool: step.Tool})
		a.emit(Event{Kind: EventToolResult, Iteration: iter, Tool: step.Tool, Result: &res})
		return step
	}
	step.Args = args

	a.emit(Event{Kind: EventToolCall, Iteration: iter, Tool: step.Tool, Args: args})
	res := a.executor.Execute(ctx, tools.ToolCall{ID: call.ID, Name: step.Tool, Params: args})
	a.emit(Event{Kind: EventToolResult, Iteration: iter, Tool: step.Tool, Args: args, Result: &res})

	step.Success = res.Success
	step.Observation = formatObservation(res)
	return step
}

// formatObservation renders a tool result for the model.
func formatObservation(res tools.Result) string {
	var sb strings.Builder
	if res.Success {
		if res.Output != "" {
			sb.WriteString(res.Output)
		} else {
			sb.WriteString("(no output)")
		}
		if res.Truncated {
			sb.WriteString("\n(output was truncated)")
		}
		return sb.String()
	}

	sb.WriteString("Error: ")
	if res.Error != "" {
		sb.WriteString(res.Error)
	} else {
		sb.WriteString("unknown error")
	}
	return sb.String()
}

func (a *Agent) emit(ev Event) {
	if a.onEvent != nil {
		a.onEvent(ev)
	}
}
