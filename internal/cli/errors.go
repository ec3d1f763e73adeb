// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - error types and exit codes shared by every command.
//
// Handlers ALWAYS return errors; main decides how to show them.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/jeranaias/minicode/internal/config"
	"github.com/jeranaias/minicode/internal/llm"
	"github.com/jeranaias/minicode/internal/tools"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the provider rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the model endpoint could not be used
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitInterrupted indicates the user interrupted the run
	ExitInterrupted = 130
)

// ErrToolFailed is returned by the tool command when the tool reports failure.
var ErrToolFailed = errors.New("tool failed")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "run", "config")
	Action  string // Action being performed (e.g., "set", "load")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := e.Field + " " + e.Reason
	if e.Value != "" {
		msg = fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
	}
	if e.Example != "" {
		msg += " (e.g. " + e.Example + ")"
	}
	return msg
}

// reportedError has already been shown to the user; only its exit code
// matters.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a ValidationError with a usage hint.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument reports a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "is required", Example: usage}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to stderr, or as a JSON response to stdout in JSON
// mode.
func DisplayError(err error, jsonMode bool) {
	var reported *reportedError
	if err == nil || errors.As(err, &reported) {
		return
	}
	if jsonMode {
		resp := NewJSONErrorResponse("", err)
		resp.ErrorType = errorType(err)
		_ = resp.Print()
		return
	}
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// HandleErrorAndExit displays err and exits with its exit code. A nil error
// returns without exiting.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

// errorType names the category used in JSON error output.
func errorType(err error) string {
	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		return "validation_error"
	case errors.As(err, &cmdErr):
		return "command_error"
	default:
		return "generic_error"
	}
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}
	var toolArgErr *tools.ValidationError
	if errors.As(err, &toolArgErr) {
		return ExitUsageError
	}

	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	if errors.As(err, &cfgErrs) || errors.As(err, &cfgErr) || errors.Is(err, llm.ErrNotConfigured) {
		return ExitConfigError
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, llm.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, llm.ErrModelNotFound), errors.Is(err, tools.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, llm.ErrRateLimited):
		return ExitNetworkError
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return ExitNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	}

	// Last resort: message content
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"),
		strings.Contains(errMsg, "dial"):
		return ExitNetworkError
	case strings.Contains(errMsg, "timed out"):
		return ExitTimeoutError
	}

	return ExitGeneralError
}
