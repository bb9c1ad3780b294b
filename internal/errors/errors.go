// Package errors provides structured CLI error types for bridgebot.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// so every failure path degrades to a textual reply the remote caller
// can read, instead of crashing the bridge.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0  // Successful execution
	ExitGeneral   = 1  // General error
	ExitConfig    = 4  // Configuration error
	ExitTimeout   = 5  // Invocation timeout
	ExitExecution = 6  // Agent execution failure
	ExitUsage     = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// AgentNotFound returns an error when the agent executable is missing.
// The session that produced it stays usable.
func AgentNotFound(path string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Agent CLI not found: %s", path),
		Hint:    "Install the agent CLI or set agent.path to its full location",
		Code:    ExitConfig,
	}
}

// LaunchFailed returns an error for OS-level launch failures other than
// a missing executable.
func LaunchFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Failed to launch agent process",
		Hint:    "Check the working directory and executable permissions",
		Cause:   cause,
		Code:    ExitExecution,
	}
}

// InvalidDirectory returns an error for a rejected working-directory
// change. The prior working directory remains in effect.
func InvalidDirectory(path string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Directory not found: %s", path),
		Hint:    "Pass an existing directory, absolute or relative to the current one",
		Code:    ExitUsage,
	}
}

// ExecutionTimedOut returns an error for an invocation that exceeded its
// timeout. Partial output is still returned to the caller separately.
func ExecutionTimedOut(timeout string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Agent timed out after %s", timeout),
		Hint:    "Increase agent.timeout_seconds or simplify the request",
		Code:    ExitTimeout,
	}
}

// ProcessDied returns an error for a persistent agent process that
// exited between invocations. The next submit restarts it.
func ProcessDied() *CLIError {
	return &CLIError{
		Message: "Agent process exited unexpectedly",
		Hint:    "The session will restart the agent on the next message",
		Code:    ExitExecution,
	}
}

// ConfigFailed returns an error for configuration load/save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your bridgebot config directory",
		Cause:   cause,
		Code:    ExitConfig,
	}
}
