// Package errors provides structured CLI error types for Ouzel.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess     = 0  // Successful execution
	ExitGeneral     = 1  // General error
	ExitConfig      = 2  // Configuration or project error
	ExitEnvironment = 3  // Missing executable, directory, or required file
	ExitExecution   = 4  // Subprocess chain or artifact resolution failure
	ExitUsage       = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
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

// NoProject returns an error when no project directory is available.
func NoProject() *CLIError {
	return &CLIError{
		Message: "No project directory",
		Hint:    "Run 'ouzel project create <name>' or pass a project directory argument",
		Code:    ExitConfig,
	}
}

// ProjectLoadFailed returns an error for an unreadable project config.
func ProjectLoadFailed(dir string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to load project: %s", dir),
		Hint:    "Check that project.json is valid JSON, or recreate the project",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// ProjectSaveFailed returns an error for a failed project config write.
func ProjectSaveFailed(dir string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to save project: %s", dir),
		Hint:    "Check file permissions for the project directory",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// FirmwareRequired returns an error when no firmware image is configured.
func FirmwareRequired() *CLIError {
	return &CLIError{
		Message: "Firmware image not set",
		Hint:    "Run 'ouzel project set firmware <path.ipsw>' first",
		Code:    ExitConfig,
	}
}

// TicketRequired returns an error when untethered mode lacks a signing ticket.
func TicketRequired() *CLIError {
	return &CLIError{
		Message: "Signing ticket and generator are required for untethered mode",
		Hint:    "Run 'ouzel project set ticket <path.shsh2>' first",
		Code:    ExitConfig,
	}
}

// ToolNotFound returns an error when an external tool cannot be resolved.
func ToolNotFound(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("External tool not found: %s", name),
		Hint:    "Place the binary next to ouzel, in ./bin, or set tools.dir via 'ouzel config set'",
		Code:    ExitEnvironment,
	}
}

// FileRequired returns an error when a step's input artifact is missing.
func FileRequired(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Required file missing: %s", name),
		Hint:    "Run the earlier steps that produce it, or copy the file into the project directory",
		Code:    ExitEnvironment,
	}
}

// InvalidStepIndex returns an error for a step index outside the plan.
func InvalidStepIndex(value string, total int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid step index: %s", value),
		Hint:    fmt.Sprintf("Step indexes are 1-based; this plan has %d steps", total),
		Code:    ExitUsage,
	}
}

// StepNotEligible returns an error when a step's prerequisites are unmet.
func StepNotEligible(index int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Step %d is not eligible to run", index+1),
		Hint:    "Run 'ouzel step list' to see which step is next",
		Code:    ExitConfig,
	}
}

// StepFailed returns an error for a failed step execution.
func StepFailed(label string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Step failed: %s", label),
		Hint:    "Re-enter DFU mode and run 'ouzel step run' to retry",
		Code:    ExitExecution,
	}
}

// InvalidChipset returns an error for an unknown chipset value.
func InvalidChipset(value string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid chipset: %s", value),
		Hint:    "Supported chipsets: A9, A10",
		Code:    ExitUsage,
	}
}

// InvalidMode returns an error for an unknown mode value.
func InvalidMode(value string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid mode: %s", value),
		Hint:    "Supported modes: tethered, untethered",
		Code:    ExitUsage,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your Ouzel config directory or run 'ouzel doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}
