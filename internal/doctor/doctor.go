// Package doctor provides diagnostic checks for Ouzel environment health.
//
// This package implements a check framework that validates:
//   - DFU handler availability (turdusra1n)
//   - Restore engine availability (turdus_merula)
//   - Config directory writability
//   - Log directory writability
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ouzel-dev/ouzel/internal/config"
	"github.com/ouzel-dev/ouzel/internal/orchestrator"
	"github.com/ouzel-dev/ouzel/internal/paths"
	"github.com/ouzel-dev/ouzel/internal/runner"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a new diagnostic runner.
func New(cfg *config.Config) *Runner {
	r := &Runner{}

	// Register default checks
	r.AddCheck("DFU Handler", checkTool(orchestrator.ToolDFU, cfg))
	r.AddCheck("Restore Engine", checkTool(orchestrator.ToolRestore, cfg))
	r.AddCheck("Config Directory", checkConfigDir)
	r.AddCheck("Log Directory", checkLogDir)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkTool verifies an external restore tool resolves on the search path.
func checkTool(name string, cfg *config.Config) Check {
	return func(ctx context.Context) Result {
		path, err := runner.ResolveExecutable(name, cfg.ToolsDir())
		if err != nil {
			return Result{
				Status:  StatusFail,
				Message: "Not found",
				Detail:  err.Error(),
			}
		}

		info, err := os.Stat(path)
		if err == nil && info.Mode()&0o111 == 0 {
			return Result{
				Status:  StatusWarn,
				Message: fmt.Sprintf("%s is not executable", path),
				Detail:  fmt.Sprintf("Run 'chmod +x %s'", path),
			}
		}

		return Result{
			Status:  StatusPass,
			Message: path,
		}
	}
}

// checkConfigDir verifies the configuration directory is writable.
func checkConfigDir(ctx context.Context) Result {
	dir, err := paths.ConfigRoot()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Cannot determine config directory",
			Detail:  err.Error(),
		}
	}

	return checkWritable(dir)
}

// checkLogDir verifies the log directory is writable.
func checkLogDir(ctx context.Context) Result {
	dir, err := paths.LogsDir()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Cannot determine log directory",
			Detail:  err.Error(),
		}
	}

	return checkWritable(dir)
}

func checkWritable(dir string) Result {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Result{
			Status:  StatusFail,
			Message: dir,
			Detail:  err.Error(),
		}
	}

	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is not writable", dir),
			Detail:  err.Error(),
		}
	}
	_ = os.Remove(probe)

	return Result{
		Status:  StatusPass,
		Message: dir,
	}
}

// RenderResults formats diagnostic results to the given output writer.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		symbol := r.Status.Symbol()
		padding := maxNameLen - len(r.Name) + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", symbol, len(r.Name)+padding, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "✓" // ✓
	xMark       = "✗" // ✗
	warningMark = "⚠" // ⚠
)
