package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	clierrors "github.com/ouzel-dev/ouzel/internal/errors"
)

// Every runnable command must declare an Args validator so stray
// positionals fail fast instead of being silently ignored.
func TestAllRunnableCommandsHaveArgsValidator(t *testing.T) {
	root := newRootCmd()

	var missing []string

	for _, cmd := range collectAllCommands(root) {
		if !cmd.Runnable() {
			continue
		}

		if cmd.Args == nil {
			missing = append(missing, cmd.CommandPath())
		}
	}

	if len(missing) > 0 {
		t.Errorf("runnable commands missing Args validator:\n  %s\n\nAdd Args: noArgs (or another validator) to each command.",
			strings.Join(missing, "\n  "))
	}
}

// collectAllCommands returns every command in the tree (including root).
func collectAllCommands(root *cobra.Command) []*cobra.Command {
	var all []*cobra.Command

	var walk func(cmd *cobra.Command)

	walk = func(cmd *cobra.Command) {
		all = append(all, cmd)
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}

	walk(root)

	return all
}

// Unknown flags anywhere in the tree come back as CLIError with a usage
// exit code and a hint naming the command that rejected them.
func TestUnknownFlagReturnsCLIError(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPath string
	}{
		{"top-level command", []string{"version", "--bogus"}, "ouzel version"},
		{"nested command", []string{"project", "info", "--bogus"}, "ouzel project info"},
		{"shorthand", []string{"step", "list", "-z"}, "ouzel step list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)

			err := root.Execute()
			if err == nil {
				t.Fatal("expected error for unknown flag, got nil")
			}

			var cliErr *clierrors.CLIError
			if !clierrors.As(err, &cliErr) {
				t.Fatalf("expected CLIError, got %T: %v", err, err)
			}

			if cliErr.Code != clierrors.ExitUsage {
				t.Errorf("exit code = %d, want %d (ExitUsage)", cliErr.Code, clierrors.ExitUsage)
			}

			if !strings.Contains(cliErr.Hint, tt.wantPath) {
				t.Errorf("hint = %q, want to contain command path %q", cliErr.Hint, tt.wantPath)
			}
		})
	}
}

func TestNoArgsCommandRejectsExtraArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"doctor", "extra"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for extra argument, got nil")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T: %v", err, err)
	}

	if cliErr.Code != clierrors.ExitUsage {
		t.Errorf("exit code = %d, want %d (ExitUsage)", cliErr.Code, clierrors.ExitUsage)
	}

	if !strings.Contains(cliErr.Message, "accepts no arguments") {
		t.Errorf("message = %q, want to contain 'accepts no arguments'", cliErr.Message)
	}

	if !strings.Contains(cliErr.Hint, "--help") {
		t.Errorf("hint = %q, want to contain '--help'", cliErr.Hint)
	}
}

// Typos within the suggestion distance should surface cobra's
// "Did you mean" output rather than a bare failure.
func TestUnknownCommandSuggestsNearest(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"stpe"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}

	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("error = %q, want to mention the unknown command", err.Error())
	}
}
