//go:build windows

package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// startProcess spawns the tool with stdout and stderr merged into one pipe.
// Windows has no PTY support in the restore tools, so plain pipes are used.
func startProcess(ctx context.Context, path string, args []string, workingDir string, env []string) (*process, error) {
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec // path resolved from a fixed search list
	cmd.Dir = workingDir
	cmd.Env = env

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd.Stdout = outW
	cmd.Stderr = outW

	stdin, err := cmd.StdinPipe()
	if err != nil {
		outR.Close()
		outW.Close()

		return nil, err
	}

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()

		return nil, err
	}

	// The parent's copy of the write end must close so reads hit EOF when
	// the child exits.
	outW.Close()

	pid := cmd.Process.Pid

	p := &process{
		pid:    pid,
		stdin:  stdin,
		output: outR,
		done:   make(chan struct{}),
	}

	p.waitStatus = func() ExitStatus {
		defer outR.Close()

		return waitExitStatus(cmd)
	}

	p.kill = func() {
		// Force-kill the whole process tree; the restore tools spawn
		// helper processes that must not outlive them.
		killCmd := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
		killCmd.Stdout = io.Discard
		killCmd.Stderr = io.Discard

		if err := killCmd.Run(); err != nil {
			_ = cmd.Process.Kill()
		}
	}

	return p, nil
}

// waitExitStatus reaps the child and maps its termination to an ExitStatus.
func waitExitStatus(cmd *exec.Cmd) ExitStatus {
	err := cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitStatus{Code: exitErr.ExitCode()}
	}

	return ExitStatus{Code: -1}
}
