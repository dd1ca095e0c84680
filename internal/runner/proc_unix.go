//go:build unix

package runner

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// gracePeriod is how long a terminated process gets before SIGKILL.
const gracePeriod = 3 * time.Second

// startProcess spawns the tool under a PTY. The PTY merges stdout and
// stderr into one stream and makes the restore tools emit their normal
// interactive progress output.
func startProcess(ctx context.Context, path string, args []string, workingDir string, env []string) (*process, error) {
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec // path resolved from a fixed search list
	cmd.Dir = workingDir
	cmd.Env = env

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	pid := cmd.Process.Pid

	// pty.Start puts the child in its own session, so its pgid is its pid.
	pgid := pid
	if got, pgErr := syscall.Getpgid(pid); pgErr == nil {
		pgid = got
	}

	p := &process{
		pid:    pid,
		stdin:  ptmx,
		output: ptmx,
		done:   make(chan struct{}),
	}

	p.waitStatus = func() ExitStatus {
		defer ptmx.Close()

		return waitExitStatus(cmd)
	}

	p.kill = func() {
		sendSignal(pid, pgid, syscall.SIGTERM)

		go func() {
			time.Sleep(gracePeriod)
			sendSignal(pid, pgid, syscall.SIGKILL)
		}()
	}

	return p, nil
}

// sendSignal signals the whole process group when possible, falling back
// to the process itself.
func sendSignal(pid, pgid int, sig syscall.Signal) {
	if pgid > 0 {
		if err := unix.Kill(-pgid, sig); err == nil || errors.Is(err, unix.ESRCH) {
			return
		}
	}

	_ = unix.Kill(pid, sig)
}

// waitExitStatus reaps the child and maps its termination to an ExitStatus.
func waitExitStatus(cmd *exec.Cmd) ExitStatus {
	err := cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitStatus{Code: exitErr.ExitCode(), Signal: ws.Signal().String()}
		}

		return ExitStatus{Code: exitErr.ExitCode()}
	}

	// Wait failed for a non-exit reason (extremely rare); report failure.
	return ExitStatus{Code: -1}
}
