// Package runner executes the external restore tools as subprocesses.
//
// A Runner owns a single subprocess slot: at most one tool runs at a time,
// mirroring the one-device-per-workflow constraint. Output from the child
// (stdout and stderr merged) is streamed through the OnOutput callback, and
// exactly one OnExit callback fires per started process.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	// ErrAlreadyRunning is returned by Start while a subprocess is active.
	ErrAlreadyRunning = errors.New("a subprocess is already running")

	// ErrNotRunning is returned by Write and Wait when the slot is empty.
	ErrNotRunning = errors.New("no subprocess is running")
)

// NotFoundError indicates an executable could not be resolved.
type NotFoundError struct {
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found (searched: %s)", e.Name, strings.Join(e.Searched, ", "))
}

// ExitStatus describes how a subprocess terminated.
type ExitStatus struct {
	Code   int
	Signal string
}

// Success reports whether the process exited cleanly with code 0.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return fmt.Sprintf("signal %s", s.Signal)
	}

	return fmt.Sprintf("exit code %d", s.Code)
}

// Options configures a Runner.
type Options struct {
	// ToolsDir is the highest-priority executable search directory
	// (the packaged resources directory).
	ToolsDir string

	// OnStart is called once per started subprocess with its pid and argv.
	OnStart func(pid int, argv []string)

	// OnOutput receives raw merged stdout/stderr chunks.
	OnOutput func(chunk []byte)

	// OnExit is called exactly once when the subprocess terminates.
	OnExit func(status ExitStatus)
}

// Runner starts and supervises one external tool at a time.
type Runner struct {
	opts Options

	mu   sync.Mutex
	proc *process // active slot
	last *process // most recently started, for Wait after Kill
}

// process is the active subprocess handle. The reaper goroutine fills
// status and closes done exactly once.
type process struct {
	pid        int
	stdin      io.Writer
	output     io.Reader
	waitStatus func() ExitStatus
	kill       func()
	done       chan struct{}
	status     ExitStatus
}

// stream copies merged output chunks to onOutput until the child closes
// its side, then collects the exit status. PTY reads end with EIO on most
// platforms; any read error is treated as end of stream.
func (p *process) stream(onOutput func([]byte)) ExitStatus {
	buf := make([]byte, 4096)

	for {
		n, err := p.output.Read(buf)
		if n > 0 && onOutput != nil {
			onOutput(buf[:n])
		}

		if err != nil {
			break
		}
	}

	return p.waitStatus()
}

// New creates a Runner.
func New(opts Options) *Runner {
	return &Runner{opts: opts}
}

// Running reports whether the subprocess slot is occupied.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.proc != nil
}

// Start resolves name against the tool search path and spawns it with the
// given arguments and working directory. extraEnv entries (KEY=VALUE) are
// appended to the inherited environment. Returns the child pid.
func (r *Runner) Start(ctx context.Context, name string, args []string, workingDir string, extraEnv []string) (int, error) {
	path, err := ResolveExecutable(name, r.opts.ToolsDir)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	if r.proc != nil {
		r.mu.Unlock()
		return 0, ErrAlreadyRunning
	}

	env := append(os.Environ(), extraEnv...)

	proc, err := startProcess(ctx, path, args, workingDir, env)
	if err != nil {
		r.mu.Unlock()
		return 0, fmt.Errorf("spawn %s: %w", name, err)
	}

	r.proc = proc
	r.last = proc
	r.mu.Unlock()

	slog.Default().Debug(
		"subprocess started",
		slog.String("component", "runner"),
		slog.String("tool.path", path),
		slog.Any("tool.args", args),
		slog.Int("tool.pid", proc.pid),
	)

	if r.opts.OnStart != nil {
		r.opts.OnStart(proc.pid, append([]string{path}, args...))
	}

	go r.reap(proc)

	return proc.pid, nil
}

// reap streams output until EOF, records the exit status, and clears the
// slot if it still holds this process. The slot is cleared before done is
// closed so a caller unblocked from Wait can Start the next tool at once.
func (r *Runner) reap(p *process) {
	p.status = p.stream(r.opts.OnOutput)

	r.mu.Lock()
	if r.proc == p {
		r.proc = nil
	}
	r.mu.Unlock()

	close(p.done)

	slog.Default().Debug(
		"subprocess exited",
		slog.String("component", "runner"),
		slog.Int("tool.pid", p.pid),
		slog.String("tool.status", p.status.String()),
	)

	if r.opts.OnExit != nil {
		r.opts.OnExit(p.status)
	}
}

// Write forwards bytes to the active subprocess's input stream. The restore
// tools pause for confirmation keystrokes at destructive points.
func (r *Runner) Write(p []byte) error {
	r.mu.Lock()
	proc := r.proc
	r.mu.Unlock()

	if proc == nil {
		return ErrNotRunning
	}

	if _, err := proc.stdin.Write(p); err != nil {
		return fmt.Errorf("write to subprocess: %w", err)
	}

	return nil
}

// Kill requests termination of the active subprocess and clears the slot
// immediately, without waiting for exit confirmation. Idempotent when
// nothing is running.
func (r *Runner) Kill() error {
	r.mu.Lock()
	proc := r.proc
	r.proc = nil
	r.mu.Unlock()

	if proc == nil {
		return nil
	}

	proc.kill()

	return nil
}

// Wait blocks until the most recently started subprocess exits or ctx is
// done. It returns the exit status even if Kill cleared the slot first.
func (r *Runner) Wait(ctx context.Context) (ExitStatus, error) {
	r.mu.Lock()
	proc := r.last
	r.mu.Unlock()

	if proc == nil {
		return ExitStatus{}, ErrNotRunning
	}

	return proc.wait(ctx)
}

func (p *process) wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-p.done:
		return p.status, nil
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}
