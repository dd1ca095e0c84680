package orchestrator

import (
	"context"
	stderrors "errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ouzel-dev/ouzel/internal/artifact"
	"github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/observability"
	"github.com/ouzel-dev/ouzel/internal/project"
	"github.com/ouzel-dev/ouzel/internal/runner"
)

// Status is the derived state of one step index.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ProcessRunner is the subprocess surface the executor needs. *runner.Runner
// satisfies it; tests substitute a scripted fake.
type ProcessRunner interface {
	Start(ctx context.Context, name string, args []string, workingDir string, extraEnv []string) (int, error)
	Wait(ctx context.Context) (runner.ExitStatus, error)
	Kill() error
}

// StepState is one step's derived status for display.
type StepState struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	Eligible bool   `json:"eligible"`
}

// Outcome reports how a step execution ended.
type Outcome struct {
	Index   int
	Label   string
	Success bool

	// Terminal marks the last step of the plan; on success the workflow
	// is finished.
	Terminal bool

	// FailedAt is the chain position of the failing invocation, -1 when
	// the chain completed. Status carries that invocation's exit.
	FailedAt int
	Status   runner.ExitStatus

	// PersistErr is set when the step succeeded but the completed set
	// could not be written back. The success stands; the next load
	// re-derives it from the artifacts.
	PersistErr error
}

// Orchestrator drives one project's step plan. Not safe for concurrent
// use; the workflow is single-device, single-step by construction.
type Orchestrator struct {
	dir    string
	plan   *Plan
	record *project.Record
	runner ProcessRunner

	running int
	failed  map[int]bool
}

// New builds an orchestrator for a loaded project record. The persisted
// completed set is reconciled against the files on disk; a stale cache is
// rewritten best-effort.
func New(dir string, rec *project.Record, run ProcessRunner) (*Orchestrator, error) {
	plan, err := PlanFor(rec.Chipset, rec.Mode)
	if err != nil {
		return nil, err
	}

	if plan.Reconcile(dir, rec) {
		if err := project.Save(dir, *rec); err != nil {
			slog.Default().Warn(
				"completed-step cache not refreshed",
				slog.String("component", "orchestrator"),
				slog.Any("error", err),
			)
		}
	}

	return &Orchestrator{
		dir:     dir,
		plan:    plan,
		record:  rec,
		runner:  run,
		running: -1,
		failed:  make(map[int]bool),
	}, nil
}

// Plan returns the active step plan.
func (o *Orchestrator) Plan() *Plan {
	return o.plan
}

// Record returns the project record the orchestrator mutates.
func (o *Orchestrator) Record() *project.Record {
	return o.record
}

// Completed returns how many steps of the plan are done.
func (o *Orchestrator) Completed() int {
	n := 0
	for i := range o.plan.Steps {
		if o.record.HasCompleted(i) {
			n++
		}
	}
	return n
}

// Ready reports whether the project record satisfies the plan's base
// requirements: a firmware image, plus ticket and generator when
// untethered.
func (o *Orchestrator) Ready() error {
	if o.record.Firmware == "" {
		return errors.FirmwareRequired()
	}
	if o.plan.Mode == project.ModeUntethered && (o.record.Ticket == "" || !o.record.HasGenerator()) {
		return errors.TicketRequired()
	}
	return nil
}

// Eligible reports whether step index may run now: base requirements met
// and every earlier step completed.
func (o *Orchestrator) Eligible(index int) bool {
	if index < 0 || index >= len(o.plan.Steps) || o.Ready() != nil {
		return false
	}
	for j := 0; j < index; j++ {
		if !o.record.HasCompleted(j) {
			return false
		}
	}
	return true
}

// Next returns the lowest incomplete step index and whether it is
// eligible to run. index is -1 when every step is complete.
func (o *Orchestrator) Next() (index int, eligible bool) {
	for i := range o.plan.Steps {
		if !o.record.HasCompleted(i) {
			return i, o.Eligible(i)
		}
	}
	return -1, false
}

// States returns the derived status of every step in plan order.
func (o *Orchestrator) States() []StepState {
	states := make([]StepState, len(o.plan.Steps))
	for i, step := range o.plan.Steps {
		status := StatusPending
		switch {
		case o.record.HasCompleted(i):
			status = StatusSuccess
		case i == o.running:
			status = StatusRunning
		case o.failed[i]:
			status = StatusFailed
		}
		states[i] = StepState{
			Index:    i,
			Label:    step.Label,
			Status:   status.String(),
			Eligible: o.Eligible(i),
		}
	}
	return states
}

// Execute runs step index: the invocation chain in strict sequence, then
// post-actions on success, then temporary-directory consolidation
// regardless of outcome. On success the index joins the completed set and
// the record is persisted. A returned error means the step never started
// (ineligible, missing prerequisite, tool not found); chain and
// post-action failures come back as a non-success Outcome instead.
func (o *Orchestrator) Execute(ctx context.Context, index int) (*Outcome, error) {
	if !o.Eligible(index) || o.record.HasCompleted(index) {
		if err := o.Ready(); err != nil && index >= 0 && index < len(o.plan.Steps) {
			return nil, err
		}
		return nil, errors.StepNotEligible(index)
	}

	step := &o.plan.Steps[index]
	env := &stepEnv{dir: o.dir, record: o.record}

	argvs, err := step.resolveChain(env)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer("orchestrator").Start(ctx, "step.execute", trace.WithAttributes(
		attribute.String("plan", o.plan.Key()),
		attribute.Int("step.index", index),
		attribute.String("step.label", step.Label),
	))
	defer span.End()

	log := observability.FromContext(ctx)
	log.Info(
		"step started",
		slog.String("component", "orchestrator"),
		slog.Int("step.index", index),
		slog.String("step.label", step.Label),
	)

	o.running = index
	defer func() { o.running = -1 }()

	out := &Outcome{
		Index:    index,
		Label:    step.Label,
		Success:  true,
		Terminal: index == len(o.plan.Steps)-1,
		FailedAt: -1,
	}

	for k := range step.Chain {
		status, err := o.invoke(ctx, step.Chain[k].Tool, argvs[k])
		if err != nil {
			o.failed[index] = true
			artifact.Consolidate(o.dir)
			return nil, err
		}
		if !status.Success() {
			log.Warn(
				"invocation failed",
				slog.String("component", "orchestrator"),
				slog.String("tool.name", step.Chain[k].Tool),
				slog.String("tool.status", status.String()),
			)
			out.Success = false
			out.FailedAt = k
			out.Status = status
			break
		}
	}

	if out.Success {
		for _, post := range step.Post {
			if err := post.apply(env); err != nil {
				log.Warn(
					"post-action failed",
					slog.String("component", "orchestrator"),
					slog.Any("error", err),
				)
				out.Success = false
				break
			}
		}
	}

	artifact.Consolidate(o.dir)

	if !out.Success {
		o.failed[index] = true
		return out, nil
	}

	delete(o.failed, index)
	o.record.CompletedSteps = append(o.record.CompletedSteps, index)
	if err := project.Save(o.dir, *o.record); err != nil {
		out.PersistErr = err
		log.Warn(
			"completed set not persisted",
			slog.String("component", "orchestrator"),
			slog.Any("error", err),
		)
	}

	log.Info(
		"step succeeded",
		slog.String("component", "orchestrator"),
		slog.Int("step.index", index),
		slog.String("step.label", step.Label),
	)

	return out, nil
}

// invoke runs one tool to completion. A context cancellation kills the
// in-flight process before returning.
func (o *Orchestrator) invoke(ctx context.Context, tool string, argv []string) (runner.ExitStatus, error) {
	ctx, span := observability.Tracer("orchestrator").Start(ctx, "tool.invoke", trace.WithAttributes(
		attribute.String("tool.name", tool),
	))
	defer span.End()

	if _, err := o.runner.Start(ctx, tool, argv, o.dir, nil); err != nil {
		var notFound *runner.NotFoundError
		if stderrors.As(err, &notFound) {
			return runner.ExitStatus{}, errors.ToolNotFound(tool)
		}
		return runner.ExitStatus{}, errors.Wrap(errors.ExitExecution, "Failed to start "+tool, err)
	}

	status, err := o.runner.Wait(ctx)
	if err != nil {
		_ = o.runner.Kill()
		return runner.ExitStatus{}, errors.Wrap(errors.ExitExecution, "Interrupted while waiting for "+tool, err)
	}

	return status, nil
}
