package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/project"
	"github.com/ouzel-dev/ouzel/internal/runner"
)

// fakeRunner scripts exit codes per invocation and records every call.
type fakeRunner struct {
	exits  []int
	calls  [][]string
	kills  int
	onWait func(call int)
}

func (f *fakeRunner) Start(_ context.Context, name string, args []string, _ string, _ []string) (int, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return 4242, nil
}

func (f *fakeRunner) Wait(context.Context) (runner.ExitStatus, error) {
	call := len(f.calls) - 1
	if f.onWait != nil {
		f.onWait(call)
	}
	code := 0
	if call < len(f.exits) {
		code = f.exits[call]
	}
	return runner.ExitStatus{Code: code}, nil
}

func (f *fakeRunner) Kill() error {
	f.kills++
	return nil
}

func tetheredRecord(chipset project.Chipset) *project.Record {
	return &project.Record{
		Firmware: "/fw/test.ipsw",
		Chipset:  chipset,
		Mode:     project.ModeTethered,
	}
}

func untetheredRecord(chipset project.Chipset) *project.Record {
	return &project.Record{
		Firmware:  "/fw/test.ipsw",
		Ticket:    "/tickets/test.shsh2",
		Generator: "0xbd34a880be0b53f3",
		Chipset:   chipset,
		Mode:      project.ModeUntethered,
	}
}

func touchFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

// Empty A10 tethered project with firmware set: restore eligible, boot
// blocked until restore completes.
func TestNext_EmptyA10Tethered(t *testing.T) {
	o, err := New(t.TempDir(), tetheredRecord(project.ChipsetA10), nil)
	if err != nil {
		t.Fatal(err)
	}

	if !o.Eligible(0) {
		t.Error("step 0 should be eligible")
	}
	if o.Eligible(1) {
		t.Error("step 1 should be blocked behind step 0")
	}
	if index, eligible := o.Next(); index != 0 || !eligible {
		t.Errorf("Next() = (%d, %v), want (0, true)", index, eligible)
	}
}

// A pre-restore block already on disk satisfies A9 tethered step 0
// through file derivation, making step 1 the next eligible step.
func TestNew_DerivesCompletionFromFiles(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, dir, BlockPre)

	o, err := New(dir, tetheredRecord(project.ChipsetA9), nil)
	if err != nil {
		t.Fatal(err)
	}

	states := o.States()
	if states[0].Status != "success" {
		t.Errorf("step 0 status = %q, want success", states[0].Status)
	}
	if index, eligible := o.Next(); index != 1 || !eligible {
		t.Errorf("Next() = (%d, %v), want (1, true)", index, eligible)
	}
}

func TestNext_AllComplete(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, dir, MarkerRestore)
	touchFile(t, dir, MarkerBoot)

	o, err := New(dir, tetheredRecord(project.ChipsetA10), nil)
	if err != nil {
		t.Fatal(err)
	}

	if index, _ := o.Next(); index != -1 {
		t.Errorf("Next() index = %d, want -1 when finished", index)
	}
}

func TestReady_UntetheredNeedsTicketAndGenerator(t *testing.T) {
	rec := untetheredRecord(project.ChipsetA10)
	rec.Ticket = ""

	o, err := New(t.TempDir(), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Eligible(0) {
		t.Error("step 0 eligible without ticket")
	}

	rec.Ticket = "/tickets/test.shsh2"
	rec.Generator = "UNKNOWN"
	if o.Eligible(0) {
		t.Error("step 0 eligible with sentinel generator")
	}

	rec.Generator = "0xbd34a880be0b53f3"
	if !o.Eligible(0) {
		t.Error("step 0 should be eligible with ticket and generator")
	}
}

func TestExecute_Success(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeRunner{}

	o, err := New(dir, tetheredRecord(project.ChipsetA10), fake)
	if err != nil {
		t.Fatal(err)
	}

	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.Success {
		t.Fatalf("Execute outcome = %+v, want success", out)
	}
	if out.Terminal {
		t.Error("step 0 of 2 reported as terminal")
	}

	if len(fake.calls) != 2 {
		t.Fatalf("invocations = %d, want 2", len(fake.calls))
	}
	if fake.calls[0][0] != ToolDFU || fake.calls[1][0] != ToolRestore {
		t.Errorf("tools = %v", fake.calls)
	}

	if _, err := os.Stat(filepath.Join(dir, MarkerRestore)); err != nil {
		t.Error("restore marker not created")
	}

	// Completed set persisted.
	rec, err := project.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.HasCompleted(0) {
		t.Error("completed set not persisted")
	}
}

// Chain of two where the second exits nonzero: failure outcome, no
// success post-action, but consolidation still runs.
func TestExecute_ChainShortCircuits(t *testing.T) {
	dir := t.TempDir()
	strayDir := filepath.Join(dir, "block")
	if err := os.MkdirAll(strayDir, 0o755); err != nil {
		t.Fatal(err)
	}
	touchFile(t, strayDir, "stray.bin")

	fake := &fakeRunner{exits: []int{0, 1}}
	o, err := New(dir, tetheredRecord(project.ChipsetA10), fake)
	if err != nil {
		t.Fatal(err)
	}

	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Success {
		t.Fatal("outcome reports success for failed chain")
	}
	if out.FailedAt != 1 {
		t.Errorf("FailedAt = %d, want 1", out.FailedAt)
	}
	if out.Status.Code != 1 {
		t.Errorf("Status.Code = %d, want 1", out.Status.Code)
	}

	if _, err := os.Stat(filepath.Join(dir, MarkerRestore)); err == nil {
		t.Error("marker created despite chain failure")
	}

	// Consolidation ran regardless of outcome.
	if _, err := os.Stat(filepath.Join(dir, "stray.bin")); err != nil {
		t.Error("temporary subdirectory not consolidated after failure")
	}

	if states := o.States(); states[0].Status != "failed" {
		t.Errorf("step 0 status = %q, want failed", states[0].Status)
	}
}

func TestExecute_RetryAfterFailure(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeRunner{exits: []int{1}}

	o, err := New(dir, tetheredRecord(project.ChipsetA10), fake)
	if err != nil {
		t.Fatal(err)
	}

	if out, err := o.Execute(context.Background(), 0); err != nil || out.Success {
		t.Fatalf("first attempt: out=%+v err=%v", out, err)
	}

	// Exit codes beyond the script default to 0.
	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success {
		t.Error("retry did not succeed")
	}
	if states := o.States(); states[0].Status != "success" {
		t.Errorf("step 0 status = %q after retry, want success", states[0].Status)
	}
}

func TestExecute_ResolvesBlockArtifact(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeRunner{}
	fake.onWait = func(call int) {
		if call == 1 { // restore engine produced a raw block file
			touchFile(t, dir, "block_0x1800b0000.bin")
		}
	}

	o, err := New(dir, untetheredRecord(project.ChipsetA9), fake)
	if err != nil {
		t.Fatal(err)
	}

	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.Success {
		t.Fatalf("outcome = %+v, want success", out)
	}
	if _, err := os.Stat(filepath.Join(dir, BlockUnteth)); err != nil {
		t.Error("block not renamed to canonical name")
	}
}

// All exit codes zero but no block produced: resolution fails the step.
func TestExecute_ResolutionFailureFailsStep(t *testing.T) {
	fake := &fakeRunner{}
	o, err := New(t.TempDir(), untetheredRecord(project.ChipsetA9), fake)
	if err != nil {
		t.Fatal(err)
	}

	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Success {
		t.Error("step succeeded without its output artifact")
	}
}

func TestExecute_MissingPrerequisiteFileNeverStarts(t *testing.T) {
	fake := &fakeRunner{}

	// A9 untethered step 1 needs the untethered block from step 0.
	rec := untetheredRecord(project.ChipsetA9)
	rec.CompletedSteps = []int{0}
	dir := t.TempDir()
	touchFile(t, dir, BlockUnteth)

	o, err := New(dir, rec, fake)
	if err != nil {
		t.Fatal(err)
	}

	// Remove the block after reconciliation to hit chain resolution.
	if err := os.Remove(filepath.Join(dir, BlockUnteth)); err != nil {
		t.Fatal(err)
	}

	_, err = o.Execute(context.Background(), 1)
	var cliErr *errors.CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("Execute error = %v, want CLIError", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("chain started despite missing prerequisite: %v", fake.calls)
	}
}

func TestExecute_IneligibleStep(t *testing.T) {
	o, err := New(t.TempDir(), tetheredRecord(project.ChipsetA10), &fakeRunner{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := o.Execute(context.Background(), 1); err == nil {
		t.Error("Execute(1) succeeded with step 0 incomplete")
	}
	if _, err := o.Execute(context.Background(), 7); err == nil {
		t.Error("Execute(7) succeeded for out-of-range index")
	}
}

func TestExecute_CompletedStepRejected(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, dir, MarkerRestore)

	o, err := New(dir, tetheredRecord(project.ChipsetA10), &fakeRunner{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := o.Execute(context.Background(), 0); err == nil {
		t.Error("Execute re-ran a completed step")
	}
}

func TestExecute_TerminalStep(t *testing.T) {
	fake := &fakeRunner{}
	o, err := New(t.TempDir(), untetheredRecord(project.ChipsetA10), fake)
	if err != nil {
		t.Fatal(err)
	}

	out, err := o.Execute(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || !out.Terminal {
		t.Errorf("outcome = %+v, want terminal success", out)
	}

	wantFirst := []string{ToolDFU, "-Db", "0xbd34a880be0b53f3"}
	if len(fake.calls) != 2 {
		t.Fatalf("invocations = %d, want 2", len(fake.calls))
	}
	for i, arg := range wantFirst {
		if fake.calls[0][i] != arg {
			t.Errorf("first invocation = %v, want prefix %v", fake.calls[0], wantFirst)
			break
		}
	}
}
