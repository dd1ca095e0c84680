package main

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ouzel-dev/ouzel/cmd/ouzel/ui"
	"github.com/ouzel-dev/ouzel/internal/ansi"
	"github.com/ouzel-dev/ouzel/internal/config"
	clierrors "github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/orchestrator"
	"github.com/ouzel-dev/ouzel/internal/output"
	"github.com/ouzel-dev/ouzel/internal/prompt"
	"github.com/ouzel-dev/ouzel/internal/runner"
)

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "List and run workflow steps",
		Long:  `Inspect the step plan for the project's chipset and mode, and run steps.`,
	}

	cmd.AddCommand(newStepListCmd())
	cmd.AddCommand(newStepRunCmd())

	return cmd
}

// stepList is the JSON shape of 'step list'.
type stepList struct {
	Plan      string                   `json:"plan"`
	Steps     []orchestrator.StepState `json:"steps"`
	Completed int                      `json:"completed"`
	Next      int                      `json:"next"` // -1 when finished
}

func newStepListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "Show the step plan and per-step status",
		Long: `Display the ordered steps for the project's (chipset, mode) pair with
each step's derived status and which step runs next.`,
		Example: `  ouzel step list
  ouzel step list ~/restores/ipad-mini --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			dir, err := resolveProjectDir(args, 0)
			if err != nil {
				return err
			}

			rec, err := loadProject(dir, cfg)
			if err != nil {
				return err
			}

			o, err := orchestrator.New(dir, rec, nil)
			if err != nil {
				return err
			}

			if out.JSON {
				next, _ := o.Next()
				return out.PrintJSON(stepList{
					Plan:      o.Plan().Key(),
					Steps:     o.States(),
					Completed: o.Completed(),
					Next:      next,
				})
			}

			out.Print("%s\n\n", ui.Bold(o.Plan().Key()))
			printStepStates(out, o)

			if err := o.Ready(); err != nil {
				out.Println()
				var cliErr *clierrors.CLIError
				if clierrors.As(err, &cliErr) {
					out.Warning("%s", cliErr.Message)
					out.Muted("  %s", cliErr.Hint)
				}
			}

			return nil
		},
	}
}

// printStepStates renders the plan's step rows with status glyphs and a
// progress summary.
func printStepStates(out *output.Writer, o *orchestrator.Orchestrator) {
	next, _ := o.Next()

	for _, state := range o.States() {
		glyph := ui.StepGlyph(state.Status, state.Index == next)
		label := state.Label
		if state.Index == next && state.Eligible {
			label = ui.Bold(label)
		}
		out.Print("  %s %d. %s\n", glyph, state.Index+1, label)
	}

	out.Println()
	out.Print("  %s\n", ui.Progress(o.Completed(), len(o.Plan().Steps)))
}

func newStepRunCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "run [index] [dir]",
		Short: "Run the next eligible step (or a specific one)",
		Long: `Run workflow steps, streaming the tools' output. Without an index the
next eligible step runs, and on success you are prompted to continue
with the following step after re-entering DFU mode. A numeric index
(1-based) runs exactly that step.

The device must be in DFU mode before every step.`,
		Example: `  ouzel step run
  ouzel step run --yes
  ouzel step run 3 ~/restores/ipad-mini`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			// A leading integer argument selects a single step. It is
			// range-checked against the plan once the plan is known.
			explicit := -1
			indexArg := ""
			rest := args
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					explicit = n - 1
					indexArg = args[0]
					rest = args[1:]
				}
			}

			dir, err := resolveProjectDir(rest, 0)
			if err != nil {
				return err
			}

			rec, err := loadProject(dir, cfg)
			if err != nil {
				return err
			}

			var spin *output.Spinner
			var spinOnce sync.Once

			run := runner.New(runner.Options{
				ToolsDir: cfg.ToolsDir(),
				OnOutput: func(chunk []byte) {
					spinOnce.Do(func() {
						if spin != nil {
							spin.Stop()
						}
					})
					if !out.Terminal().ColorEnabled() {
						chunk = []byte(ansi.Strip(string(chunk)))
					}
					_, _ = out.Write(chunk)
				},
			})

			o, err := orchestrator.New(dir, rec, run)
			if err != nil {
				return err
			}

			if indexArg != "" && (explicit < 0 || explicit >= len(o.Plan().Steps)) {
				return clierrors.InvalidStepIndex(indexArg, len(o.Plan().Steps))
			}

			// One reader owns stdin: lines typed while a tool runs are
			// forwarded to it (the tools pause for confirmation
			// keystrokes), lines typed between steps answer our prompts.
			router := newStdinRouter(run)
			if !out.NoInput {
				go router.loop(os.Stdin)
			}

			prompter := prompt.NewWithReader(out, router)

			for {
				index := explicit
				if index < 0 {
					next, eligible := o.Next()
					if next == -1 {
						out.Success("All steps complete")
						return nil
					}
					if !eligible {
						if err := o.Ready(); err != nil {
							return err
						}
						return clierrors.StepNotEligible(next)
					}
					index = next
				}

				label := o.Plan().Steps[index].Label
				out.Info("Step %d/%d: %s", index+1, len(o.Plan().Steps), label)
				out.Muted("  Device must be in DFU mode")

				spin = out.Spinner("Waiting for " + orchestrator.ToolDFU)
				spinOnce = sync.Once{}
				spin.Start()

				outcome, err := o.Execute(cmd.Context(), index)

				spinOnce.Do(func() { spin.Stop() })

				if err != nil {
					return err
				}

				if outcome.PersistErr != nil {
					out.Warning("Step succeeded but progress was not saved: %v", outcome.PersistErr)
				}

				if !outcome.Success {
					out.Failure("Step failed: %s (%s)", label, outcome.Status.String())

					if explicit < 0 && !yes && prompter.CanPrompt() {
						retry, perr := prompter.Confirm("Re-enter DFU mode and retry?", true)
						if perr == nil && retry {
							continue
						}
					}

					return clierrors.StepFailed(label)
				}

				out.Success("Step complete: %s", label)

				if outcome.Terminal {
					out.Println()
					out.Success("All steps complete")
					return nil
				}

				if explicit >= 0 {
					return nil
				}

				next, eligible := o.Next()
				if next == -1 || !eligible {
					return nil
				}

				if !yes {
					if !prompter.CanPrompt() {
						out.Muted("  Next: ouzel step run")
						return nil
					}
					proceed, perr := prompter.Confirm("Re-enter DFU mode and run '"+o.Plan().Steps[next].Label+"'?", true)
					if perr != nil || !proceed {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Run through remaining steps without prompting")

	return cmd
}

// stdinRouter splits stdin between the active subprocess and the
// between-steps prompts. It implements io.Reader for the prompter side.
type stdinRouter struct {
	run   *runner.Runner
	lines chan string
	buf   []byte
}

func newStdinRouter(run *runner.Runner) *stdinRouter {
	return &stdinRouter{
		run:   run,
		lines: make(chan string),
	}
}

// loop reads input lines; while a subprocess is running they are written
// to it, otherwise they are queued for the prompter.
func (r *stdinRouter) loop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if r.run.Running() {
			_ = r.run.Write([]byte(line + "\n"))
			continue
		}
		r.lines <- line
	}
	close(r.lines)
}

func (r *stdinRouter) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		line, ok := <-r.lines
		if !ok {
			return 0, io.EOF
		}
		r.buf = append([]byte(line), '\n')
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
