package main

import (
	"github.com/spf13/cobra"

	"github.com/ouzel-dev/ouzel/internal/config"
	"github.com/ouzel-dev/ouzel/internal/doctor"
	"github.com/ouzel-dev/ouzel/internal/output"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify environment issues.

Checks performed:
  - DFU handler (turdusra1n) availability
  - Restore engine (turdus_merula) availability
  - Config and log directory writability`,
		Example: `  ouzel doctor`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			out.Println("Ouzel Doctor")
			out.Println("============")
			out.Println()

			runner := doctor.New(config.Load())
			results := runner.Run(cmd.Context())

			doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

			passed, failed, warnings := doctor.Summary(results)
			out.Println()
			out.Print("%d passed", passed)
			if failed > 0 {
				out.Print(", %d failed", failed)
			}
			if warnings > 0 {
				out.Print(", %d warning(s)", warnings)
			}
			out.Println()

			return nil
		},
	}
}
