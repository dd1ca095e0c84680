package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ouzel-dev/ouzel/cmd/ouzel/ui"
	"github.com/ouzel-dev/ouzel/internal/artifact"
	"github.com/ouzel-dev/ouzel/internal/config"
	clierrors "github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/orchestrator"
	"github.com/ouzel-dev/ouzel/internal/output"
	"github.com/ouzel-dev/ouzel/internal/project"
	"github.com/ouzel-dev/ouzel/internal/shsh"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage restore projects",
		Long:  `Create and inspect project directories, and set their configuration fields.`,
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectInfoCmd())
	cmd.AddCommand(newProjectSetCmd())

	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		baseDir string
		chipset string
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new project directory",
		Long: `Create a project directory with its temporary subdirectories and an
initial configuration record. Without a name, one is generated from the
chipset, mode, and current time (A10_Tethered_20260830_142501). If the
name is taken, a numeric suffix is appended (-1, -2, ...).`,
		Example: `  ouzel project create ipad-mini
  ouzel project create --chipset A9 --mode untethered`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			parsedChipset, err := project.ParseChipset(pickFlagOrEnv(chipset, "OUZEL_CHIPSET", cfg.DefaultProjectChipset()))
			if err != nil {
				return err
			}
			parsedMode, err := project.ParseMode(pickFlagOrEnv(mode, "OUZEL_MODE", cfg.DefaultProjectMode()))
			if err != nil {
				return err
			}

			base := baseDir
			if base == "" {
				base = "."
			}

			name := project.DefaultName(parsedChipset, parsedMode, time.Now())
			if len(args) > 0 {
				name = args[0]
			}

			dir, err := project.Create(base, name, project.Record{
				Chipset: parsedChipset,
				Mode:    parsedMode,
			})
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(map[string]string{
					"dir":     dir,
					"chipset": string(parsedChipset),
					"mode":    string(parsedMode),
				})
			}

			out.Success("Created project %s (%s %s)", dir, parsedChipset, parsedMode)
			out.Muted("  Next: ouzel project set firmware <path.ipsw> %s", dir)

			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Parent directory for the project (default: current directory)")
	cmd.Flags().StringVar(&chipset, "chipset", "", "Device chipset: A9 or A10")
	cmd.Flags().StringVar(&mode, "mode", "", "Restore mode: tethered or untethered")

	return cmd
}

// projectInfo is the JSON shape of 'project info'.
type projectInfo struct {
	Dir       string                   `json:"dir"`
	Firmware  string                   `json:"firmware,omitempty"`
	Ticket    string                   `json:"ticket,omitempty"`
	Generator string                   `json:"generator,omitempty"`
	Chipset   string                   `json:"chipset"`
	Mode      string                   `json:"mode"`
	Steps     []orchestrator.StepState `json:"steps"`
	Artifacts []string                 `json:"artifacts"`
}

func newProjectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [dir]",
		Short: "Show project configuration and progress",
		Long:  `Display the project record, its artifact files, and per-step status.`,
		Example: `  ouzel project info
  ouzel project info ~/restores/ipad-mini --json`,
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

			artifacts, err := artifact.List(dir)
			if err != nil {
				return clierrors.NoProject()
			}

			if out.JSON {
				return out.PrintJSON(projectInfo{
					Dir:       dir,
					Firmware:  rec.Firmware,
					Ticket:    rec.Ticket,
					Generator: rec.Generator,
					Chipset:   string(rec.Chipset),
					Mode:      string(rec.Mode),
					Steps:     o.States(),
					Artifacts: artifacts,
				})
			}

			out.Print("%s\n", ui.Bold(filepath.Base(dir)))
			out.Print("%s", ui.KeyValues("  ",
				ui.KV("chipset", string(rec.Chipset)),
				ui.KV("mode", string(rec.Mode)),
				ui.KV("firmware", valueOrUnset(rec.Firmware)),
				ui.KV("ticket", valueOrUnset(rec.Ticket)),
				ui.KV("generator", valueOrUnset(rec.Generator)),
			))

			out.Println()
			printStepStates(out, o)

			out.Println()
			out.Print("%s\n", ui.Muted("Artifacts:"))
			if len(artifacts) == 0 {
				out.Print("  %s\n", ui.Muted("(none)"))
			}
			for _, name := range artifacts {
				out.Print("  %s\n", name)
			}

			return nil
		},
	}
}

func valueOrUnset(v string) string {
	if v == "" {
		return ui.Muted("(not set)")
	}
	return v
}

func newProjectSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value> [dir]",
		Short: "Set a project configuration field",
		Long: `Set one field of the project record. Fields:

  firmware   Path to the firmware image (.ipsw)
  ticket     Path to the signing ticket (.shsh2); re-extracts the generator
  generator  Generator token (0x-prefixed 64-bit hex)
  chipset    A9 or A10
  mode       tethered or untethered

Changing chipset or mode switches the step plan; completion is re-derived
from the artifact files on the next load.`,
		Example: `  ouzel project set firmware ~/fw/iPhone_8.4_Restore.ipsw
  ouzel project set ticket ~/tickets/12H321.shsh2
  ouzel project set mode untethered ~/restores/ipad-mini`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			dir, err := resolveProjectDir(args, 2)
			if err != nil {
				return err
			}

			rec, err := project.Load(dir)
			if err != nil {
				return err
			}

			field, value := args[0], args[1]
			switch field {
			case "firmware":
				if !strings.EqualFold(filepath.Ext(value), ".ipsw") {
					return clierrors.New(clierrors.ExitUsage, "Firmware image must be an .ipsw file: "+value)
				}
				path, err := filepath.Abs(value)
				if err != nil || !artifact.Exists(path) {
					return clierrors.New(clierrors.ExitEnvironment, "Firmware image not found: "+value)
				}
				rec.Firmware = path
			case "ticket":
				if ext := strings.ToLower(filepath.Ext(value)); ext != ".shsh" && ext != ".shsh2" {
					return clierrors.New(clierrors.ExitUsage, "Signing ticket must be a .shsh or .shsh2 file: "+value)
				}
				path, err := filepath.Abs(value)
				if err != nil || !artifact.Exists(path) {
					return clierrors.New(clierrors.ExitEnvironment, "Signing ticket not found: "+value)
				}
				rec.SetTicket(path)
			case "generator":
				rec.Generator = value
			case "chipset":
				chipset, err := project.ParseChipset(value)
				if err != nil {
					return err
				}
				rec.Chipset = chipset
			case "mode":
				mode, err := project.ParseMode(value)
				if err != nil {
					return err
				}
				rec.Mode = mode
			default:
				return &clierrors.CLIError{
					Message: "Unknown project field: " + field,
					Hint:    "Fields: firmware, ticket, generator, chipset, mode",
					Code:    clierrors.ExitUsage,
				}
			}

			if err := project.Save(dir, rec); err != nil {
				return err
			}

			if field == "ticket" {
				if rec.Generator == shsh.Unknown {
					out.Warning("Ticket set, but no generator found in it")
					out.Muted("  Set one manually: ouzel project set generator 0x...")
				} else {
					out.Success("Set ticket = %s (generator %s)", rec.Ticket, rec.Generator)
				}
				return nil
			}

			out.Success("Set %s = %s", field, args[1])

			return nil
		},
	}
}
