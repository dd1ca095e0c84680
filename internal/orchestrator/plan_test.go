package orchestrator

import (
	"testing"

	"github.com/ouzel-dev/ouzel/internal/project"
)

func TestPlanFor_StepCounts(t *testing.T) {
	tests := []struct {
		chipset project.Chipset
		mode    project.Mode
		want    int
	}{
		{project.ChipsetA9, project.ModeTethered, 5},
		{project.ChipsetA10, project.ModeTethered, 2},
		{project.ChipsetA9, project.ModeUntethered, 2},
		{project.ChipsetA10, project.ModeUntethered, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.chipset)+" "+string(tt.mode), func(t *testing.T) {
			plan, err := PlanFor(tt.chipset, tt.mode)
			if err != nil {
				t.Fatalf("PlanFor: %v", err)
			}
			if len(plan.Steps) != tt.want {
				t.Errorf("len(Steps) = %d, want %d", len(plan.Steps), tt.want)
			}
		})
	}
}

func TestPlanFor_Invalid(t *testing.T) {
	if _, err := PlanFor("A11", project.ModeTethered); err == nil {
		t.Error("PlanFor(A11) succeeded, want error")
	}
	if _, err := PlanFor(project.ChipsetA9, "wireless"); err == nil {
		t.Error("PlanFor(wireless) succeeded, want error")
	}
	if _, err := PlanFor("", ""); err == nil {
		t.Error("PlanFor empty pair succeeded, want error")
	}
}

func TestPlan_EveryStepHasChainAndDoneFile(t *testing.T) {
	for _, chipset := range []project.Chipset{project.ChipsetA9, project.ChipsetA10} {
		for _, mode := range []project.Mode{project.ModeTethered, project.ModeUntethered} {
			plan, err := PlanFor(chipset, mode)
			if err != nil {
				t.Fatalf("PlanFor(%s, %s): %v", chipset, mode, err)
			}
			for i, step := range plan.Steps {
				if step.Label == "" || len(step.Chain) == 0 || step.DoneFile == "" {
					t.Errorf("%s step %d is incomplete: %+v", plan.Key(), i, step)
				}
			}
		}
	}
}

// Step i must be ineligible whenever any earlier step is incomplete, for
// every plan.
func TestEligibility_StrictLinearDependency(t *testing.T) {
	for _, chipset := range []project.Chipset{project.ChipsetA9, project.ChipsetA10} {
		for _, mode := range []project.Mode{project.ModeTethered, project.ModeUntethered} {
			rec := &project.Record{
				Firmware:  "/fw/test.ipsw",
				Ticket:    "/tickets/test.shsh2",
				Generator: "0x1111222233334444",
				Chipset:   chipset,
				Mode:      mode,
			}
			o, err := New(t.TempDir(), rec, nil)
			if err != nil {
				t.Fatalf("New(%s, %s): %v", chipset, mode, err)
			}

			for i := 1; i < len(o.Plan().Steps); i++ {
				for skip := 0; skip < i; skip++ {
					rec.CompletedSteps = nil
					for j := 0; j < i; j++ {
						if j != skip {
							rec.CompletedSteps = append(rec.CompletedSteps, j)
						}
					}
					if o.Eligible(i) {
						t.Errorf("%s: step %d eligible with step %d incomplete", o.Plan().Key(), i, skip)
					}
				}
			}
		}
	}
}
