package orchestrator

import (
	"fmt"

	"github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/project"
)

// Canonical artifact names the plans produce and consume.
const (
	BlockPre      = "shcblock_pre.bin"
	BlockPost     = "shcblock_post.bin"
	BlockPTE      = "pteblock.bin"
	BlockUnteth   = "shcblock_unteth.bin"
	MarkerRestore = "restore_done"
	MarkerBoot    = "boot_done"
)

// Filename patterns for the image artifacts the boot steps consume.
const (
	PatternIBoot     = "*iBoot*.img4"
	PatternSignedSEP = "*signed-SEP.img4"
	PatternTargetSEP = "*target-SEP.im4p"
)

// Plan is the fixed ordered step sequence for one (chipset, mode) pair.
type Plan struct {
	Chipset project.Chipset
	Mode    project.Mode
	Steps   []Step
}

// Key returns the display name of the plan's (chipset, mode) pair.
func (p *Plan) Key() string {
	return fmt.Sprintf("%s %s", p.Chipset, p.Mode)
}

// PlanFor selects the step sequence for a chipset and mode.
func PlanFor(chipset project.Chipset, mode project.Mode) (*Plan, error) {
	var steps []Step

	switch {
	case chipset == project.ChipsetA9 && mode == project.ModeTethered:
		steps = a9TetheredSteps
	case chipset == project.ChipsetA10 && mode == project.ModeTethered:
		steps = a10TetheredSteps
	case chipset == project.ChipsetA9 && mode == project.ModeUntethered:
		steps = a9UntetheredSteps
	case chipset == project.ChipsetA10 && mode == project.ModeUntethered:
		steps = a10UntetheredSteps
	case chipset != project.ChipsetA9 && chipset != project.ChipsetA10:
		return nil, errors.InvalidChipset(string(chipset))
	default:
		return nil, errors.InvalidMode(string(mode))
	}

	return &Plan{Chipset: chipset, Mode: mode, Steps: steps}, nil
}

// A9 tethered needs the full block dance: a pre-restore block feeds the
// restore, a post-restore block plus a signed SEP image derive the pte
// block, and the pte block boots the device.
var a9TetheredSteps = []Step{
	{
		Label: "Get SHC (pre)",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-D")}},
			{Tool: ToolRestore, Args: []Arg{lit("--get-shcblock"), firmware{}}},
		},
		Post:     []PostAction{resolveBlock{canonical: BlockPre}},
		DoneFile: BlockPre,
	},
	{
		Label: "Restore Device",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-D")}},
			{Tool: ToolRestore, Args: []Arg{lit("-o"), lit("--load-shcblock"), file(BlockPre), firmware{}}},
		},
		Post:     []PostAction{touchMarker(MarkerRestore)},
		DoneFile: MarkerRestore,
	},
	{
		Label: "Get SHC (post)",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-g")}},
		},
		Post:     []PostAction{resolveBlock{canonical: BlockPost, excludes: []string{BlockPre, BlockPost}}},
		DoneFile: BlockPost,
	},
	{
		Label: "Get pteblock",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-g"), lit("-i"), glob(PatternSignedSEP), lit("-C"), file(BlockPost)}},
		},
		Post:     []PostAction{resolveBlock{canonical: BlockPTE, excludes: []string{BlockPre, BlockPost, BlockPTE}}},
		DoneFile: BlockPTE,
	},
	{
		Label: "Boot Device",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-TP"), file(BlockPTE)}},
		},
		Post:     []PostAction{touchMarker(MarkerBoot)},
		DoneFile: MarkerBoot,
	},
}

var a10TetheredSteps = []Step{
	{
		Label: "Restore Device",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-D")}},
			{Tool: ToolRestore, Args: []Arg{lit("-o"), firmware{}}},
		},
		Post:     []PostAction{touchMarker(MarkerRestore)},
		DoneFile: MarkerRestore,
	},
	{
		Label: "Boot Device",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{
				lit("-t"), glob(PatternIBoot),
				lit("-i"), glob(PatternSignedSEP),
				lit("-p"), glob(PatternTargetSEP),
			}},
		},
		Post:     []PostAction{touchMarker(MarkerBoot)},
		DoneFile: MarkerBoot,
	},
}

var a9UntetheredSteps = []Step{
	{
		Label: "Get SHC Block",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-D")}},
			{Tool: ToolRestore, Args: []Arg{lit("--get-shcblock"), firmware{}}},
		},
		Post:     []PostAction{resolveBlock{canonical: BlockUnteth}},
		DoneFile: BlockUnteth,
	},
	{
		Label: "Untethered Restore",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-Db"), generator{}}},
			{Tool: ToolRestore, Args: []Arg{
				lit("-w"),
				lit("--load-shsh"), ticket{},
				lit("--load-shcblock"), file(BlockUnteth),
				firmware{},
			}},
		},
		Post:     []PostAction{touchMarker(MarkerRestore)},
		DoneFile: MarkerRestore,
	},
}

var a10UntetheredSteps = []Step{
	{
		Label: "Untethered Restore",
		Chain: []Invocation{
			{Tool: ToolDFU, Args: []Arg{lit("-Db"), generator{}}},
			{Tool: ToolRestore, Args: []Arg{lit("-w"), lit("--load-shsh"), ticket{}, firmware{}}},
		},
		Post:     []PostAction{touchMarker(MarkerRestore)},
		DoneFile: MarkerRestore,
	},
}
