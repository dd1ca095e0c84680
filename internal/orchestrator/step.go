// Package orchestrator implements the restore workflow state machine.
//
// Each (chipset, mode) pair selects a fixed ordered plan of steps. A step
// is data, not code: a label, a chain of tool invocations whose arguments
// are resolved against the project at execution time, post-actions that
// run on success, and the artifact filename whose presence marks the step
// complete. One generic executor interprets every plan.
package orchestrator

import (
	"path/filepath"
	"sort"

	"github.com/ouzel-dev/ouzel/internal/artifact"
	"github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/project"
)

// Tool names resolved through the runner's search path.
const (
	ToolDFU     = "turdusra1n"
	ToolRestore = "turdus_merula"
)

// stepEnv is the resolution context for one step execution.
type stepEnv struct {
	dir    string
	record *project.Record
}

// Arg is one argument of a tool invocation, resolved against the project
// directory and record when the step runs. A resolution failure means a
// prerequisite is missing and the chain must not start.
type Arg interface {
	resolve(env *stepEnv) (string, error)
}

// lit is a fixed argument, passed through verbatim.
type lit string

func (a lit) resolve(*stepEnv) (string, error) {
	return string(a), nil
}

// firmware resolves to the project's firmware image path.
type firmware struct{}

func (firmware) resolve(env *stepEnv) (string, error) {
	if env.record.Firmware == "" {
		return "", errors.FirmwareRequired()
	}
	return env.record.Firmware, nil
}

// ticket resolves to the project's signing-ticket path.
type ticket struct{}

func (ticket) resolve(env *stepEnv) (string, error) {
	if env.record.Ticket == "" {
		return "", errors.TicketRequired()
	}
	return env.record.Ticket, nil
}

// generator resolves to the ticket's generator token. The extraction
// sentinel counts as unset; passing it to the DFU handler would prepare
// the device with a nonce that cannot match the ticket.
type generator struct{}

func (generator) resolve(env *stepEnv) (string, error) {
	if !env.record.HasGenerator() {
		return "", errors.TicketRequired()
	}
	return env.record.Generator, nil
}

// file resolves to a fixed-name artifact inside the project directory,
// failing when the file is absent.
type file string

func (a file) resolve(env *stepEnv) (string, error) {
	path := filepath.Join(env.dir, string(a))
	if !artifact.Exists(path) {
		return "", errors.FileRequired(string(a))
	}
	return path, nil
}

// glob resolves to the first project-directory entry matching a filename
// pattern, in lexicographic order for determinism.
type glob string

func (a glob) resolve(env *stepEnv) (string, error) {
	matches, err := filepath.Glob(filepath.Join(env.dir, string(a)))
	if err != nil || len(matches) == 0 {
		return "", errors.FileRequired(string(a))
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Invocation is one tool run within a step's chain.
type Invocation struct {
	Tool string
	Args []Arg
}

// PostAction is a file side-effect applied after a step's chain succeeds.
type PostAction interface {
	apply(env *stepEnv) error
}

// touchMarker creates a zero-byte sentinel recording that an irreversible
// device action was issued.
type touchMarker string

func (a touchMarker) apply(env *stepEnv) error {
	return artifact.Touch(env.dir, string(a))
}

// resolveBlock renames the newest tool-produced block file to its
// canonical name so later steps can find it.
type resolveBlock struct {
	canonical string
	excludes  []string
}

func (a resolveBlock) apply(env *stepEnv) error {
	_, err := artifact.ResolveLatest(env.dir, a.canonical, a.excludes)
	return err
}

// Step is one entry of a plan.
type Step struct {
	// Label is the display name.
	Label string

	// Chain is the ordered tool invocations; invocation k+1 runs only
	// after invocation k exits 0.
	Chain []Invocation

	// Post runs after the chain succeeds. A post-action failure fails
	// the step even though every exit code was 0.
	Post []PostAction

	// DoneFile is the artifact whose presence marks this step complete.
	DoneFile string
}

// resolveChain resolves every argument of every invocation up front, so
// missing prerequisites surface before any tool is spawned.
func (s *Step) resolveChain(env *stepEnv) ([][]string, error) {
	resolved := make([][]string, len(s.Chain))
	for i, inv := range s.Chain {
		argv := make([]string, len(inv.Args))
		for j, arg := range inv.Args {
			value, err := arg.resolve(env)
			if err != nil {
				return nil, err
			}
			argv[j] = value
		}
		resolved[i] = argv
	}
	return resolved, nil
}
