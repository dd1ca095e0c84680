package orchestrator

import (
	"path/filepath"

	"github.com/ouzel-dev/ouzel/internal/artifact"
	"github.com/ouzel-dev/ouzel/internal/project"
)

// DeriveCompleted re-derives the completed-step set purely from artifact
// presence in dir. The files on disk outlive crashes and manual edits, so
// this is the authoritative view; the persisted completedSteps set is a
// cache of it.
func (p *Plan) DeriveCompleted(dir string) []int {
	var done []int
	for i, step := range p.Steps {
		if artifact.Exists(filepath.Join(dir, step.DoneFile)) {
			done = append(done, i)
		}
	}
	return done
}

// Reconcile overwrites the record's completed set with the file-derived
// one, reporting whether the record changed. A step's persisted success is
// dropped when its artifact has gone missing; the user gets the step back
// instead of a later step failing on the absent file.
func (p *Plan) Reconcile(dir string, rec *project.Record) bool {
	derived := p.DeriveCompleted(dir)
	if equalIntSets(derived, rec.CompletedSteps) {
		return false
	}
	rec.CompletedSteps = derived
	return true
}

func equalIntSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}
