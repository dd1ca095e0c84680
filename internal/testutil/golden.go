// Package testutil holds shared test helpers for the ouzel packages.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// Regenerate goldens with: go test ./... -update
var update = flag.Bool("update", false, "rewrite golden files with current output")

// AssertGolden compares got against testdata/<name>, failing with both
// versions on a mismatch. With -update the file is rewritten instead, so
// intentional rendering changes are a re-run away.
func AssertGolden(t *testing.T, got, name string) {
	t.Helper()

	path := filepath.Join("testdata", name)

	if *update {
		writeGolden(t, path, got)
		return
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("no golden file %s; run with -update to create it", path)
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	if got != string(want) {
		t.Errorf("output does not match %s\n\ngot:\n%s\nwant:\n%s", path, got, want)
	}
}

func writeGolden(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write golden file %s: %v", path, err)
	}

	t.Logf("rewrote %s", path)
}
