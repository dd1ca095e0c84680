package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write executable: %v", err)
	}

	return path
}

func TestResolveExecutable_ToolsDirWins(t *testing.T) {
	toolsDir := t.TempDir()
	want := writeExecutable(t, toolsDir, "turdusra1n")

	got, err := ResolveExecutable("turdusra1n", toolsDir)
	if err != nil {
		t.Fatalf("ResolveExecutable() error = %v", err)
	}

	if got != want {
		t.Errorf("ResolveExecutable() = %q, want %q", got, want)
	}
}

func TestResolveExecutable_FallsBackToCwd(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "turdus_merula")

	t.Chdir(dir)

	got, err := ResolveExecutable("turdus_merula", "")
	if err != nil {
		t.Fatalf("ResolveExecutable() error = %v", err)
	}

	if got != want {
		t.Errorf("ResolveExecutable() = %q, want %q", got, want)
	}
}

func TestResolveExecutable_CwdBinSubdir(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	want := writeExecutable(t, binDir, "turdusra1n")

	t.Chdir(dir)

	got, err := ResolveExecutable("turdusra1n", "")
	if err != nil {
		t.Fatalf("ResolveExecutable() error = %v", err)
	}

	if got != want {
		t.Errorf("ResolveExecutable() = %q, want %q", got, want)
	}
}

func TestResolveExecutable_NotFound(t *testing.T) {
	empty := t.TempDir()
	t.Chdir(empty)

	_, err := ResolveExecutable("no-such-tool", "")
	if err == nil {
		t.Fatal("ResolveExecutable() error = nil, want NotFoundError")
	}

	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}

	if nfErr.Name != "no-such-tool" {
		t.Errorf("Name = %q, want %q", nfErr.Name, "no-such-tool")
	}

	if len(nfErr.Searched) == 0 {
		t.Error("Searched is empty, want at least the cwd candidates")
	}

	if !strings.Contains(nfErr.Error(), "no-such-tool") {
		t.Errorf("Error() = %q, want tool name", nfErr.Error())
	}
}

func TestResolveExecutable_SkipsDirectories(t *testing.T) {
	toolsDir := t.TempDir()

	// A directory with the tool's name must not resolve.
	if err := os.MkdirAll(filepath.Join(toolsDir, "turdusra1n"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	empty := t.TempDir()
	t.Chdir(empty)

	if _, err := ResolveExecutable("turdusra1n", toolsDir); err == nil {
		t.Fatal("ResolveExecutable() error = nil, want NotFoundError for directory match")
	}
}
