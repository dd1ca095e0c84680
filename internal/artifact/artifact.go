// Package artifact manages files produced by the restore tools inside a
// project directory: block files, image files, completion markers, and the
// temporary subdirectories the tools write raw output into.
package artifact

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Temporary subdirectories the restore tools write into before
// consolidation flattens them into the project root.
var tempSubdirs = []string{"block", "image4"}

// blockSuffix is the file suffix the resolve step matches on.
const blockSuffix = ".bin"

// ErrNoMatch is returned by ResolveLatest when no candidate file exists.
var ErrNoMatch = errors.New("no matching block file found")

// Exists reports whether path exists. Errors are treated as absence.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List returns the entry names in dir, sorted, excluding dotfiles.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names, nil
}

// Touch creates dir if absent, then creates an empty file with the given
// name. Touching an existing file is a no-op.
func Touch(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touch %s: %w", path, err)
	}

	return f.Close()
}

// EnsureTempSubdirs creates the temporary tool-output subdirectories. The
// tools fail when the directories they expect are missing.
func EnsureTempSubdirs(dir string) error {
	for _, sub := range tempSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", sub, err)
		}
	}

	return nil
}

// Consolidate moves every non-dotfile entry from the temporary
// subdirectories up into dir, then removes the subdirectories. Individual
// move failures are skipped; consolidation is best-effort by design so a
// partially written tool output never blocks the workflow.
func Consolidate(dir string) {
	for _, sub := range tempSubdirs {
		subdir := filepath.Join(dir, sub)

		info, err := os.Stat(subdir)
		if err != nil || !info.IsDir() {
			continue
		}

		entries, err := os.ReadDir(subdir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			src := filepath.Join(subdir, entry.Name())
			dst := filepath.Join(dir, entry.Name())

			if err := os.Rename(src, dst); err != nil {
				slog.Default().Warn(
					"skipping artifact move",
					slog.String("component", "artifact"),
					slog.String("file", entry.Name()),
					slog.String("error", err.Error()),
				)

				continue
			}
		}

		_ = os.RemoveAll(subdir)
	}
}

// Resolution describes the outcome of ResolveLatest.
type Resolution struct {
	// RenamedFrom is the original name of the file now holding the
	// canonical name. Equal to CanonicalName when the canonical file
	// already existed.
	RenamedFrom string

	CanonicalName string
}

// ResolveLatest finds the newest .bin file in dir not listed in excludes
// and renames it to canonicalName. When the canonical file already exists
// the rename is skipped and the call reports success, so repeated
// resolution never clobbers an established artifact.
//
// Modification-time ties break toward the lexicographically greatest name,
// which is deterministic across runs.
func ResolveLatest(dir, canonicalName string, excludes []string) (Resolution, error) {
	canonicalPath := filepath.Join(dir, canonicalName)
	if Exists(canonicalPath) {
		return Resolution{RenamedFrom: canonicalName, CanonicalName: canonicalName}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve in %s: %w", dir, err)
	}

	excluded := make(map[string]bool, len(excludes))
	for _, name := range excludes {
		excluded[name] = true
	}

	var (
		bestName string
		bestTime int64
	)

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() || excluded[name] || !strings.HasSuffix(name, blockSuffix) || strings.HasPrefix(name, ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		mtime := info.ModTime().UnixNano()
		if bestName == "" || mtime > bestTime || (mtime == bestTime && name > bestName) {
			bestName = name
			bestTime = mtime
		}
	}

	if bestName == "" {
		return Resolution{}, fmt.Errorf("%w in %s", ErrNoMatch, dir)
	}

	if err := os.Rename(filepath.Join(dir, bestName), canonicalPath); err != nil {
		return Resolution{}, fmt.Errorf("rename %s to %s: %w", bestName, canonicalName, err)
	}

	return Resolution{RenamedFrom: bestName, CanonicalName: canonicalName}, nil
}
