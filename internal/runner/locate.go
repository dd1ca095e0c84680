package runner

import (
	"os"
	"path/filepath"
	"runtime"
)

// ResolveExecutable searches the fixed candidate locations for a tool
// binary and returns the first existing match:
//
//  1. toolsDir (the configured resources directory), when set
//  2. the bin directory next to the ouzel binary
//  3. the current working directory
//  4. its bin subdirectory
//  5. its parent directory
func ResolveExecutable(name, toolsDir string) (string, error) {
	dirs := searchDirs(toolsDir)

	searched := make([]string, 0, len(dirs))

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		searched = append(searched, dir)

		for _, candidate := range candidateNames(name) {
			path := filepath.Join(dir, candidate)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	return "", &NotFoundError{Name: name, Searched: searched}
}

func searchDirs(toolsDir string) []string {
	dirs := make([]string, 0, 5)

	if toolsDir != "" {
		dirs = append(dirs, toolsDir)
	}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "bin"))
	}

	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs,
			cwd,
			filepath.Join(cwd, "bin"),
			filepath.Dir(cwd),
		)
	}

	return dirs
}

func candidateNames(name string) []string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return []string{name + ".exe", name}
	}

	return []string{name}
}
