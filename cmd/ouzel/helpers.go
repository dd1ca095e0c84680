package main

import (
	"os"
	"path/filepath"

	"github.com/ouzel-dev/ouzel/internal/config"
	clierrors "github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/project"
)

// resolveProjectDir returns the project directory from positional argument
// pos, falling back to the current working directory.
func resolveProjectDir(args []string, pos int) (string, error) {
	if len(args) > pos {
		dir, err := filepath.Abs(args[pos])
		if err != nil {
			return "", clierrors.Wrap(clierrors.ExitUsage, "Invalid project directory", err)
		}
		return dir, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", clierrors.NoProject()
	}
	return dir, nil
}

// loadProject reads the project record from dir and fills unset chipset
// and mode fields from the configured defaults.
//
// This consolidates the repeated pattern of:
//
//	rec, err := project.Load(dir)
//	rec.Chipset = <default when empty>
//	rec.Mode = <default when empty>
func loadProject(dir string, cfg *config.Config) (*project.Record, error) {
	rec, err := project.Load(dir)
	if err != nil {
		return nil, err
	}

	if rec.Chipset == "" {
		chipset, err := project.ParseChipset(cfg.DefaultProjectChipset())
		if err != nil {
			return nil, err
		}
		rec.Chipset = chipset
	}

	if rec.Mode == "" {
		mode, err := project.ParseMode(cfg.DefaultProjectMode())
		if err != nil {
			return nil, err
		}
		rec.Mode = mode
	}

	return &rec, nil
}
