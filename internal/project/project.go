// Package project persists per-project restore configuration.
//
// Each project is a directory holding the firmware artifacts plus a
// project.json record. The record is the source of truth for user-chosen
// settings (firmware path, ticket, chipset, mode); completed steps are a
// cache that the orchestrator reconciles against the files actually on
// disk at load time.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ouzel-dev/ouzel/internal/artifact"
	"github.com/ouzel-dev/ouzel/internal/errors"
	"github.com/ouzel-dev/ouzel/internal/shsh"
)

// ConfigFile is the record filename inside a project directory.
const ConfigFile = "project.json"

// Chipset identifies the device SoC family. A10 covers A10X as well.
type Chipset string

const (
	ChipsetA9  Chipset = "A9"
	ChipsetA10 Chipset = "A10"
)

// Mode selects between the two restore strategies.
type Mode string

const (
	ModeTethered   Mode = "Tethered"
	ModeUntethered Mode = "Untethered"
)

// ParseChipset normalizes user input into a Chipset. A10X maps to A10.
func ParseChipset(value string) (Chipset, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "A9":
		return ChipsetA9, nil
	case "A10", "A10X":
		return ChipsetA10, nil
	default:
		return "", errors.InvalidChipset(value)
	}
}

// ParseMode normalizes user input into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tethered":
		return ModeTethered, nil
	case "untethered":
		return ModeUntethered, nil
	default:
		return "", errors.InvalidMode(value)
	}
}

// Record is a project's persisted configuration.
type Record struct {
	Firmware       string  `json:"firmware,omitempty"`
	Ticket         string  `json:"ticket,omitempty"`
	Generator      string  `json:"generator,omitempty"`
	Chipset        Chipset `json:"chipset,omitempty"`
	Mode           Mode    `json:"mode,omitempty"`
	CompletedSteps []int   `json:"completedSteps,omitempty"`
}

// HasCompleted reports whether step index i is in the completed set.
func (r *Record) HasCompleted(i int) bool {
	for _, done := range r.CompletedSteps {
		if done == i {
			return true
		}
	}
	return false
}

// HasGenerator reports whether a usable generator token is present. The
// extraction sentinel does not count.
func (r *Record) HasGenerator() bool {
	return r.Generator != "" && r.Generator != shsh.Unknown
}

// SetTicket records a new ticket path and re-extracts its generator.
func (r *Record) SetTicket(path string) {
	r.Ticket = path
	r.Generator = shsh.Extract(path)
}

// rawRecord carries the legacy field aliases older project files used.
// Canonical names win when both appear.
type rawRecord struct {
	Record
	IPSW string `json:"ipsw,omitempty"`
	Blob string `json:"blob,omitempty"`
	Gen  string `json:"gen,omitempty"`
	Chip string `json:"chip,omitempty"`
}

func (raw *rawRecord) normalize() Record {
	rec := raw.Record
	if rec.Firmware == "" {
		rec.Firmware = raw.IPSW
	}
	if rec.Ticket == "" {
		rec.Ticket = raw.Blob
	}
	if rec.Generator == "" {
		rec.Generator = raw.Gen
	}
	if rec.Chipset == "" {
		rec.Chipset = Chipset(raw.Chip)
	}
	return rec
}

// Load reads dir's record. A missing config file yields an empty record;
// unreadable or malformed JSON is an error.
func Load(dir string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, errors.ProjectLoadFailed(dir, err)
	}

	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, errors.ProjectLoadFailed(dir, err)
	}

	return raw.normalize(), nil
}

// Save writes the record to dir's config file, creating dir if needed.
// The file is replaced wholesale; callers must read-modify-write.
func Save(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.ProjectSaveFailed(dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.ProjectSaveFailed(dir, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filepath.Join(dir, ConfigFile), data, 0o644); err != nil {
		return errors.ProjectSaveFailed(dir, err)
	}
	return nil
}

// DefaultName builds the name used when a project is created without one:
// chipset, mode, and a timestamp joined with underscores, for example
// A10_Tethered_20260830_142501.
func DefaultName(chipset Chipset, mode Mode, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", chipset, mode, now.Format("20060102_150405"))
}

// Create makes a fresh project directory under baseDir. When baseDir/name
// already exists it tries name-1, name-2, and so on until a free slot is
// found. The directory gets the temporary artifact subdirectories plus the
// initial record, and its path is returned.
func Create(baseDir, name string, initial Record) (string, error) {
	dir := filepath.Join(baseDir, name)
	for suffix := 1; ; suffix++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = filepath.Join(baseDir, fmt.Sprintf("%s-%d", name, suffix))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.ProjectSaveFailed(dir, err)
	}
	if err := artifact.EnsureTempSubdirs(dir); err != nil {
		return "", errors.ProjectSaveFailed(dir, err)
	}
	if err := Save(dir, initial); err != nil {
		return "", err
	}
	return dir, nil
}
