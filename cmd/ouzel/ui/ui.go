// Package ui holds the lipgloss styles for Ouzel's terminal output.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette — muted, dark-terminal friendly.
var (
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	cyan   = lipgloss.Color("45")
	dim    = lipgloss.Color("243")
)

// Base styles available for direct use.
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	WarnStyle    = lipgloss.NewStyle().Foreground(yellow)
	AccentStyle  = lipgloss.NewStyle().Foreground(cyan)
	MutedStyle   = lipgloss.NewStyle().Foreground(dim)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(dim)
)

// Inline helpers — return styled text without newlines.

func Bold(s string) string    { return BoldStyle.Render(s) }
func Muted(s string) string   { return MutedStyle.Render(s) }
func Success(s string) string { return SuccessStyle.Render(s) }
func Accent(s string) string  { return AccentStyle.Render(s) }

// StepGlyph renders the status marker for one step row.
func StepGlyph(status string, next bool) string {
	switch {
	case status == "success":
		return SuccessStyle.Render("✓")
	case status == "failed":
		return ErrorStyle.Render("✗")
	case status == "running":
		return AccentStyle.Render("▸")
	case next:
		return AccentStyle.Render("→")
	default:
		return MutedStyle.Render("○")
	}
}

// Progress renders a "n/total (pct%)" summary line.
func Progress(completed, total int) string {
	pct := 0
	if total > 0 {
		pct = completed * 100 / total
	}
	line := fmt.Sprintf("%d/%d steps complete (%d%%)", completed, total, pct)
	if completed == total {
		return SuccessStyle.Render(line)
	}
	return MutedStyle.Render(line)
}

// Pair holds a key-value pair for KeyValues output.
// Fields are unexported; use KV to construct.
type Pair struct {
	key   string
	value string
}

// KV creates a key-value pair.
func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders aligned "key:  value" lines.
// Returns a multi-line string with trailing newline.
func KeyValues(indent string, pairs ...Pair) string {
	maxLen := 0
	for _, p := range pairs {
		if len(p.key) > maxLen {
			maxLen = len(p.key)
		}
	}

	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, p.key+":")
		sb.WriteString(indent + LabelStyle.Render(label) + " " + p.value + "\n")
	}
	return sb.String()
}
