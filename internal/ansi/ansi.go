// Package ansi provides helpers for ANSI escape sequences in tool output.
package ansi

import "strings"

// Strip removes ANSI escape sequences from a string. The external restore
// tools emit colored progress output that is unreadable in log files.
func Strip(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
