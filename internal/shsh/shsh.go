// Package shsh extracts the boot-nonce generator from SHSH signing tickets.
//
// Tickets circulate in several serializations (Apple property lists, JSON
// dumps, ad hoc key=value text), so extraction tries a series of patterns
// from strictest to loosest. Extraction is deliberately best-effort: a
// ticket with no recoverable generator yields the sentinel rather than an
// error, and callers gate untethered operation on the sentinel.
package shsh

import (
	"os"
	"regexp"
)

// Unknown is the sentinel returned when no generator can be recovered.
const Unknown = "UNKNOWN"

// Patterns in priority order; the first match wins.
var generatorPatterns = []*regexp.Regexp{
	// Property list: <key>generator</key> <string>0x…</string>
	regexp.MustCompile(`(?s)<key>generator</key>\s*<string>([^<]+)</string>`),
	// JSON-style: "generator": "0x…"
	regexp.MustCompile(`"generator"\s*:\s*"([^"]+)"`),
	// Loose key-value: generator = 0x… / generator: 1111222233334444
	regexp.MustCompile(`generator\s*[:=]\s*(0x[0-9a-fA-F]+|[0-9a-fA-F]{16})`),
}

// Extract reads the ticket at path and returns its generator value, or
// Unknown when the file is unreadable or contains no generator-shaped
// token. It never fails.
func Extract(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unknown
	}

	return ExtractFromText(string(data))
}

// ExtractFromText applies the generator patterns to already-loaded text.
func ExtractFromText(text string) string {
	for _, pattern := range generatorPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}

	return Unknown
}
