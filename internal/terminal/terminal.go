// Package terminal reports what the attached terminal supports, gating
// color, spinners, and interactive prompts for the rest of the CLI.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Info holds the capability bits the output layer keys off.
type Info struct {
	IsTTY       bool
	NoColor     bool // NO_COLOR env or TERM=dumb
	NoColorFlag bool // --no-color on the command line
}

// Detect inspects stdout and the environment.
func Detect() *Info {
	return &Info{
		IsTTY:   term.IsTerminal(int(os.Stdout.Fd())),
		NoColor: noColorEnv(),
	}
}

// noColorEnv honors https://no-color.org/ and treats TERM=dumb as a
// terminal without escape sequence support.
func noColorEnv() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}

	return os.Getenv("TERM") == "dumb"
}

// ColorEnabled reports whether escape sequences should be emitted.
func (t *Info) ColorEnabled() bool {
	return t.IsTTY && !t.NoColor && !t.NoColorFlag
}

// InteractiveEnabled reports whether prompts may block on stdin.
func (t *Info) InteractiveEnabled() bool {
	return t.IsTTY
}

// SpinnersEnabled reports whether animated progress is worth drawing.
// Tool output is streamed raw, so this also stays off wherever color is
// off; a spinner line without cursor control just garbles logs.
func (t *Info) SpinnersEnabled() bool {
	return t.ColorEnabled()
}
