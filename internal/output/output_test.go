package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ouzel-dev/ouzel/internal/terminal"
)

// testTerminal returns a terminal.Info for testing (non-TTY, no color).
func testTerminal() *terminal.Info {
	return &terminal.Info{
		IsTTY:   false,
		NoColor: true,
	}
}

func TestWriter_Print(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		format string
		args   []interface{}
		want   string
	}{
		{
			name:   "normal output",
			quiet:  false,
			format: "Step %d: %s",
			args:   []interface{}{1, "Restore Device"},
			want:   "Step 1: Restore Device",
		},
		{
			name:   "quiet mode suppresses output",
			quiet:  true,
			format: "Step %d",
			args:   []interface{}{1},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			w := NewWriter(&buf, &buf, testTerminal())
			w.Quiet = tt.quiet

			w.Print(tt.format, tt.args...)

			if got := buf.String(); got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriter_StatusMessages(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{
			name:  "success uses check mark",
			write: func(w *Writer) { w.Success("step completed") },
			want:  CheckMark + " step completed\n",
		},
		{
			name:  "failure uses x mark",
			write: func(w *Writer) { w.Failure("step failed") },
			want:  XMark + " step failed\n",
		},
		{
			name:  "warning uses warning mark",
			write: func(w *Writer) { w.Warning("generator unknown") },
			want:  WarningMark + " generator unknown\n",
		},
		{
			name:  "info uses info mark",
			write: func(w *Writer) { w.Info("re-enter DFU mode") },
			want:  InfoMark + " re-enter DFU mode\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			w := NewWriter(&buf, &buf, testTerminal())
			tt.write(w)

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriter_FailureBypassesQuiet(t *testing.T) {
	var out, errOut bytes.Buffer

	w := NewWriter(&out, &errOut, testTerminal())
	w.Quiet = true

	w.Failure("chain failed")

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}

	if !strings.Contains(errOut.String(), "chain failed") {
		t.Errorf("stderr = %q, want to contain %q", errOut.String(), "chain failed")
	}
}

func TestWriter_PrintJSON(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, testTerminal())

	if err := w.PrintJSON(map[string]int{"completed": 2}); err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}

	if !strings.Contains(buf.String(), `"completed": 2`) {
		t.Errorf("output = %q, want indented JSON", buf.String())
	}
}

func TestSpinner_DisabledFallback(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, testTerminal())

	s := w.Spinner("waiting for device")
	s.Start()
	s.StopWithSuccess("device booted")

	got := buf.String()
	if !strings.Contains(got, "waiting for device... ") {
		t.Errorf("output = %q, want fallback prefix", got)
	}

	if !strings.Contains(got, "device booted") {
		t.Errorf("output = %q, want completion message", got)
	}
}
