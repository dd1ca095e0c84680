package ansi

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "restoring NAND", want: "restoring NAND"},
		{name: "color codes", input: "\x1b[92mDone\x1b[0m", want: "Done"},
		{name: "mixed", input: "step \x1b[1m1\x1b[0m of 5", want: "step 1 of 5"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
