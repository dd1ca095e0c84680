package shsh

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTicket(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ticket.shsh2")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestExtract_Plist(t *testing.T) {
	ticket := writeTicket(t, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>generator</key>
	<string>0xbd34a880be0b53f3</string>
	<key>ApImg4Ticket</key>
	<data>aGVsbG8=</data>
</dict>
</plist>`)

	if got := Extract(ticket); got != "0xbd34a880be0b53f3" {
		t.Errorf("Extract() = %q, want %q", got, "0xbd34a880be0b53f3")
	}
}

func TestExtract_JSON(t *testing.T) {
	ticket := writeTicket(t, `{"generator": "0x1111111111111111", "apnonce": "deadbeef"}`)

	if got := Extract(ticket); got != "0x1111111111111111" {
		t.Errorf("Extract() = %q, want %q", got, "0x1111111111111111")
	}
}

func TestExtract_LooseKeyValue(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"equals hex prefix", "apnonce=deadbeef\ngenerator=0xbd34a880be0b53f3\n", "0xbd34a880be0b53f3"},
		{"colon bare hex", "generator: 1111222233334444", "1111222233334444"},
		{"spaced equals", "generator = 0xdeadbeefcafef00d", "0xdeadbeefcafef00d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFromText(tt.content); got != tt.want {
				t.Errorf("ExtractFromText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_PlistWinsOverLoose(t *testing.T) {
	// A plist generator entry takes priority over a loose token elsewhere.
	ticket := writeTicket(t, `generator=0x0000000000000000
<key>generator</key>
<string>0xbd34a880be0b53f3</string>`)

	if got := Extract(ticket); got != "0xbd34a880be0b53f3" {
		t.Errorf("Extract() = %q, want %q", got, "0xbd34a880be0b53f3")
	}
}

func TestExtract_NoGenerator(t *testing.T) {
	ticket := writeTicket(t, "<dict><key>ApImg4Ticket</key><data>aGVsbG8=</data></dict>")

	if got := Extract(ticket); got != Unknown {
		t.Errorf("Extract() = %q, want %q", got, Unknown)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	if got := Extract(filepath.Join(t.TempDir(), "nope.shsh2")); got != Unknown {
		t.Errorf("Extract() = %q, want %q", got, Unknown)
	}
}

func TestExtract_BinaryGarbage(t *testing.T) {
	ticket := writeTicket(t, string([]byte{0x00, 0xff, 0x1b, 0x62, 0x70, 0x6c, 0x69, 0x73, 0x74}))

	if got := Extract(ticket); got != Unknown {
		t.Errorf("Extract() = %q, want %q", got, Unknown)
	}
}
