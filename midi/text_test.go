package midi

import "testing"

func TestDecodeText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Piano", "Piano"},
		{"Grüße", "Grüße"},
		{"Gr\xfc\xdfe", "Grüße"},
		{"\xa9 1994", "© 1994"},
	}
	for _, tt := range tests {
		if got := DecodeText(tt.raw); got != tt.want {
			t.Errorf("DecodeText(%q) = %q, expected %q", tt.raw, got, tt.want)
		}
	}
}

func TestProgramName(t *testing.T) {
	if got := ProgramName(0); got == "" {
		t.Error("Expected a name for program 0")
	}
	if ProgramName(40) == ProgramName(0) {
		t.Error("Expected distinct names for programs 0 and 40")
	}
}
