package midi

import (
	"unicode/utf8"

	"gitlab.com/gomidi/midi/v2/gm"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText returns meta event text as UTF-8. Many older files store
// Latin-1, so payloads that are not valid UTF-8 are decoded as ISO-8859-1.
func DecodeText(raw string) string {
	if utf8.ValidString(raw) {
		return raw
	}
	s, _, err := transform.String(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return raw
	}
	return s
}

// ProgramName returns the General MIDI instrument name of a program.
func ProgramName(program uint8) string {
	return gm.Instr(program & 0x7f).String()
}
