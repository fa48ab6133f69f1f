package midi

import (
	"fmt"
	"regexp"
	"strconv"
)

// noteNames uses German naming: B is B-flat, H is B.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "B", "H"}

var noteNamePattern = regexp.MustCompile(`^([CDEFGABH]#?)(-?\d+)$`)

// NoteName returns the name of a MIDI note number, e.g. 60 -> "C4".
func NoteName(n uint8) string {
	octave := int(n)/12 - 1
	return noteNames[n%12] + strconv.Itoa(octave)
}

// ParseNoteName is the inverse of NoteName.
func ParseNoteName(s string) (uint8, error) {
	m := noteNamePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid note name %q", s)
	}
	class := -1
	for i, name := range noteNames {
		if name == m[1] {
			class = i
			break
		}
	}
	if class < 0 {
		return 0, fmt.Errorf("invalid note name %q", s)
	}
	octave, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q", s)
	}
	n := (octave+1)*12 + class
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %q is outside the MIDI range", s)
	}
	return uint8(n), nil
}
