package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Cursor   rune // ▶ selected row
	NoCursor rune // space
	Bar      rune // █ note count bar
	Warning  rune // ! diagnostics line
	Done     rune // ✓ file written
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Cursor:   '▶',
			NoCursor: ' ',
			Bar:      '█',
			Warning:  '!',
			Done:     '✓',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2 // rest
	RoleAccent  = 0.5 // blue
	RoleCursor  = 0.6 // green
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // light green
)

// Style helpers

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Channel returns a distinct color per MIDI channel
func (t *Theme) Channel(ch uint8) lipgloss.Color {
	n := len(t.Palette.Colors) - 3
	if n <= 0 {
		return t.Accent()
	}
	return rgbToLipgloss(t.Palette.Index(3 + int(ch)%n))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
