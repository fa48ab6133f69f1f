// Package generator builds MIDI documents from a compact text notation.
//
// A token is NOTE:NUM/DEN, for example "A4:1/4" for an A4 quarter note,
// or P:NUM/DEN for a pause of the same length.
package generator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"midi-editor/debug"
	"midi-editor/midi"
)

var tokenPattern = regexp.MustCompile(`^([CDEFGABH]#?-?\d+|P):(\d+)/(\d+)$`)

const pauseToken = "P"

// Options for FromTextNotation
type Options struct {
	TempoBPM        float64
	Program         uint8
	Velocity        uint8 // 0 is raised to 1
	TicksPerQuarter uint16
}

// DefaultOptions returns 120 BPM, program 40 (violin), full velocity and
// 480 ticks per quarter note.
func DefaultOptions() Options {
	return Options{TempoBPM: midi.DefaultBPM, Program: 40, Velocity: 127, TicksPerQuarter: 480}
}

// ValidationError reports a token that could not be converted.
type ValidationError struct {
	Index  int
	Token  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("token %d %q: %s", e.Index, e.Token, e.Reason)
}

type token struct {
	key   uint8
	pause bool
	ticks uint32
}

// FromTextNotation returns a single-track format 0 document playing the
// tokens on channel 0. Nothing is produced if any token is invalid.
func FromTextNotation(tokens []string, opts Options) (*midi.Document, error) {
	if opts.TicksPerQuarter == 0 || opts.TicksPerQuarter&0x8000 != 0 {
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("invalid ticks per quarter note %d", opts.TicksPerQuarter)}
	}
	if opts.TempoBPM <= 0 {
		opts.TempoBPM = midi.DefaultBPM
	}

	parsed := make([]token, 0, len(tokens))
	for i, s := range tokens {
		t, err := parseToken(s, opts.TicksPerQuarter)
		if err != nil {
			return nil, &ValidationError{Index: i, Token: s, Reason: err.Error()}
		}
		parsed = append(parsed, t)
	}

	events := []midi.Event{
		{Message: midi.TimeSignature{Numerator: 4, Denominator: 4, ClocksPerClick: 24, Notated32ndPerQuarter: 8}},
		{Message: midi.SetTempo{BPM: opts.TempoBPM}},
		{Message: midi.ProgramChange{Channel: 0, Program: opts.Program & 0x7f}},
	}
	var carry uint32
	for _, t := range parsed {
		if t.pause {
			carry += t.ticks
			continue
		}
		events = append(events,
			midi.Event{Delta: carry, Message: midi.NoteOn{Key: t.key, Velocity: max(opts.Velocity&0x7f, 1)}},
			midi.Event{Delta: t.ticks, Message: midi.NoteOff{Key: t.key}},
		)
		carry = 0
	}
	// a trailing pause lengthens the final rest
	events = append(events, midi.Event{Delta: carry + uint32(opts.TicksPerQuarter), Message: midi.EndOfTrack{}})

	debug.Log("generator", "%d tokens -> %d events", len(tokens), len(events))

	doc := midi.New(midi.FormatSingle, opts.TicksPerQuarter)
	doc.Tracks = []*midi.Track{{Events: events}}
	return doc, nil
}

func parseToken(s string, tpq uint16) (token, error) {
	m := tokenPattern.FindStringSubmatch(s)
	if m == nil {
		return token{}, fmt.Errorf("expected NOTE:NUM/DEN or P:NUM/DEN")
	}
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return token{}, fmt.Errorf("invalid numerator")
	}
	den, err := strconv.Atoi(m[3])
	if err != nil || den == 0 {
		return token{}, fmt.Errorf("invalid denominator")
	}
	ticks := math.Round(float64(num) * 4 * float64(tpq) / float64(den))
	if ticks > midi.MaxVLQ {
		return token{}, fmt.Errorf("length of %d/%d is too long", num, den)
	}

	t := token{ticks: uint32(ticks)}
	if m[1] == pauseToken {
		t.pause = true
		return t, nil
	}
	t.key, err = midi.ParseNoteName(m[1])
	if err != nil {
		return token{}, err
	}
	return t, nil
}
