package editor

import (
	"time"

	"midi-editor/debug"
	"midi-editor/midi"
)

// Options selects what the editor keeps and how it rewrites it.
type Options struct {
	Track   int   // source track to keep
	Channel uint8 // channel to keep (0-15)

	Program  *uint8 // replaces or inserts program changes when set
	Velocity *uint8 // replaces note-on velocity when set; 0 is raised to 1

	// HighestNote is the highest allowed key; higher notes are moved down
	// by octaves.
	HighestNote uint8

	// MinimumPause closes gaps shorter than this between two different
	// notes by holding the earlier note longer. 0 disables the rule.
	MinimumPause time.Duration
}

// DefaultOptions keeps track 0, channel 0 and allows every note.
func DefaultOptions() Options {
	return Options{HighestNote: 127}
}

const noNote = -1

// Apply reduces doc to a single monophonic track holding the selected
// track and channel. The document is modified in place and returned.
func Apply(doc *midi.Document, opts Options) *midi.Document {
	merged := len(doc.Tracks) > 1
	var src *midi.Track
	switch {
	case merged:
		src = Merge(doc.Tracks)
	case len(doc.Tracks) == 1:
		src = doc.Tracks[0]
	default:
		src = &midi.Track{}
	}
	if opts.Track < 0 || opts.Track >= len(doc.Tracks) {
		doc.Warnf("selected track %d does not exist (%d tracks)", opts.Track, len(doc.Tracks))
	}

	s := newScan(doc, opts)
	for _, ev := range src.Events {
		s.feed(ev)
	}
	events := s.finish()

	debug.Log("editor", "track=%d channel=%d merged=%v: %d events in, %d out",
		opts.Track, opts.Channel, merged, len(src.Events), len(events))

	doc.Tracks = []*midi.Track{{Events: events}}
	doc.Header.Format = midi.FormatSingle
	return doc
}

// slot is an event queued for output. Removed slots are dropped when the
// output is compacted and their delta moves to the next kept slot.
type slot struct {
	midi.Event
	removed bool
}

type scan struct {
	doc  *midi.Document
	opts Options

	out   []slot
	carry uint32 // ticks owed to the next kept event

	playing    [16]int // output index of the sounding noteOn per channel
	lastOff    int     // output index of the last accepted noteOff
	programSet [16]bool
	tempo      float64
}

func newScan(doc *midi.Document, opts Options) *scan {
	s := &scan{doc: doc, opts: opts, lastOff: noNote, tempo: midi.DefaultBPM}
	for i := range s.playing {
		s.playing[i] = noNote
	}
	return s
}

func (s *scan) push(ev midi.Event) int {
	s.out = append(s.out, slot{Event: ev})
	return len(s.out) - 1
}

func (s *scan) discard(ev midi.Event) {
	s.carry += ev.Delta
}

func (s *scan) feed(ev midi.Event) {
	ev.Delta += s.carry
	s.carry = 0
	selected := ev.Source == s.opts.Track

	if !midi.IsMeta(ev.Message) {
		if !selected {
			s.discard(ev)
			return
		}
		if cm, ok := ev.Message.(midi.ChannelMessage); ok && cm.MessageChannel() != s.opts.Channel {
			s.discard(ev)
			return
		}
	}

	switch m := ev.Message.(type) {
	case midi.NoteOn:
		m.Key = s.transpose(m.Key)
		s.noteOn(ev, m)
	case midi.NoteOff:
		m.Key = s.transpose(m.Key)
		s.noteOff(ev, m)
	case midi.ProgramChange:
		if s.opts.Program != nil {
			m.Program = *s.opts.Program
		}
		s.programSet[m.Channel&0x0f] = true
		ev.Message = m
		s.push(ev)
	case midi.TimeSignature:
		s.push(ev)
	case midi.Text:
		if m.Kind == midi.MetaTrackName && selected {
			s.push(ev)
		} else {
			s.discard(ev)
		}
	case midi.SetTempo:
		s.tempo = m.BPM
		s.push(ev)
	default:
		// includes EndOfTrack: a single one is appended by finish
		s.discard(ev)
	}
}

func (s *scan) transpose(key uint8) uint8 {
	for key > s.opts.HighestNote && key >= 12 {
		key -= 12
	}
	return key
}

func (s *scan) noteOn(ev midi.Event, m midi.NoteOn) {
	ch := m.Channel & 0x0f

	if s.opts.Program != nil && !s.programSet[ch] {
		s.push(midi.Event{Source: ev.Source, Message: midi.ProgramChange{Channel: ch, Program: *s.opts.Program}})
		s.programSet[ch] = true
	}

	if p := s.playing[ch]; p != noNote {
		cur := s.out[p].Message.(midi.NoteOn)
		switch {
		case cur.Key == m.Key:
			// already sounding
			s.discard(ev)
			return
		case ev.Delta == 0:
			// struck together: the higher note wins
			if cur.Key > m.Key {
				return
			}
			s.out[p].removed = true
		default:
			s.push(midi.Event{
				Delta:   ev.Delta,
				Source:  ev.Source,
				Message: midi.NoteOff{Channel: ch, Key: cur.Key},
			})
			ev.Delta = 0
		}
	}

	if s.opts.MinimumPause > 0 && s.lastOff != noNote {
		prev := s.out[s.lastOff].Message.(midi.NoteOff)
		if prev.Key != m.Key {
			gap := s.doc.TicksToMicroseconds(ev.Delta, s.tempo)
			if gap > 0 && gap < float64(s.opts.MinimumPause.Microseconds()) {
				s.out[s.lastOff].Delta += ev.Delta
				ev.Delta = 0
			}
		}
	}

	if s.opts.Velocity != nil {
		// velocity 0 would read back as a noteOff
		m.Velocity = max(*s.opts.Velocity, 1)
	}
	ev.Message = m
	s.playing[ch] = s.push(ev)
}

func (s *scan) noteOff(ev midi.Event, m midi.NoteOff) {
	ch := m.Channel & 0x0f
	p := s.playing[ch]
	if p == noNote || s.out[p].Message.(midi.NoteOn).Key != m.Key {
		// not the sounding note
		s.discard(ev)
		return
	}
	m.Velocity = 0
	ev.Message = m
	s.playing[ch] = noNote
	s.lastOff = s.push(ev)
}

// finish closes sounding notes, drops removed slots and terminates the
// track with a single EndOfTrack.
func (s *scan) finish() []midi.Event {
	for ch, p := range s.playing {
		if p == noNote {
			continue
		}
		key := s.out[p].Message.(midi.NoteOn).Key
		s.push(midi.Event{Delta: s.carry, Source: s.opts.Track, Message: midi.NoteOff{Channel: uint8(ch), Key: key}})
		s.carry = 0
		s.playing[ch] = noNote
	}

	events := make([]midi.Event, 0, len(s.out)+1)
	var owed uint32
	for _, sl := range s.out {
		if sl.removed {
			owed += sl.Delta
			continue
		}
		sl.Delta += owed
		owed = 0
		events = append(events, sl.Event)
	}
	return append(events, midi.Event{Delta: owed + s.carry, Source: s.opts.Track, Message: midi.EndOfTrack{}})
}
