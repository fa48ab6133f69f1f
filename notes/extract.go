package notes

import (
	"iter"
	"math"
	"time"

	"midi-editor/midi"
)

// DefaultConcertPitch is the frequency of A4 in Hz.
const DefaultConcertPitch = 440.0

const concertKey = 69 // A4

// Note is one sounding note preceded by silence.
type Note struct {
	Pause    time.Duration
	Duration time.Duration
	Key      uint8
	Name     string
	// Frequency in Hz, rounded to three decimals.
	Frequency float64
}

// Extractor turns a monophonic track into notes.
type Extractor struct {
	Track        int
	Channel      uint8
	ConcertPitch float64
}

// Extract returns the notes of one track and channel at 440 Hz concert pitch.
func Extract(doc *midi.Document, track int, channel uint8) iter.Seq[Note] {
	return Extractor{Track: track, Channel: channel, ConcertPitch: DefaultConcertPitch}.Notes(doc)
}

// Frequency returns the equal-tempered frequency of key.
func (x Extractor) Frequency(key uint8) float64 {
	pitch := x.ConcertPitch
	if pitch <= 0 {
		pitch = DefaultConcertPitch
	}
	f := pitch * math.Pow(2, float64(int(key)-concertKey)/12)
	return math.Round(f*1000) / 1000
}

// Notes walks the track lazily. Only one note is tracked at a time: a
// noteOn while another note sounds is skipped, as is a noteOff that does
// not match the sounding key. Time from every event, including skipped
// ones and other channels, counts toward the next pause or duration.
func (x Extractor) Notes(doc *midi.Document) iter.Seq[Note] {
	return func(yield func(Note) bool) {
		if x.Track < 0 || x.Track >= len(doc.Tracks) {
			return
		}
		tempo := midi.DefaultBPM
		var carry float64 // microseconds
		var cur Note
		sounding := false

		for _, ev := range doc.Tracks[x.Track].Events {
			carry += doc.TicksToMicroseconds(ev.Delta, tempo)

			if cm, ok := ev.Message.(midi.ChannelMessage); ok && cm.MessageChannel() != x.Channel {
				continue
			}
			switch m := ev.Message.(type) {
			case midi.NoteOn:
				if sounding {
					continue
				}
				cur.Pause += micros(carry)
				cur.Key = m.Key
				carry = 0
				sounding = true
			case midi.NoteOff:
				if !sounding || m.Key != cur.Key {
					continue
				}
				cur.Duration += micros(carry)
				cur.Name = midi.NoteName(cur.Key)
				cur.Frequency = x.Frequency(cur.Key)
				if !yield(cur) {
					return
				}
				carry = 0
				cur = Note{}
				sounding = false
			case midi.SetTempo:
				tempo = m.BPM
			}
		}
	}
}

func micros(us float64) time.Duration {
	return time.Duration(math.Round(us * float64(time.Microsecond)))
}
