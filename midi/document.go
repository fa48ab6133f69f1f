package midi

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
)

const (
	chunkHeader = "MThd"
	chunkTrack  = "MTrk"
)

// File format types
const (
	FormatSingle   uint16 = 0
	FormatMulti    uint16 = 1
	FormatSequence uint16 = 2
)

// ErrMissingHeader is returned when data does not start with an MThd chunk.
var ErrMissingHeader = errors.New("missing MThd header chunk")

// StructuralError is a fatal problem: the file cannot be read, written or
// does not start with a header chunk.
type StructuralError struct {
	Path string
	Err  error
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return "midi: " + e.Err.Error()
	}
	return "midi: " + e.Path + ": " + e.Err.Error()
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Header is the content of the MThd chunk.
type Header struct {
	Format       uint16
	TimeDivision uint16
}

// IsSMPTE reports whether the time division counts SMPTE frames rather
// than ticks per quarter note.
func (h Header) IsSMPTE() bool { return h.TimeDivision&0x8000 != 0 }

// Track is an ordered list of events.
type Track struct {
	Events []Event
}

// Document is an in-memory Standard MIDI File.
type Document struct {
	Header Header
	Tracks []*Track
	// Appendage holds bytes that follow the last declared track; they are
	// written back unchanged.
	Appendage []byte

	diag Diagnostics
}

// New returns an empty document with the given format and time division.
func New(format, timeDivision uint16) *Document {
	return &Document{Header: Header{Format: format, TimeDivision: timeDivision}}
}

// Warnings returns every format warning raised for this document, in order.
func (d *Document) Warnings() []Warning { return d.diag.Warnings() }

// Warnf records a warning on the document.
func (d *Document) Warnf(format string, args ...any) {
	d.diag.Warnf(-1, format, args...)
}

// Parse decodes an SMF. Only a missing header chunk is an error; all other
// problems are recorded as warnings and parsing continues with whatever
// data is available.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	c := NewCursor(data, &doc.diag)

	if len(data) < 8 || string(data[:4]) != chunkHeader {
		return nil, &StructuralError{Err: ErrMissingHeader}
	}
	c.Read(4)
	length := int(c.Uint32())
	if length < 6 {
		doc.diag.Warnf(c.Offset(), "header chunk is %d bytes long (expected 6)", length)
	}
	hdr := c.Sub(length)
	doc.Header.Format = hdr.Uint16()
	declared := int(hdr.Uint16())
	doc.Header.TimeDivision = hdr.Uint16()

	if doc.Header.Format > FormatSequence {
		doc.diag.Warnf(8, "invalid format type %d", doc.Header.Format)
	}
	if doc.Header.IsSMPTE() {
		doc.diag.Warnf(12, "SMPTE time division 0x%04X is not supported", doc.Header.TimeDivision)
	}

	for len(doc.Tracks) < declared && !c.Done() {
		start := c.Offset()
		if c.Remaining() < 8 {
			doc.diag.Warnf(start, "incomplete chunk header (expected 8 bytes, got %d)", c.Remaining())
			break
		}
		sig := data[start : start+4]
		if string(sig) != chunkTrack {
			doc.diag.Warnf(start, "invalid chunk signature %q (expected %q)", sig, chunkTrack)
			break
		}
		c.Read(4)
		n := int(c.Uint32())
		if n > c.Remaining() {
			doc.diag.Warnf(c.Offset(), "incomplete chunk (expected %d bytes, got %d)", n, c.Remaining())
			n = c.Remaining()
		}
		base := c.Offset()
		track := DecodeTrack(c.Read(n), base, &doc.diag)
		for i := range track.Events {
			track.Events[i].Source = len(doc.Tracks)
		}
		checkEndOfTrack(track, len(doc.Tracks), &doc.diag)
		doc.Tracks = append(doc.Tracks, track)
	}

	if len(doc.Tracks) != declared {
		doc.diag.Warnf(10, "header declares %d tracks, found %d", declared, len(doc.Tracks))
	}
	if !c.Done() {
		doc.Appendage = c.Read(c.Remaining())
		if bytes.HasPrefix(doc.Appendage, []byte(chunkTrack)) {
			doc.diag.Warnf(len(data)-len(doc.Appendage), "track chunks beyond the declared count of %d kept as trailing data", declared)
		}
	}
	return doc, nil
}

func checkEndOfTrack(t *Track, index int, diag *Diagnostics) {
	for i, ev := range t.Events {
		if _, ok := ev.Message.(EndOfTrack); ok {
			if i != len(t.Events)-1 {
				diag.Warnf(-1, "track %d has %d events after end of track", index, len(t.Events)-1-i)
			}
			return
		}
	}
	diag.Warnf(-1, "track %d has no end of track event", index)
}

// Render encodes the document. Each track becomes its own MTrk chunk and
// the appendage, if any, is written last.
func (d *Document) Render(codec Codec) []byte {
	w := &Writer{}
	w.Write([]byte(chunkHeader))
	w.Uint32(6)
	w.Uint16(d.Header.Format)
	w.Uint16(uint16(len(d.Tracks)))
	w.Uint16(d.Header.TimeDivision)

	for i, t := range d.Tracks {
		data, clamped := codec.EncodeTrack(t)
		if clamped > 0 {
			d.diag.Warnf(-1, "track %d: %d delta times exceed the maximum and were clamped", i, clamped)
		}
		w.Write([]byte(chunkTrack))
		w.Uint32(uint32(len(data)))
		w.Write(data)
	}
	w.Write(d.Appendage)
	return w.Bytes()
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StructuralError{Path: path, Err: errors.Wrap(err, "read")}
	}
	doc, err := Parse(data)
	if err != nil {
		var se *StructuralError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Save renders the document and writes it to path.
func (d *Document) Save(path string, codec Codec) error {
	if err := os.WriteFile(path, d.Render(codec), 0644); err != nil {
		return &StructuralError{Path: path, Err: errors.Wrap(err, "write")}
	}
	return nil
}

// TicksToMicroseconds converts a tick count to microseconds at the given
// tempo. SMPTE time division is not modelled and yields 0.
func (d *Document) TicksToMicroseconds(ticks uint32, bpm float64) float64 {
	div := d.Header.TimeDivision
	if d.Header.IsSMPTE() || div == 0 || bpm <= 0 {
		return 0
	}
	return float64(ticks) * 60_000_000 / bpm / float64(div)
}

// CloseTrack returns events with exactly one EndOfTrack, placed last. An
// interior EndOfTrack is dropped and its delta added to the next event.
func CloseTrack(events []Event) []Event {
	out := make([]Event, 0, len(events)+1)
	var carry uint32
	source := 0
	for _, ev := range events {
		ev.Delta += carry
		carry = 0
		if _, ok := ev.Message.(EndOfTrack); ok {
			carry = ev.Delta
			source = ev.Source
			continue
		}
		out = append(out, ev)
	}
	return append(out, Event{Delta: carry, Source: source, Message: EndOfTrack{}})
}
