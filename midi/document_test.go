package midi

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// sampleSMF is the format 1 example from the Standard MIDI File
// specification.
var sampleSMF = []byte{
	0x4d, 0x54, 0x68, 0x64, 0, 0, 0, 6, 0, 1, 0, 4, 0, 0x60,
	// tempo track
	0x4d, 0x54, 0x72, 0x6b, 0, 0, 0, 0x14,
	0, 0xff, 0x58, 4, 4, 2, 0x18, 8,
	0, 0xff, 0x51, 3, 7, 0xa1, 0x20,
	0x83, 0, 0xff, 0x2f, 0,
	// channel 0
	0x4d, 0x54, 0x72, 0x6b, 0, 0, 0, 0x10,
	0, 0xc0, 5,
	0x81, 0x40, 0x90, 0x4c, 0x20,
	0x81, 0x40, 0x4c, 0,
	0, 0xff, 0x2f, 0,
	// channel 1
	0x4d, 0x54, 0x72, 0x6b, 0, 0, 0, 0xf,
	0, 0xc1, 0x2e,
	0x60, 0x91, 0x43, 0x40,
	0x82, 0x20, 0x43, 0,
	0, 0xff, 0x2f, 0,
	// channel 2
	0x4d, 0x54, 0x72, 0x6b, 0, 0, 0, 0x15,
	0, 0xc2, 0x46,
	0, 0x92, 0x30, 0x60,
	0, 0x3c, 0x60,
	0x83, 0, 0x30, 0,
	0, 0x3c, 0,
	0, 0xff, 0x2f, 0,
}

func smfFile(format, ntracks, division uint16, chunks ...[]byte) []byte {
	w := &Writer{}
	w.Write([]byte("MThd"))
	w.Uint32(6)
	w.Uint16(format)
	w.Uint16(ntracks)
	w.Uint16(division)
	for _, c := range chunks {
		w.Write(c)
	}
	return w.Bytes()
}

func mtrk(data ...[]byte) []byte {
	body := track(data...)
	w := &Writer{}
	w.Write([]byte("MTrk"))
	w.Uint32(uint32(len(body)))
	w.Write(body)
	return w.Bytes()
}

func TestParseSample(t *testing.T) {
	doc, err := Parse(sampleSMF)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", doc.Warnings())
	}
	if doc.Header.Format != FormatMulti || doc.Header.TimeDivision != 96 {
		t.Errorf("Unexpected header %+v", doc.Header)
	}
	if len(doc.Tracks) != 4 {
		t.Fatalf("Expected 4 tracks, got %d", len(doc.Tracks))
	}

	want := []Message{ProgramChange{2, 0x46}, NoteOn{2, 0x30, 0x60}, NoteOn{2, 0x3c, 0x60}, NoteOff{2, 0x30, 0}, NoteOff{2, 0x3c, 0}, EndOfTrack{}}
	if got := messages(doc.Tracks[3]); !reflect.DeepEqual(got, want) {
		t.Errorf("Track 3: expected %v, got %v", want, got)
	}
	for i, tr := range doc.Tracks {
		for _, ev := range tr.Events {
			if ev.Source != i {
				t.Errorf("Event in track %d has source %d", i, ev.Source)
			}
		}
	}

	// the sample uses running status and noteOn with velocity 0 throughout
	out := doc.Render(Codec{RunningStatus: true, UseNoteOff: false})
	if !bytes.Equal(out, sampleSMF) {
		t.Errorf("Rendered file differs from the input:\n% X\n% X", sampleSMF, out)
	}
}

func TestParseMissingHeader(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("MTh"), []byte("RIFF\x00\x00\x00\x06\x00\x00\x00\x01\x00\x60")} {
		doc, err := Parse(data)
		if doc != nil {
			t.Errorf("Expected no document for %q", data)
		}
		var se *StructuralError
		if !errors.As(err, &se) || !errors.Is(err, ErrMissingHeader) {
			t.Errorf("Expected StructuralError wrapping ErrMissingHeader, got %v", err)
		}
	}
}

func TestParseRecoversFromDamage(t *testing.T) {
	good := mtrk([]byte{0x00, 0x90, 0x3C, 0x40, 0x60, 0x80, 0x3C, 0x00}, endOfTrack)

	tests := []struct {
		name      string
		data      []byte
		tracks    int
		appendage []byte
		warning   string
	}{
		{
			name:    "fewer tracks than declared",
			data:    smfFile(1, 3, 96, good, good),
			tracks:  2,
			warning: "header declares 3 tracks, found 2",
		},
		{
			name:      "extra tracks kept as trailing data",
			data:      smfFile(0, 1, 96, good, good),
			tracks:    1,
			appendage: good,
			warning:   "beyond the declared count",
		},
		{
			name:      "bad chunk signature",
			data:      smfFile(1, 2, 96, good, []byte("XFIR\x00\x00\x00\x00")),
			tracks:    1,
			appendage: []byte("XFIR\x00\x00\x00\x00"),
			warning:   `invalid chunk signature "XFIR"`,
		},
		{
			name:    "truncated chunk",
			data:    smfFile(0, 1, 96, good[:len(good)-2]),
			tracks:  1,
			warning: "incomplete chunk",
		},
		{
			name:    "missing end of track",
			data:    smfFile(0, 1, 96, mtrk([]byte{0x00, 0x90, 0x3C, 0x40})),
			tracks:  1,
			warning: "track 0 has no end of track event",
		},
		{
			name:    "events after end of track",
			data:    smfFile(0, 1, 96, mtrk(endOfTrack, []byte{0x00, 0x90, 0x3C, 0x40})),
			tracks:  1,
			warning: "track 0 has 1 events after end of track",
		},
		{
			name:    "invalid format",
			data:    smfFile(5, 1, 96, good),
			tracks:  1,
			warning: "invalid format type 5",
		},
		{
			name:    "SMPTE division",
			data:    smfFile(0, 1, 0xE728, good),
			tracks:  1,
			warning: "SMPTE time division",
		},
		{
			name:    "incomplete chunk header",
			data:    smfFile(0, 2, 96, good, []byte("MTr")),
			tracks:  1,
			warning:   "incomplete chunk header",
			appendage: []byte("MTr"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(doc.Tracks) != tt.tracks {
				t.Errorf("Expected %d tracks, got %d", tt.tracks, len(doc.Tracks))
			}
			if !bytes.Equal(doc.Appendage, tt.appendage) {
				t.Errorf("Expected appendage % X, got % X", tt.appendage, doc.Appendage)
			}
			found := false
			for _, w := range doc.Warnings() {
				if strings.Contains(w.Message, tt.warning) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected a warning containing %q, got %v", tt.warning, doc.Warnings())
			}
		})
	}
}

func TestRenderKeepsAppendage(t *testing.T) {
	good := mtrk(endOfTrack)
	data := smfFile(0, 1, 96, good, []byte("trailing junk"))
	doc, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if out := doc.Render(DefaultCodec); !bytes.Equal(out, data) {
		t.Errorf("Expected\n% X\ngot\n% X", data, out)
	}
}

func TestRenderTrackCount(t *testing.T) {
	doc := New(FormatMulti, 480)
	doc.Tracks = []*Track{{Events: CloseTrack(nil)}, {Events: CloseTrack(nil)}}

	out := doc.Render(DefaultCodec)
	if out[10] != 0 || out[11] != 2 {
		t.Errorf("Expected 2 tracks in header, got % X", out[10:12])
	}
	back, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Tracks) != 2 || len(back.Warnings()) != 0 {
		t.Errorf("Expected 2 clean tracks, got %d with %v", len(back.Tracks), back.Warnings())
	}
}

func TestRenderWarnsOnClamp(t *testing.T) {
	doc := New(FormatSingle, 96)
	doc.Tracks = []*Track{{Events: []Event{{Delta: 0xFFFFFFFF, Message: EndOfTrack{}}}}}
	doc.Render(DefaultCodec)
	if len(doc.Warnings()) != 1 {
		t.Errorf("Expected a clamp warning, got %v", doc.Warnings())
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mid")
	if err := os.WriteFile(path, sampleSMF, 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	out := filepath.Join(dir, "out.mid")
	if err := doc.Save(out, DefaultCodec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	back, err := Load(out)
	if err != nil {
		t.Fatalf("Load of saved file failed: %v", err)
	}
	if len(back.Tracks) != 4 || len(back.Warnings()) != 0 {
		t.Errorf("Expected 4 clean tracks, got %d with %v", len(back.Tracks), back.Warnings())
	}
	for i := range doc.Tracks {
		if !reflect.DeepEqual(messages(back.Tracks[i]), messages(doc.Tracks[i])) {
			t.Errorf("Track %d changed after save", i)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.mid")

	_, err := Load(missing)
	var se *StructuralError
	if !errors.As(err, &se) || se.Path != missing {
		t.Errorf("Expected StructuralError for %s, got %v", missing, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the cause to be kept, got %v", err)
	}

	notMidi := filepath.Join(dir, "text.mid")
	if err := os.WriteFile(notMidi, []byte("hello world, not a midi file"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(notMidi)
	if !errors.As(err, &se) || se.Path != notMidi || !errors.Is(err, ErrMissingHeader) {
		t.Errorf("Expected missing header error for %s, got %v", notMidi, err)
	}
}

func TestTicksToMicroseconds(t *testing.T) {
	tests := []struct {
		division uint16
		ticks    uint32
		bpm      float64
		want     float64
	}{
		{96, 96, 120, 500000},
		{480, 240, 120, 250000},
		{480, 480, 60, 1000000},
		{96, 1, 120, 500000.0 / 96},
		{0, 96, 120, 0},
		{0xE728, 96, 120, 0},
	}
	for _, tt := range tests {
		doc := New(FormatSingle, tt.division)
		if got := doc.TicksToMicroseconds(tt.ticks, tt.bpm); got != tt.want {
			t.Errorf("division %d, %d ticks at %v bpm: expected %v, got %v", tt.division, tt.ticks, tt.bpm, tt.want, got)
		}
	}
}

func TestCloseTrack(t *testing.T) {
	in := []Event{
		{Delta: 10, Message: NoteOn{0, 60, 64}},
		{Delta: 5, Message: EndOfTrack{}},
		{Delta: 3, Message: NoteOff{0, 60, 0}},
		{Delta: 7, Message: EndOfTrack{}},
	}
	got := CloseTrack(in)
	want := []Event{
		{Delta: 10, Message: NoteOn{0, 60, 64}},
		{Delta: 8, Message: NoteOff{0, 60, 0}},
		{Delta: 7, Message: EndOfTrack{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := CloseTrack(nil); len(got) != 1 {
		t.Errorf("Expected a lone EndOfTrack, got %v", got)
	}
}
