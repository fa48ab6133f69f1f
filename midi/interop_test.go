package midi

import (
	"bytes"
	"math"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestGomidiReadsRenderedFile(t *testing.T) {
	doc := New(FormatSingle, 480)
	doc.Tracks = []*Track{{Events: []Event{
		{Message: Text{MetaTrackName, "Melody"}},
		{Message: SetTempo{90}},
		{Message: ProgramChange{3, 40}},
		{Message: NoteOn{3, 60, 100}},
		{Delta: 480, Message: NoteOff{3, 60, 0}},
		{Message: NoteOn{3, 64, 100}},
		{Delta: 240, Message: NoteOff{3, 64, 0}},
		{Message: EndOfTrack{}},
	}}}

	for _, codec := range []Codec{DefaultCodec, {RunningStatus: true}, {}} {
		s, err := smf.ReadFrom(bytes.NewReader(doc.Render(codec)))
		if err != nil {
			t.Fatalf("gomidi failed to read %+v output: %v", codec, err)
		}
		if tf, ok := s.TimeFormat.(smf.MetricTicks); !ok || tf != 480 {
			t.Errorf("Expected 480 ticks per quarter, got %v", s.TimeFormat)
		}
		if len(s.Tracks) != 1 {
			t.Fatalf("Expected 1 track, got %d", len(s.Tracks))
		}

		var starts, ends []uint8
		var ticks uint32
		var bpm float64
		for _, ev := range s.Tracks[0] {
			ticks += ev.Delta
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				if ch != 3 || vel != 100 {
					t.Errorf("Unexpected note start ch=%d vel=%d", ch, vel)
				}
				starts = append(starts, key)
			case ev.Message.GetNoteEnd(&ch, &key):
				ends = append(ends, key)
			case ev.Message.GetMetaTempo(&bpm):
			}
		}
		if len(starts) != 2 || starts[0] != 60 || starts[1] != 64 || len(ends) != 2 {
			t.Errorf("%+v: expected notes 60 and 64, got starts %v ends %v", codec, starts, ends)
		}
		if ticks != 720 {
			t.Errorf("Expected 720 ticks, got %d", ticks)
		}
		if math.Abs(bpm-90) > 0.001 {
			t.Errorf("Expected 90 bpm, got %v", bpm)
		}
	}
}

func TestParseGomidiFile(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(3, 4))
	tempo.Add(0, smf.MetaTempo(150))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		t.Fatal(err)
	}

	var notes smf.Track
	notes.Add(0, gomidi.NoteOn(2, 67, 90))
	notes.Add(96, gomidi.NoteOff(2, 67))
	notes.Add(0, gomidi.Pitchbend(2, 100))
	notes.Close(48)
	if err := s.Add(notes); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	doc, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", doc.Warnings())
	}
	if len(doc.Tracks) != 2 || doc.Header.TimeDivision != 96 {
		t.Fatalf("Expected 2 tracks at 96 ticks, got %d at %d", len(doc.Tracks), doc.Header.TimeDivision)
	}

	var sawMeter, sawTempo bool
	for _, ev := range doc.Tracks[0].Events {
		switch m := ev.Message.(type) {
		case TimeSignature:
			sawMeter = m.Numerator == 3 && m.Denominator == 4
		case SetTempo:
			sawTempo = math.Abs(m.BPM-150) < 0.001
		}
	}
	if !sawMeter || !sawTempo {
		t.Errorf("Expected 3/4 at 150 bpm in %v", doc.Tracks[0].Events)
	}

	var on *NoteOn
	var bend *PitchBend
	for _, ev := range doc.Tracks[1].Events {
		switch m := ev.Message.(type) {
		case NoteOn:
			on = &m
		case PitchBend:
			bend = &m
		}
	}
	if on == nil || *on != (NoteOn{2, 67, 90}) {
		t.Errorf("Expected NoteOn{2 67 90}, got %v", on)
	}
	// gomidi takes a signed bend relative to the centre
	if bend == nil || bend.Value != 0x2000+100 {
		t.Errorf("Expected pitch bend 0x%X, got %v", 0x2000+100, bend)
	}
}
