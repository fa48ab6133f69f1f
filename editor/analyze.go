package editor

import (
	"sort"

	"midi-editor/midi"
)

// ChannelCount is the number of noteOn events on one channel.
type ChannelCount struct {
	Channel uint8
	Count   int
}

// TrackSummary describes one track so a caller can choose what to keep.
type TrackSummary struct {
	Index          int
	TrackName      string
	InstrumentName string
	Copyright      string
	// Programs maps every program number used to its General MIDI name.
	Programs map[uint8]string
	// FirstProgram maps channel to the first program selected on it.
	FirstProgram map[uint8]uint8
	NoteCounts   []ChannelCount
}

// Analyze summarizes every track of doc.
func Analyze(doc *midi.Document) []TrackSummary {
	out := make([]TrackSummary, 0, len(doc.Tracks))
	for i, t := range doc.Tracks {
		s := TrackSummary{Index: i, Programs: map[uint8]string{}, FirstProgram: map[uint8]uint8{}}
		counts := map[uint8]int{}
		for _, ev := range t.Events {
			switch m := ev.Message.(type) {
			case midi.NoteOn:
				counts[m.Channel]++
			case midi.ProgramChange:
				s.Programs[m.Program] = midi.ProgramName(m.Program)
				if _, ok := s.FirstProgram[m.Channel]; !ok {
					s.FirstProgram[m.Channel] = m.Program
				}
			case midi.Text:
				setOnce(&s, m)
			}
		}
		for ch, n := range counts {
			s.NoteCounts = append(s.NoteCounts, ChannelCount{Channel: ch, Count: n})
		}
		sort.Slice(s.NoteCounts, func(a, b int) bool {
			return s.NoteCounts[a].Channel < s.NoteCounts[b].Channel
		})
		out = append(out, s)
	}
	return out
}

func setOnce(s *TrackSummary, m midi.Text) {
	var dst *string
	switch m.Kind {
	case midi.MetaTrackName:
		dst = &s.TrackName
	case midi.MetaInstrumentName:
		dst = &s.InstrumentName
	case midi.MetaCopyright:
		dst = &s.Copyright
	default:
		return
	}
	if *dst == "" {
		*dst = midi.DecodeText(m.Text)
	}
}
