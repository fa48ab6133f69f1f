package editor

import "midi-editor/midi"

// Merge interleaves tracks as if they were played simultaneously. Events
// are copied and keep the index of their source track in Source. Events
// that fall on the same tick are emitted in track order; the first of each
// group carries the elapsed time and the rest get a delta of 0.
func Merge(tracks []*midi.Track) *midi.Track {
	n := len(tracks)
	pos := make([]int, n)
	pending := make([]uint32, n)
	total := 0
	for i, t := range tracks {
		total += len(t.Events)
		if len(t.Events) > 0 {
			pending[i] = t.Events[0].Delta
		}
	}

	merged := make([]midi.Event, 0, total)
	for {
		var step uint32
		found := false
		for i, t := range tracks {
			if pos[i] < len(t.Events) && (!found || pending[i] < step) {
				step = pending[i]
				found = true
			}
		}
		if !found {
			break
		}

		first := true
		for i, t := range tracks {
			if pos[i] >= len(t.Events) {
				continue
			}
			pending[i] -= step
			for pos[i] < len(t.Events) && pending[i] == 0 {
				ev := t.Events[pos[i]]
				ev.Source = i
				ev.Delta = 0
				if first {
					ev.Delta = step
					first = false
				}
				merged = append(merged, ev)

				pos[i]++
				if pos[i] < len(t.Events) {
					pending[i] = t.Events[pos[i]].Delta
				}
			}
		}
	}

	return &midi.Track{Events: midi.CloseTrack(merged)}
}
