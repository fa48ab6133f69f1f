package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"midi-editor/config"
	"midi-editor/editor"
	"midi-editor/generator"
	"midi-editor/midi"
	"midi-editor/theme"
)

func TestChoices(t *testing.T) {
	summaries := []editor.TrackSummary{
		{Index: 0, TrackName: "Piano", Programs: map[uint8]string{0: "Piano"}, FirstProgram: map[uint8]uint8{0: 0}, NoteCounts: []editor.ChannelCount{{Channel: 0, Count: 12}}},
		{Index: 1, Programs: map[uint8]string{}, NoteCounts: []editor.ChannelCount{{Channel: 1, Count: 3}, {Channel: 9, Count: 40}}},
		{Index: 2},
	}
	got := Choices(summaries)
	if len(got) != 3 {
		t.Fatalf("Expected 3 choices, got %v", got)
	}
	if got[0].Label != "Piano (Piano)" || got[0].Notes != 12 {
		t.Errorf("Unexpected first choice %+v", got[0])
	}
	if got[2].Track != 1 || got[2].Channel != 9 || got[2].Label != "Track 1" {
		t.Errorf("Unexpected last choice %+v", got[2])
	}
}

func writeSong(t *testing.T, dir string) string {
	t.Helper()
	doc, err := generator.FromTextNotation([]string{"A4:1/4", "C5:1/4"}, generator.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "song.mid")
	if err := doc.Save(path, midi.DefaultCodec); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestModelSelectAndRun(t *testing.T) {
	dir := t.TempDir()
	path := writeSong(t, dir)
	doc, err := midi.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Output.MidiPath = filepath.Join(dir, "out.mid")
	cfg.Output.NotesPath = filepath.Join(dir, "out.bin")

	var m tea.Model = NewModel(path, doc, cfg, theme.New(theme.Default()))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.(Model).cursor != 0 {
		t.Errorf("Expected cursor to stay at 0")
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.(Model).busy {
		t.Fatal("Expected enter to start an edit")
	}
	msg := cmd()
	res, ok := msg.(ResultMsg)
	if !ok || res.Err != nil {
		t.Fatalf("Expected a successful result, got %#v", msg)
	}
	if res.Notes != 2 {
		t.Errorf("Expected 2 notes, got %d", res.Notes)
	}

	m, _ = m.Update(res)
	if view := m.View(); !strings.Contains(view, "out.mid") {
		t.Errorf("Expected the view to name the output file, got\n%s", view)
	}

	info, err := os.Stat(cfg.Output.NotesPath)
	if err != nil || info.Size() != 24 {
		t.Errorf("Expected 24 bytes of notes, got %v %v", info, err)
	}
	if _, err := midi.Load(cfg.Output.MidiPath); err != nil {
		t.Errorf("Expected a readable output file: %v", err)
	}
}

func TestModelQuit(t *testing.T) {
	doc := midi.New(midi.FormatSingle, 96)
	m := NewModel("empty.mid", doc, config.DefaultConfig(), theme.New(theme.Default()))
	if !strings.Contains(m.View(), "no notes found") {
		t.Errorf("Expected an empty list message")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
