package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"midi-editor/config"
	"midi-editor/debug"
	"midi-editor/editor"
	"midi-editor/midi"
	"midi-editor/notes"
	"midi-editor/theme"
)

// Choice is one selectable track and channel pair
type Choice struct {
	Track   int
	Channel uint8
	Notes   int
	Label   string
}

// Choices lists every track/channel pair that has notes
func Choices(summaries []editor.TrackSummary) []Choice {
	var out []Choice
	for _, s := range summaries {
		for _, c := range s.NoteCounts {
			label := s.TrackName
			if label == "" {
				label = fmt.Sprintf("Track %d", s.Index)
			}
			if prog, ok := s.FirstProgram[c.Channel]; ok {
				label += " (" + s.Programs[prog] + ")"
			}
			out = append(out, Choice{Track: s.Index, Channel: c.Channel, Notes: c.Count, Label: label})
		}
	}
	return out
}

// ResultMsg reports the outcome of an edit run
type ResultMsg struct {
	Choice   Choice
	Notes    int
	Warnings []midi.Warning
	Err      error
}

type Model struct {
	Path     string
	Config   *config.Config
	Theme    *theme.Theme
	choices  []Choice
	cursor   int
	busy     bool
	result   *ResultMsg
	warnings []midi.Warning // from loading
	quitting bool
}

func NewModel(path string, doc *midi.Document, cfg *config.Config, th *theme.Theme) Model {
	return Model{
		Path:     path,
		Config:   cfg,
		Theme:    th,
		choices:  Choices(editor.Analyze(doc)),
		warnings: doc.Warnings(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "enter":
			if m.busy || len(m.choices) == 0 {
				return m, nil
			}
			m.busy = true
			m.result = nil
			return m, Run(m.Path, m.Config, m.choices[m.cursor])
		}

	case ResultMsg:
		m.busy = false
		m.result = &msg
	}

	return m, nil
}

// Run edits the file for one choice and writes both outputs
func Run(path string, cfg *config.Config, choice Choice) tea.Cmd {
	return func() tea.Msg {
		res := ResultMsg{Choice: choice}
		res.Notes, res.Warnings, res.Err = edit(path, cfg, choice)
		return res
	}
}

func edit(path string, cfg *config.Config, choice Choice) (int, []midi.Warning, error) {
	doc, err := midi.Load(path)
	if err != nil {
		return 0, nil, err
	}
	opts, err := cfg.EditorOptions(choice.Track, choice.Channel)
	if err != nil {
		return 0, doc.Warnings(), err
	}
	editor.Apply(doc, opts)
	if err := doc.Save(cfg.Output.MidiPath, cfg.MidiCodec()); err != nil {
		return 0, doc.Warnings(), err
	}

	f, err := os.Create(cfg.Output.NotesPath)
	if err != nil {
		return 0, doc.Warnings(), errors.Wrap(err, "create notes file")
	}
	defer f.Close()
	n, err := notes.WriteBinary(f, notes.Extract(doc, 0, choice.Channel))
	debug.Log("tui", "track %d channel %d: %d notes, %d warnings", choice.Track, choice.Channel, n, len(doc.Warnings()))
	return n, doc.Warnings(), err
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("midi-editor  " + m.Path))
	out.WriteString("\n\n")

	if len(m.choices) == 0 {
		out.WriteString(dimStyle.Render("  no notes found"))
		out.WriteString("\n")
	}

	maxNotes := 1
	for _, c := range m.choices {
		maxNotes = max(maxNotes, c.Notes)
	}
	for i, c := range m.choices {
		marker := string(m.Theme.Symbols.NoCursor)
		if i == m.cursor {
			marker = cursorStyle.Render(string(m.Theme.Symbols.Cursor))
		}
		bar := strings.Repeat(string(m.Theme.Symbols.Bar), 1+c.Notes*20/maxNotes)
		chStyle := lipgloss.NewStyle().Foreground(m.Theme.Channel(c.Channel))
		fmt.Fprintf(&out, "%s %2d  ch%-2d %5d  %s %s\n",
			marker, c.Track, c.Channel+1, c.Notes, chStyle.Render(bar), c.Label)
	}

	out.WriteString("\n")
	for _, w := range m.warnings {
		out.WriteString(warnStyle.Render(string(m.Theme.Symbols.Warning) + " " + w.String()))
		out.WriteString("\n")
	}

	switch {
	case m.busy:
		out.WriteString(dimStyle.Render("working..."))
		out.WriteString("\n")
	case m.result != nil && m.result.Err != nil:
		out.WriteString(warnStyle.Render("error: " + m.result.Err.Error()))
		out.WriteString("\n")
	case m.result != nil:
		out.WriteString(okStyle.Render(fmt.Sprintf("%c wrote %s and %s (%d notes)",
			m.Theme.Symbols.Done, m.Config.Output.MidiPath, m.Config.Output.NotesPath, m.result.Notes)))
		out.WriteString("\n")
		for _, w := range m.result.Warnings {
			out.WriteString(warnStyle.Render(string(m.Theme.Symbols.Warning) + " " + w.String()))
			out.WriteString("\n")
		}
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("j/k:select  enter:edit+save  q:quit"))
	return out.String()
}
