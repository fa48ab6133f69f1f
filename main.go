package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"midi-editor/config"
	"midi-editor/debug"
	"midi-editor/midi"
	"midi-editor/theme"
	"midi-editor/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	path := cfg.UI.LastFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		fmt.Println("usage: midi-editor <file.mid>")
		os.Exit(2)
	}

	if os.Getenv("MIDI_EDITOR_DEBUG") != "" {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	// Load theme
	palette := theme.Default()
	if cfg.UI.Palette != "" {
		if p, err := theme.LoadGPL(cfg.UI.Palette); err != nil {
			fmt.Printf("Warning: %v\n", err)
		} else {
			palette = p
		}
	}
	th := theme.New(palette)

	doc, err := midi.Load(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg.UI.LastFile = path
	if err := cfg.Save(); err != nil {
		debug.Log("main", "save config: %v", err)
	}

	// Create and run TUI
	m := tui.NewModel(path, doc, cfg, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
