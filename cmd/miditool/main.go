package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gitlab.com/gomidi/midi/v2/smf"

	"midi-editor/config"
	"midi-editor/debug"
	"midi-editor/editor"
	"midi-editor/generator"
	"midi-editor/midi"
	"midi-editor/notes"
	"midi-editor/theme"
)

var (
	th        = theme.New(theme.Default())
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(th.Accent())
	warnStyle = lipgloss.NewStyle().Foreground(th.Warning())
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	if os.Getenv("MIDI_EDITOR_DEBUG") != "" {
		if err := debug.Enable(); err == nil {
			defer debug.Disable()
		}
	}

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "info":
		err = info(args)
	case "dump":
		err = dump(args)
	case "edit":
		err = edit(args)
	case "notes":
		err = extractNotes(args)
	case "generate":
		err = generate(args)
	case "check":
		err = check(args)
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI file tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  info FILE        - Header, tracks and channels")
	fmt.Println("  dump FILE        - List every event")
	fmt.Println("  edit FILE        - Keep one track/channel as a monophonic voice")
	fmt.Println("  notes FILE       - Export notes as text, binary or scanner table")
	fmt.Println("  generate TOKENS  - Build a file from NOTE:NUM/DEN tokens")
	fmt.Println("  check FILE       - Re-render and read back with an independent decoder")
}

func load(fs *flag.FlagSet, args []string) (*midi.Document, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("%s: expected one input file", fs.Name())
	}
	return midi.Load(fs.Arg(0))
}

func printWarnings(doc *midi.Document) {
	for _, w := range doc.Warnings() {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w.String()))
	}
}

func info(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	doc, err := load(fs, args)
	if err != nil {
		return err
	}
	defer printWarnings(doc)

	fmt.Println(headStyle.Render(fs.Arg(0)))
	fmt.Printf("format %d, %d tracks, division %d\n", doc.Header.Format, len(doc.Tracks), doc.Header.TimeDivision)
	if len(doc.Appendage) > 0 {
		fmt.Printf("%d bytes of trailing data\n", len(doc.Appendage))
	}
	for _, s := range editor.Analyze(doc) {
		name := s.TrackName
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("\ntrack %d: %s\n", s.Index, name)
		if s.InstrumentName != "" {
			fmt.Printf("  instrument: %s\n", s.InstrumentName)
		}
		if s.Copyright != "" {
			fmt.Printf("  copyright:  %s\n", s.Copyright)
		}
		for _, c := range s.NoteCounts {
			var prog string
			if p, ok := s.FirstProgram[c.Channel]; ok {
				prog = s.Programs[p]
			}
			fmt.Printf("  channel %2d: %5d notes  %s\n", c.Channel, c.Count, prog)
		}
	}
	return nil
}

func dump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	track := fs.Int("track", -1, "only this track")
	doc, err := load(fs, args)
	if err != nil {
		return err
	}
	defer printWarnings(doc)

	for i, t := range doc.Tracks {
		if *track >= 0 && i != *track {
			continue
		}
		fmt.Println(headStyle.Render(fmt.Sprintf("track %d (%d events)", i, len(t.Events))))
		for _, ev := range t.Events {
			fmt.Println(ev.String())
		}
	}
	return nil
}

// optionalByte is a flag that is unset until given
type optionalByte struct {
	v   *uint8
	min uint8
	set bool
}

func (o *optionalByte) String() string {
	if o.v == nil {
		return "unset"
	}
	return fmt.Sprint(*o.v)
}

func (o *optionalByte) Set(s string) error {
	if s == "none" {
		o.v, o.set = nil, true
		return nil
	}
	var n uint8
	if _, err := fmt.Sscan(s, &n); err != nil || n < o.min || n > 127 {
		return fmt.Errorf("expected %d-127 or none", o.min)
	}
	o.v, o.set = &n, true
	return nil
}

func edit(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	track := fs.Int("track", 0, "track to keep")
	channel := fs.Uint("channel", 0, "channel to keep (0-15)")
	program, velocity := optionalByte{}, optionalByte{min: 1}
	fs.Var(&program, "program", "program override (0-127 or none)")
	fs.Var(&velocity, "velocity", "velocity override (1-127 or none)")
	highest := fs.String("highest", cfg.Editor.HighestNote, "highest note, e.g. E6")
	pause := fs.Int64("min-pause", cfg.Editor.MinimumPauseMicroseconds, "minimum pause in microseconds (0 disables)")
	out := fs.String("o", cfg.Output.MidiPath, "output file")
	running := fs.Bool("running-status", cfg.Codec.RunningStatus, "write running status")
	noteOff := fs.Bool("note-off", cfg.Codec.UseNoteOff, "write noteOff instead of noteOn with velocity 0")
	doc, err := load(fs, args)
	if err != nil {
		return err
	}
	defer printWarnings(doc)

	if program.set {
		cfg.Editor.Program = program.v
	}
	if velocity.set {
		cfg.Editor.Velocity = velocity.v
	}
	cfg.Editor.HighestNote = *highest
	cfg.Editor.MinimumPauseMicroseconds = *pause
	cfg.Codec.RunningStatus = *running
	cfg.Codec.UseNoteOff = *noteOff

	if *channel > 15 {
		return fmt.Errorf("channel %d out of range", *channel)
	}
	opts, err := cfg.EditorOptions(*track, uint8(*channel))
	if err != nil {
		return err
	}
	editor.Apply(doc, opts)
	if err := doc.Save(*out, cfg.MidiCodec()); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d events)\n", *out, len(doc.Tracks[0].Events))
	return nil
}

func extractNotes(args []string) error {
	fs := flag.NewFlagSet("notes", flag.ExitOnError)
	track := fs.Int("track", 0, "track")
	channel := fs.Uint("channel", 0, "channel (0-15)")
	format := fs.String("format", "text", "text, binary or scanner")
	pitch := fs.Float64("pitch", notes.DefaultConcertPitch, "concert pitch of A4 in Hz")
	out := fs.String("o", "-", "output file")
	doc, err := load(fs, args)
	if err != nil {
		return err
	}
	defer printWarnings(doc)

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	seq := notes.Extractor{Track: *track, Channel: uint8(*channel & 0x0f), ConcertPitch: *pitch}.Notes(doc)
	var n int
	switch *format {
	case "text":
		for note := range seq {
			fmt.Fprintf(w, "%-4s %9.3f Hz  pause %-12v duration %v\n", note.Name, note.Frequency, note.Pause, note.Duration)
			n++
		}
	case "binary":
		n, err = notes.WriteBinary(w, seq)
	case "scanner":
		n, err = notes.WriteScanner(w, seq, notes.DefaultScannerOptions())
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d notes\n", n)
	return nil
}

func generate(args []string) error {
	def := generator.DefaultOptions()
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	tempo := fs.Float64("tempo", def.TempoBPM, "tempo in BPM")
	program := fs.Uint("program", uint(def.Program), "program (0-127)")
	velocity := fs.Uint("velocity", uint(def.Velocity), "velocity (0-127)")
	tpq := fs.Uint("tpq", uint(def.TicksPerQuarter), "ticks per quarter note")
	out := fs.String("o", "generated.mid", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// tokens may be given as separate arguments or in one quoted string
	tokens := strings.Fields(strings.Join(fs.Args(), " "))
	doc, err := generator.FromTextNotation(tokens, generator.Options{
		TempoBPM:        *tempo,
		Program:         uint8(*program),
		Velocity:        uint8(*velocity),
		TicksPerQuarter: uint16(*tpq),
	})
	if err != nil {
		return err
	}
	if err := doc.Save(*out, midi.DefaultCodec); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d tokens)\n", *out, len(tokens))
	return nil
}

func check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	doc, err := load(fs, args)
	if err != nil {
		return err
	}
	defer printWarnings(doc)

	data := doc.Render(midi.DefaultCodec)
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("rendered file rejected by gomidi: %v", err)
	}
	if len(s.Tracks) != len(doc.Tracks) {
		return fmt.Errorf("gomidi read %d tracks, expected %d", len(s.Tracks), len(doc.Tracks))
	}
	ours, theirs := 0, 0
	for i, t := range s.Tracks {
		for _, ev := range t {
			var ch, key, vel uint8
			if ev.Message.GetNoteStart(&ch, &key, &vel) {
				theirs++
			}
		}
		for _, ev := range doc.Tracks[i].Events {
			if on, ok := ev.Message.(midi.NoteOn); ok && on.Velocity > 0 {
				ours++
			}
		}
	}
	if ours != theirs {
		return fmt.Errorf("note count differs: %d here, %d in gomidi", ours, theirs)
	}
	fmt.Printf("ok: %d bytes, %d tracks, %d notes\n", len(data), len(s.Tracks), ours)
	return nil
}
