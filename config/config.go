package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"midi-editor/editor"
	"midi-editor/midi"
)

// EditorConfig holds the defaults for the track editor
type EditorConfig struct {
	Program                  *uint8 `json:"program"`     // null keeps the file's programs
	Velocity                 *uint8 `json:"velocity"`    // null keeps the file's velocities
	HighestNote              string `json:"highestNote"` // note name, e.g. "E6"
	MinimumPauseMicroseconds int64  `json:"minimumPauseMicroseconds"`
}

// CodecConfig controls how files are written
type CodecConfig struct {
	RunningStatus bool `json:"runningStatus"`
	UseNoteOff    bool `json:"useNoteOff"`
}

// OutputConfig names the files written after editing
type OutputConfig struct {
	MidiPath  string `json:"midiPath,omitempty"`
	NotesPath string `json:"notesPath,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastFile string `json:"lastFile,omitempty"`
	Palette  string `json:"palette,omitempty"` // path to a .gpl file; empty uses the built-in one
}

// Config is the main configuration structure
type Config struct {
	Editor EditorConfig `json:"editor"`
	Codec  CodecConfig  `json:"codec"`
	Output OutputConfig `json:"output,omitempty"`
	UI     UIConfig     `json:"ui,omitempty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	program, velocity := uint8(40), uint8(127)
	return &Config{
		Editor: EditorConfig{
			Program:                  &program,
			Velocity:                 &velocity,
			HighestNote:              "E6",
			MinimumPauseMicroseconds: 100000,
		},
		Codec: CodecConfig{
			RunningStatus: midi.DefaultCodec.RunningStatus,
			UseNoteOff:    midi.DefaultCodec.UseNoteOff,
		},
		Output: OutputConfig{
			MidiPath:  "edited.mid",
			NotesPath: "notes.bin",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midi-editor"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their default values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// MidiCodec returns the configured writer settings
func (c *Config) MidiCodec() midi.Codec {
	return midi.Codec{RunningStatus: c.Codec.RunningStatus, UseNoteOff: c.Codec.UseNoteOff}
}

// EditorOptions builds editor options for a track and channel
func (c *Config) EditorOptions(track int, channel uint8) (editor.Options, error) {
	opts := editor.DefaultOptions()
	opts.Track = track
	opts.Channel = channel
	opts.Program = c.Editor.Program
	opts.Velocity = c.Editor.Velocity
	if c.Editor.HighestNote != "" {
		n, err := midi.ParseNoteName(c.Editor.HighestNote)
		if err != nil {
			return opts, errors.Wrap(err, "editor.highestNote")
		}
		opts.HighestNote = n
	}
	opts.MinimumPause = time.Duration(c.Editor.MinimumPauseMicroseconds) * time.Microsecond
	return opts, nil
}
