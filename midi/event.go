package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status nibbles for voice messages
const (
	StatusNoteOff         uint8 = 0x80
	StatusNoteOn          uint8 = 0x90
	StatusPolyPressure    uint8 = 0xA0
	StatusControlChange   uint8 = 0xB0
	StatusProgramChange   uint8 = 0xC0
	StatusChannelPressure uint8 = 0xD0
	StatusPitchBend       uint8 = 0xE0
)

// System and meta status bytes
const (
	StatusSysEx             uint8 = 0xF0
	StatusSysExContinuation uint8 = 0xF7
	StatusMeta              uint8 = 0xFF
)

// Meta event type ids
const (
	MetaSequenceNumber    uint8 = 0x00
	MetaText              uint8 = 0x01
	MetaCopyright         uint8 = 0x02
	MetaTrackName         uint8 = 0x03
	MetaInstrumentName    uint8 = 0x04
	MetaLyric             uint8 = 0x05
	MetaMarker            uint8 = 0x06
	MetaCuePoint          uint8 = 0x07
	MetaProgramName       uint8 = 0x08
	MetaDeviceName        uint8 = 0x09
	MetaChannelPrefix     uint8 = 0x20
	MetaPortPrefix        uint8 = 0x21
	MetaEndOfTrack        uint8 = 0x2F
	MetaSetTempo          uint8 = 0x51
	MetaSMPTEOffset       uint8 = 0x54
	MetaTimeSignature     uint8 = 0x58
	MetaKeySignature      uint8 = 0x59
	MetaSequencerSpecific uint8 = 0x7F
)

// Event is one entry of a track. Delta is the number of ticks since the
// previous event of the same track; Source is the index of the track the
// event was read from (kept across merges).
type Event struct {
	Delta   uint32
	Source  int
	Message Message
}

func (e Event) String() string {
	return fmt.Sprintf("%6d  %s", e.Delta, describe(e.Message))
}

// Message is the payload of an Event. The set of implementations is closed.
type Message interface {
	isMessage()
}

// ChannelMessage is implemented by all voice messages.
type ChannelMessage interface {
	Message
	MessageChannel() uint8
}

type NoteOn struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

type NoteOff struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

type PolyPressure struct {
	Channel  uint8
	Key      uint8
	Pressure uint8
}

type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramChange struct {
	Channel uint8
	Program uint8
}

type ChannelPressure struct {
	Channel  uint8
	Pressure uint8
}

// PitchBend carries the raw 14-bit value (0x2000 is centre).
type PitchBend struct {
	Channel uint8
	Value   uint16
}

// Text is any of the textual meta events (ids 0x01-0x09). Kind holds the id.
type Text struct {
	Kind uint8
	Text string
}

type SequenceNumber struct {
	Number uint16
}

type ChannelPrefix struct {
	Channel uint8
}

type PortPrefix struct {
	Port uint8
}

type EndOfTrack struct{}

// SetTempo stores the tempo in beats per minute at full precision.
type SetTempo struct {
	BPM float64
}

type SMPTEOffset struct {
	Hours, Minutes, Seconds, Frames, SubFrames uint8
}

// TimeSignature holds the real denominator (4 for x/4), not its exponent.
type TimeSignature struct {
	Numerator             uint8
	Denominator           uint8
	ClocksPerClick        uint8
	Notated32ndPerQuarter uint8
}

type KeySignature struct {
	Fifths int8 // negative = flats
	Minor  bool
}

type SequencerSpecific struct {
	Data []byte
}

// UnknownMeta preserves a meta event with an unrecognized type id.
type UnknownMeta struct {
	Type uint8
	Data []byte
}

type SysEx struct {
	Data []byte
}

type SysExContinuation struct {
	Data []byte
}

// UnknownStatus is a stray system status byte (0xF1-0xF6, 0xF8-0xFE) found
// inside a track. It carries no data.
type UnknownStatus struct {
	Status uint8
}

func (NoteOn) isMessage()            {}
func (NoteOff) isMessage()           {}
func (PolyPressure) isMessage()      {}
func (ControlChange) isMessage()     {}
func (ProgramChange) isMessage()     {}
func (ChannelPressure) isMessage()   {}
func (PitchBend) isMessage()         {}
func (Text) isMessage()              {}
func (SequenceNumber) isMessage()    {}
func (ChannelPrefix) isMessage()     {}
func (PortPrefix) isMessage()        {}
func (EndOfTrack) isMessage()        {}
func (SetTempo) isMessage()          {}
func (SMPTEOffset) isMessage()       {}
func (TimeSignature) isMessage()     {}
func (KeySignature) isMessage()      {}
func (SequencerSpecific) isMessage() {}
func (UnknownMeta) isMessage()       {}
func (SysEx) isMessage()             {}
func (SysExContinuation) isMessage() {}
func (UnknownStatus) isMessage()     {}

func (m NoteOn) MessageChannel() uint8          { return m.Channel }
func (m NoteOff) MessageChannel() uint8         { return m.Channel }
func (m PolyPressure) MessageChannel() uint8    { return m.Channel }
func (m ControlChange) MessageChannel() uint8   { return m.Channel }
func (m ProgramChange) MessageChannel() uint8   { return m.Channel }
func (m ChannelPressure) MessageChannel() uint8 { return m.Channel }
func (m PitchBend) MessageChannel() uint8       { return m.Channel }

// IsMeta reports whether m is a meta event (status 0xFF).
func IsMeta(m Message) bool {
	switch m.(type) {
	case Text, SequenceNumber, ChannelPrefix, PortPrefix, EndOfTrack, SetTempo,
		SMPTEOffset, TimeSignature, KeySignature, SequencerSpecific, UnknownMeta:
		return true
	}
	return false
}

// MicrosecondsPerQuarter converts the tempo back to its wire value,
// rounded to the nearest microsecond.
func (m SetTempo) MicrosecondsPerQuarter() uint32 {
	if m.BPM <= 0 {
		return defaultTempoMicros
	}
	return uint32(60_000_000/m.BPM + 0.5)
}

// channelBytes returns the wire form of a voice message.
func channelBytes(m ChannelMessage) []byte {
	switch v := m.(type) {
	case NoteOn:
		return []byte{StatusNoteOn | v.Channel&0x0f, v.Key & 0x7f, v.Velocity & 0x7f}
	case NoteOff:
		return []byte{StatusNoteOff | v.Channel&0x0f, v.Key & 0x7f, v.Velocity & 0x7f}
	case PolyPressure:
		return []byte{StatusPolyPressure | v.Channel&0x0f, v.Key & 0x7f, v.Pressure & 0x7f}
	case ControlChange:
		return []byte{StatusControlChange | v.Channel&0x0f, v.Controller & 0x7f, v.Value & 0x7f}
	case ProgramChange:
		return []byte{StatusProgramChange | v.Channel&0x0f, v.Program & 0x7f}
	case ChannelPressure:
		return []byte{StatusChannelPressure | v.Channel&0x0f, v.Pressure & 0x7f}
	case PitchBend:
		return []byte{StatusPitchBend | v.Channel&0x0f, byte(v.Value & 0x7f), byte(v.Value>>7) & 0x7f}
	}
	return nil
}

func describe(m Message) string {
	if cm, ok := m.(ChannelMessage); ok {
		return gomidi.Message(channelBytes(cm)).String()
	}
	switch v := m.(type) {
	case Text:
		return fmt.Sprintf("Meta %s: %q", TextKindName(v.Kind), v.Text)
	case SequenceNumber:
		return fmt.Sprintf("Meta SequenceNumber: %d", v.Number)
	case ChannelPrefix:
		return fmt.Sprintf("Meta ChannelPrefix: %d", v.Channel)
	case PortPrefix:
		return fmt.Sprintf("Meta PortPrefix: %d", v.Port)
	case EndOfTrack:
		return "Meta EndOfTrack"
	case SetTempo:
		return fmt.Sprintf("Meta SetTempo: %.3f bpm", v.BPM)
	case SMPTEOffset:
		return fmt.Sprintf("Meta SMPTEOffset: %02d:%02d:%02d:%02d.%02d", v.Hours, v.Minutes, v.Seconds, v.Frames, v.SubFrames)
	case TimeSignature:
		return fmt.Sprintf("Meta TimeSignature: %d/%d clocks=%d 32nds=%d", v.Numerator, v.Denominator, v.ClocksPerClick, v.Notated32ndPerQuarter)
	case KeySignature:
		mode := "major"
		if v.Minor {
			mode = "minor"
		}
		return fmt.Sprintf("Meta KeySignature: %d %s", v.Fifths, mode)
	case SequencerSpecific:
		return fmt.Sprintf("Meta SequencerSpecific: % X", v.Data)
	case UnknownMeta:
		return fmt.Sprintf("Meta Unknown 0x%02X: % X", v.Type, v.Data)
	case SysEx:
		return fmt.Sprintf("SysEx: % X", v.Data)
	case SysExContinuation:
		return fmt.Sprintf("SysEx continuation: % X", v.Data)
	case UnknownStatus:
		return fmt.Sprintf("Unknown status 0x%02X", v.Status)
	}
	return fmt.Sprintf("%T", m)
}

var textKindNames = map[uint8]string{
	MetaText:           "Text",
	MetaCopyright:      "Copyright",
	MetaTrackName:      "TrackName",
	MetaInstrumentName: "InstrumentName",
	MetaLyric:          "Lyric",
	MetaMarker:         "Marker",
	MetaCuePoint:       "CuePoint",
	MetaProgramName:    "ProgramName",
	MetaDeviceName:     "DeviceName",
}

// TextKindName names a textual meta event id.
func TextKindName(kind uint8) string {
	if name, ok := textKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("Text(0x%02X)", kind)
}
