package midi

const (
	defaultTempoMicros = 500_000
	DefaultBPM         = 120.0
)

// Codec holds the rendering policy for track events. Decoding does not
// depend on it.
type Codec struct {
	// RunningStatus omits a status byte equal to the previous one.
	RunningStatus bool
	// UseNoteOff emits real noteOff events; when false a noteOff is
	// written as a noteOn with velocity 0.
	UseNoteOff bool
}

// DefaultCodec emits running status and real noteOff events.
var DefaultCodec = Codec{RunningStatus: true, UseNoteOff: true}

// trackDecoder holds the running-status state of one track.
type trackDecoder struct {
	cur     *Cursor
	running uint8 // 0 = unset
}

// next decodes one event at the cursor position.
func (d *trackDecoder) next() Event {
	c := d.cur
	ev := Event{Delta: c.VLQ()}

	start := c.Offset()
	b, ok := c.Peek()
	var status uint8
	switch {
	case !ok:
		c.diag.Warnf(start, "unexpected end of track after delta time")
		ev.Message = EndOfTrack{}
		return ev
	case b&0x80 == 0:
		// running status: the peeked byte is data and stays unread
		if d.running == 0 {
			c.diag.Warnf(start, "running status without a previous status byte")
			d.running = StatusNoteOn
		}
		status = d.running
	default:
		c.ReadByte()
		status = b
		switch {
		case status < 0xF0:
			d.running = status
		case status <= 0xF7:
			d.running = 0
		}
	}

	switch {
	case status == StatusMeta:
		ev.Message = decodeMeta(c)
	case status == StatusSysEx:
		ev.Message = SysEx{Data: c.Read(int(c.VLQ()))}
	case status == StatusSysExContinuation:
		ev.Message = SysExContinuation{Data: c.Read(int(c.VLQ()))}
	case status >= 0xF0:
		c.diag.Warnf(start, "unknown event status 0x%02X", status)
		ev.Message = UnknownStatus{Status: status}
	default:
		ev.Message = decodeVoice(c, status)
	}
	return ev
}

func decodeVoice(c *Cursor, status uint8) Message {
	ch := status & 0x0f
	switch status & 0xf0 {
	case StatusNoteOff:
		return NoteOff{Channel: ch, Key: c.ReadByte(), Velocity: c.ReadByte()}
	case StatusNoteOn:
		key, vel := c.ReadByte(), c.ReadByte()
		if vel == 0 {
			return NoteOff{Channel: ch, Key: key}
		}
		return NoteOn{Channel: ch, Key: key, Velocity: vel}
	case StatusPolyPressure:
		return PolyPressure{Channel: ch, Key: c.ReadByte(), Pressure: c.ReadByte()}
	case StatusControlChange:
		return ControlChange{Channel: ch, Controller: c.ReadByte(), Value: c.ReadByte()}
	case StatusProgramChange:
		return ProgramChange{Channel: ch, Program: c.ReadByte()}
	case StatusChannelPressure:
		return ChannelPressure{Channel: ch, Pressure: c.ReadByte()}
	default: // StatusPitchBend
		lo, hi := c.ReadByte(), c.ReadByte()
		return PitchBend{Channel: ch, Value: uint16(hi&0x7f)<<7 | uint16(lo&0x7f)}
	}
}

// metaSizes lists the payload length of fixed-size meta events.
var metaSizes = map[uint8]int{
	MetaSequenceNumber: 2,
	MetaChannelPrefix:  1,
	MetaPortPrefix:     1,
	MetaEndOfTrack:     0,
	MetaSetTempo:       3,
	MetaSMPTEOffset:    5,
	MetaTimeSignature:  4,
	MetaKeySignature:   2,
}

func decodeMeta(c *Cursor) Message {
	typ := c.ReadByte()
	length := int(c.VLQ())
	start := c.Offset()

	if typ >= MetaText && typ <= MetaDeviceName {
		return Text{Kind: typ, Text: string(c.Read(length))}
	}
	if typ == MetaSequencerSpecific {
		return SequencerSpecific{Data: c.Read(length)}
	}

	want, known := metaSizes[typ]
	if !known {
		c.diag.Warnf(start, "unknown meta event type 0x%02X", typ)
		return UnknownMeta{Type: typ, Data: c.Read(length)}
	}

	p := c.Sub(length)
	if length != want {
		c.diag.Warnf(start, "meta event 0x%02X has %d payload bytes (expected %d)", typ, length, want)
	}
	switch typ {
	case MetaSequenceNumber:
		return SequenceNumber{Number: p.Uint16()}
	case MetaChannelPrefix:
		return ChannelPrefix{Channel: p.ReadByte()}
	case MetaPortPrefix:
		return PortPrefix{Port: p.ReadByte()}
	case MetaEndOfTrack:
		return EndOfTrack{}
	case MetaSetTempo:
		micros := uint32(p.ReadByte())<<16 | uint32(p.ReadByte())<<8 | uint32(p.ReadByte())
		if micros == 0 {
			c.diag.Warnf(start, "tempo of 0 microseconds per quarter note, using %v bpm", DefaultBPM)
			return SetTempo{BPM: DefaultBPM}
		}
		return SetTempo{BPM: 60_000_000 / float64(micros)}
	case MetaSMPTEOffset:
		return SMPTEOffset{Hours: p.ReadByte(), Minutes: p.ReadByte(), Seconds: p.ReadByte(), Frames: p.ReadByte(), SubFrames: p.ReadByte()}
	case MetaTimeSignature:
		ts := TimeSignature{Numerator: p.ReadByte()}
		exp := p.ReadByte()
		if exp > 7 {
			c.diag.Warnf(start, "time signature denominator exponent %d out of range", exp)
			exp = 7
		}
		ts.Denominator = 1 << exp
		ts.ClocksPerClick = p.ReadByte()
		ts.Notated32ndPerQuarter = p.ReadByte()
		return ts
	default: // MetaKeySignature
		return KeySignature{Fifths: int8(p.ReadByte()), Minor: p.ReadByte() != 0}
	}
}

// trackEncoder renders events of one track, remembering the last status
// byte written for running status.
type trackEncoder struct {
	codec   Codec
	w       *Writer
	last    uint8
	clamped int
}

func (e *trackEncoder) write(ev Event) {
	delta := ev.Delta
	if delta > MaxVLQ {
		e.clamped++
		delta = MaxVLQ
	}
	e.w.VLQ(delta)

	msg := ev.Message
	if off, ok := msg.(NoteOff); ok && !e.codec.UseNoteOff {
		msg = NoteOn{Channel: off.Channel, Key: off.Key}
	}

	if cm, ok := msg.(ChannelMessage); ok {
		data := channelBytes(cm)
		status := data[0]
		if e.codec.RunningStatus && status == e.last {
			data = data[1:]
		}
		e.last = status
		e.w.Write(data)
		return
	}

	e.last = 0
	switch v := msg.(type) {
	case SysEx:
		e.w.WriteByte(StatusSysEx)
		e.w.VLQ(uint32(len(v.Data)))
		e.w.Write(v.Data)
	case SysExContinuation:
		e.w.WriteByte(StatusSysExContinuation)
		e.w.VLQ(uint32(len(v.Data)))
		e.w.Write(v.Data)
	case UnknownStatus:
		e.w.WriteByte(v.Status)
	default:
		typ, payload := metaPayload(msg)
		e.w.WriteByte(StatusMeta)
		e.w.WriteByte(typ)
		e.w.VLQ(uint32(len(payload)))
		e.w.Write(payload)
	}
}

func metaPayload(m Message) (uint8, []byte) {
	switch v := m.(type) {
	case Text:
		return v.Kind, []byte(v.Text)
	case SequenceNumber:
		return MetaSequenceNumber, []byte{byte(v.Number >> 8), byte(v.Number)}
	case ChannelPrefix:
		return MetaChannelPrefix, []byte{v.Channel}
	case PortPrefix:
		return MetaPortPrefix, []byte{v.Port}
	case EndOfTrack:
		return MetaEndOfTrack, nil
	case SetTempo:
		us := v.MicrosecondsPerQuarter()
		return MetaSetTempo, []byte{byte(us >> 16), byte(us >> 8), byte(us)}
	case SMPTEOffset:
		return MetaSMPTEOffset, []byte{v.Hours, v.Minutes, v.Seconds, v.Frames, v.SubFrames}
	case TimeSignature:
		return MetaTimeSignature, []byte{v.Numerator, log2(v.Denominator), v.ClocksPerClick, v.Notated32ndPerQuarter}
	case KeySignature:
		var mode byte
		if v.Minor {
			mode = 1
		}
		return MetaKeySignature, []byte{byte(v.Fifths), mode}
	case SequencerSpecific:
		return MetaSequencerSpecific, v.Data
	case UnknownMeta:
		return v.Type, v.Data
	}
	return MetaText, nil
}

func log2(v uint8) uint8 {
	var n uint8
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// DecodeTrack decodes the payload of one MTrk chunk. base is the absolute
// offset of data in the file, used for warnings.
func DecodeTrack(data []byte, base int, diag *Diagnostics) *Track {
	cur := NewCursor(data, diag)
	cur.base = base
	d := &trackDecoder{cur: cur}
	t := &Track{}
	for !cur.Done() {
		t.Events = append(t.Events, d.next())
	}
	return t
}

// EncodeTrack renders the events of t (without the chunk header).
func (c Codec) EncodeTrack(t *Track) ([]byte, int) {
	enc := &trackEncoder{codec: c, w: &Writer{}}
	for _, ev := range t.Events {
		enc.write(ev)
	}
	return enc.w.Bytes(), enc.clamped
}
