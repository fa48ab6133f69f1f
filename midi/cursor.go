package midi

import "bytes"

// Cursor is a bounds-checked sequential reader over an in-memory buffer.
// Reading past the end never fails: it records a warning and yields zero.
type Cursor struct {
	buf  []byte
	pos  int
	base int // absolute offset of buf[0], for warnings
	diag *Diagnostics
}

// NewCursor returns a cursor over buf reporting to diag (which may be nil).
func NewCursor(buf []byte, diag *Diagnostics) *Cursor {
	if diag == nil {
		diag = &Diagnostics{}
	}
	return &Cursor{buf: buf, diag: diag}
}

// Offset returns the absolute offset of the next byte.
func (c *Cursor) Offset() int { return c.base + c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Done reports whether every byte has been consumed.
func (c *Cursor) Done() bool { return c.pos >= len(c.buf) }

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// ReadByte consumes one byte. Past the end it warns and returns 0.
func (c *Cursor) ReadByte() byte {
	if c.pos >= len(c.buf) {
		c.diag.Warnf(c.Offset(), "unexpected end of data")
		return 0
	}
	b := c.buf[c.pos]
	c.pos++
	return b
}

// Read consumes up to n bytes. A short read warns and returns what exists.
func (c *Cursor) Read(n int) []byte {
	if n > c.Remaining() {
		c.diag.Warnf(c.Offset(), "truncated data (expected %d bytes, got %d)", n, c.Remaining())
		n = c.Remaining()
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out
}

// Uint16 reads a big-endian uint16.
func (c *Cursor) Uint16() uint16 {
	hi := c.ReadByte()
	lo := c.ReadByte()
	return uint16(hi)<<8 | uint16(lo)
}

// Uint32 reads a big-endian uint32.
func (c *Cursor) Uint32() uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(c.ReadByte())
	}
	return v
}

// VLQ reads a variable-length quantity of at most four bytes.
func (c *Cursor) VLQ() uint32 {
	var v uint32
	for i := 0; i < maxVLQBytes; i++ {
		b := c.ReadByte()
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	return v
}

// Sub consumes the next n bytes (fewer if truncated) and returns a cursor
// bounded to them that shares this cursor's diagnostics.
func (c *Cursor) Sub(n int) *Cursor {
	start := c.Offset()
	data := c.Read(n)
	return &Cursor{buf: data, base: start, diag: c.diag}
}

// Writer is the rendering counterpart of Cursor.
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Uint16 writes a big-endian uint16.
func (w *Writer) Uint16(v uint16) {
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// Uint32 writes a big-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// VLQ writes v as a variable-length quantity.
func (w *Writer) VLQ(v uint32) {
	w.buf.Write(EncodeVLQ(v))
}

func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
