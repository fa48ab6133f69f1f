package midi

import (
	"fmt"

	"midi-editor/debug"
)

// Warning is a recoverable format problem found while parsing or editing.
// Offset is the absolute byte offset in the source data, or -1 when the
// warning is not tied to a position.
type Warning struct {
	Offset  int
	Message string
}

func (w Warning) String() string {
	if w.Offset < 0 {
		return w.Message
	}
	return fmt.Sprintf("0x%06x: %s", w.Offset, w.Message)
}

// Diagnostics collects warnings in the order they were raised.
type Diagnostics struct {
	list []Warning
}

// Warnf records a warning and mirrors it to the debug log.
func (d *Diagnostics) Warnf(offset int, format string, args ...any) {
	w := Warning{Offset: offset, Message: fmt.Sprintf(format, args...)}
	d.list = append(d.list, w)
	debug.Log("midi", "%s", w)
}

// Warnings returns the collected warnings.
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	return d.list
}
