package notes

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"math"
	"time"

	"github.com/pkg/errors"
)

// packet is the record read by the stepper motor player.
type packet struct {
	Pause     uint32 // microseconds
	Frequency uint32 // Hz
	Duration  uint32 // microseconds
}

// WriteBinary writes one 12-byte little-endian packet per note and returns
// the number of notes written.
func WriteBinary(w io.Writer, seq iter.Seq[Note]) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for note := range seq {
		p := packet{
			Pause:     usec(note.Pause),
			Frequency: uint32(note.Frequency),
			Duration:  usec(note.Duration),
		}
		if err := binary.Write(bw, binary.LittleEndian, p); err != nil {
			return n, errors.Wrap(err, "write note packet")
		}
		n++
	}
	return n, errors.Wrap(bw.Flush(), "flush note packets")
}

// ScannerOptions configures WriteScanner.
type ScannerOptions struct {
	// Overhead is subtracted from every step delay.
	Overhead time.Duration
	// Travel is the number of steps after which the head turns around.
	Travel int
}

// DefaultScannerOptions matches the flatbed scanner player firmware.
func DefaultScannerOptions() ScannerOptions {
	return ScannerOptions{Overhead: 76 * time.Microsecond, Travel: 2000}
}

// WriteScanner writes notes as a C initializer list of
// {pause, steps, delay, direction} rows. The direction flips whenever the
// head position reaches 0 or Travel.
func WriteScanner(w io.Writer, seq iter.Seq[Note], opts ScannerOptions) (int, error) {
	bw := bufio.NewWriter(w)
	overhead := float64(opts.Overhead.Microseconds())
	position, direction := 0, 1
	n := 0
	for note := range seq {
		var steps, delay int
		if note.Frequency > 0 {
			steps = int(math.Round(float64(note.Duration.Microseconds()) * note.Frequency / 1e6))
			delay = int(math.Max(math.Round(1e6/note.Frequency)-overhead, 0))
		}
		forward := 0
		if direction == 1 {
			forward = 1
		}
		if _, err := fmt.Fprintf(bw, "{%d, %d, %d, %d},\n", note.Pause.Microseconds(), steps, delay, forward); err != nil {
			return n, errors.Wrap(err, "write scanner row")
		}
		n++

		position += steps * direction
		if position >= opts.Travel {
			direction = -1
		} else if position <= 0 {
			direction = 1
		}
	}
	return n, errors.Wrap(bw.Flush(), "flush scanner rows")
}

func usec(d time.Duration) uint32 {
	us := d.Microseconds()
	if us < 0 {
		return 0
	}
	if us > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(us)
}
