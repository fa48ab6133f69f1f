package midi

// MaxVLQ is the largest value a four-byte variable-length quantity holds.
const MaxVLQ = 0x0FFFFFFF

const maxVLQBytes = 4

// DecodeVLQ decodes a variable-length quantity from the start of buf and
// returns the value and the number of bytes consumed. Decoding stops after
// four bytes even if the continuation bit is still set.
func DecodeVLQ(buf []byte) (uint32, int) {
	var v uint32
	n := 0
	for n < len(buf) && n < maxVLQBytes {
		b := buf[n]
		n++
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	return v, n
}

// EncodeVLQ encodes v using the minimum number of 7-bit groups, most
// significant group first. Values above MaxVLQ are clamped.
func EncodeVLQ(v uint32) []byte {
	if v > MaxVLQ {
		v = MaxVLQ
	}
	var tmp [maxVLQBytes]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	v >>= 7
	for v > 0 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
		v >>= 7
	}
	out := make([]byte, len(tmp)-i)
	copy(out, tmp[i:])
	return out
}
