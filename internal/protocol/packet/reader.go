// Package packet provides the cursor-based byte reader/writer shared by
// every Soaprun wire structure: little-endian, tag-framed, untranscoded
// byte layout (no per-field text encoding, since Soaprun's only string
// field — the debug log message — travels as plain UTF-8).
package packet

import (
	"encoding/binary"
	"fmt"
)

// Reader reads fields from a packet body in the order the wire format
// defines them. All reads are little-endian.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (byte, error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("read u8: %d bytes remaining", r.Remaining())
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, fmt.Errorf("read u16: %d bytes remaining", r.Remaining())
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// ReadI16 reads a little-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("read u32: %d bytes remaining", r.Remaining())
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("read %d bytes: %d bytes remaining", n, r.Remaining())
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b, nil
}

// RestBytes returns a copy of every unread byte and consumes them, without
// needing a length argument.
func (r *Reader) RestBytes() []byte {
	b := make([]byte, r.Remaining())
	copy(b, r.data[r.off:])
	r.off = len(r.data)
	return b
}
