package binstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrNegativeLength is returned when a length field read from the stream is negative.
var ErrNegativeLength = errors.New("binstream: negative length")

// Reader decodes little-endian values from a byte slice. The first failure is
// sticky: later reads return zero values and Err reports the original error.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: %d at offset %d", ErrNegativeLength, n, r.pos)
		return nil
	}
	if n > r.Len() {
		r.err = fmt.Errorf("binstream: reading %d bytes at offset %d: %w", n, r.pos, io.ErrUnexpectedEOF)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// ReadFloat32 reads an IEEE-754 float32.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadBool reads a single byte; any non-zero value is true.
func (r *Reader) ReadBool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}

// ReadString reads a uvarint-prefixed UTF-8 string.
func (r *Reader) ReadString() string {
	if r.err != nil {
		return ""
	}
	n, size := binary.Uvarint(r.data[r.pos:])
	if size <= 0 {
		r.err = fmt.Errorf("binstream: bad string length at offset %d: %w", r.pos, io.ErrUnexpectedEOF)
		return ""
	}
	r.pos += size
	if n > uint64(r.Len()) {
		r.err = fmt.Errorf("binstream: string of %d bytes at offset %d: %w", n, r.pos, io.ErrUnexpectedEOF)
		return ""
	}
	return string(r.take(int(n)))
}
