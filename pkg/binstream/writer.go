// Package binstream provides little-endian binary writers and readers over
// in-memory buffers. The writer exposes an explicit cursor so that length
// fields can be reserved up front and patched once the data that follows
// them has been written.
package binstream

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer is a growable little-endian byte buffer with a movable cursor.
// Writes overwrite existing bytes at the cursor and extend the buffer when
// they run past its end.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written buffer. The slice aliases the writer's storage.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the total number of bytes in the buffer.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Pos returns the cursor position.
func (w *Writer) Pos() int {
	return w.pos
}

// Seek moves the cursor to an absolute position inside the buffer.
func (w *Writer) Seek(pos int) error {
	if pos < 0 || pos > len(w.buf) {
		return fmt.Errorf("binstream: seek to %d outside buffer of %d bytes", pos, len(w.buf))
	}
	w.pos = pos
	return nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, len(w.buf), max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		}
		w.buf = w.buf[:end]
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

// WriteBytes writes raw bytes with no length prefix.
func (w *Writer) WriteBytes(p []byte) {
	w.Write(p)
}

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteInt64 writes a little-endian int64.
func (w *Writer) WriteInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.Write(b[:])
}

// WriteFloat32 writes an IEEE-754 float32.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteBool writes a single byte, 1 for true.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.Write([]byte{1})
		return
	}
	w.Write([]byte{0})
}

// WriteString writes a uvarint byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(s)))
	w.Write(b[:n])
	w.Write([]byte(s))
}

// Reserve32 writes a zero uint32 placeholder and returns its position.
func (w *Writer) Reserve32() int {
	at := w.pos
	w.WriteUint32(0)
	return at
}

// Patch32 overwrites the uint32 at the given position without moving the cursor.
func (w *Writer) Patch32(at int, v uint32) error {
	if at < 0 || at+4 > len(w.buf) {
		return fmt.Errorf("binstream: patch at %d outside buffer of %d bytes", at, len(w.buf))
	}
	binary.LittleEndian.PutUint32(w.buf[at:], v)
	return nil
}
