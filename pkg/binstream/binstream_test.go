package binstream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWriterReader_Values(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(-7)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt64(1 << 40)
	w.WriteFloat32(1.5)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteString("lod_0")
	w.WriteString("")
	w.WriteBytes([]byte{9, 8, 7})

	r := NewReader(w.Bytes())
	if v := r.ReadInt32(); v != -7 {
		t.Errorf("int32: got %d", v)
	}
	if v := r.ReadUint32(); v != 0xDEADBEEF {
		t.Errorf("uint32: got %x", v)
	}
	if v := r.ReadInt64(); v != 1<<40 {
		t.Errorf("int64: got %d", v)
	}
	if v := r.ReadFloat32(); v != 1.5 {
		t.Errorf("float32: got %f", v)
	}
	if !r.ReadBool() || r.ReadBool() {
		t.Error("bools decoded wrong")
	}
	if s := r.ReadString(); s != "lod_0" {
		t.Errorf("string: got %q", s)
	}
	if s := r.ReadString(); s != "" {
		t.Errorf("empty string: got %q", s)
	}
	if b := r.ReadBytes(3); len(b) != 3 || b[0] != 9 || b[2] != 7 {
		t.Errorf("bytes: got %v", b)
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if r.Len() != 0 {
		t.Errorf("expected stream to be consumed, %d bytes left", r.Len())
	}
}

func TestWriter_LongStringPrefix(t *testing.T) {
	s := strings.Repeat("x", 300)
	w := NewWriter()
	w.WriteString(s)
	// 300 needs a two-byte uvarint.
	if w.Len() != 302 {
		t.Errorf("expected 302 bytes, got %d", w.Len())
	}
	if got := NewReader(w.Bytes()).ReadString(); got != s {
		t.Error("long string did not survive")
	}
}

func TestWriter_ReserveAndPatch(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(1)
	at := w.Reserve32()
	w.WriteBytes([]byte{1, 2, 3, 4, 5})
	end := w.Pos()

	if err := w.Patch32(at, uint32(end-at-4)); err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if w.Pos() != end {
		t.Errorf("patch moved the cursor: %d != %d", w.Pos(), end)
	}

	r := NewReader(w.Bytes())
	r.ReadUint32()
	if got := r.ReadUint32(); got != 5 {
		t.Errorf("patched size: got %d, want 5", got)
	}

	if err := w.Patch32(w.Len()-2, 0); err == nil {
		t.Error("expected error patching past the end")
	}
}

func TestWriter_SeekOverwrite(t *testing.T) {
	w := NewWriter()
	w.WriteBytes([]byte{1, 2, 3, 4})
	if err := w.Seek(1); err != nil {
		t.Fatal(err)
	}
	w.WriteBytes([]byte{9, 9, 9, 9})
	want := []byte{1, 9, 9, 9, 9}
	if string(w.Bytes()) != string(want) {
		t.Errorf("got %v, want %v", w.Bytes(), want)
	}
	if err := w.Seek(10); err == nil {
		t.Error("expected error seeking past the end")
	}
}

func TestReader_StickyError(t *testing.T) {
	r := NewReader([]byte{1, 2})
	r.ReadUint32()
	if !errors.Is(r.Err(), io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", r.Err())
	}
	first := r.Err()
	if v := r.ReadInt32(); v != 0 {
		t.Errorf("reads after failure should return zero, got %d", v)
	}
	if r.Err() != first {
		t.Error("error should be sticky")
	}
}

func TestReader_NegativeLength(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if b := r.ReadBytes(-1); b != nil {
		t.Errorf("expected nil, got %v", b)
	}
	if !errors.Is(r.Err(), ErrNegativeLength) {
		t.Errorf("expected ErrNegativeLength, got %v", r.Err())
	}
}

func TestReader_TruncatedString(t *testing.T) {
	w := NewWriter()
	w.WriteString("hello")
	data := w.Bytes()[:3]
	r := NewReader(data)
	r.ReadString()
	if !errors.Is(r.Err(), io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", r.Err())
	}
}
