package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// Asset file errors.
var (
	ErrInvalidMagic       = errors.New("invalid asset magic: expected 'NAST'")
	ErrUnsupportedVersion = errors.New("unsupported asset version")
	ErrInvalidKind        = errors.New("invalid asset kind")
	ErrKindMismatch       = errors.New("asset kind mismatch")
	ErrInvalidHash        = errors.New("invalid asset hash length")
	ErrInvalidPayload     = errors.New("invalid asset payload length")
)

// File format constants.
const (
	Magic         = "NAST"
	Version       = 1
	FileExtension = ".asset"
)

// Header is the fixed part at the start of every asset file.
type Header struct {
	Kind       Kind
	GUID       uuid.UUID
	ImportDate time.Time
	Hash       bytelayout.Hash
	SourcePath string
	Icon       []byte
}

// Settings is implemented by per-kind import settings stored between the
// header and the payload.
type Settings interface {
	Encode(w *binstream.Writer)
	Decode(r *binstream.Reader) error
}

// WriteHeader encodes h at the writer's cursor.
func WriteHeader(w *binstream.Writer, h Header) {
	w.WriteBytes([]byte(Magic))
	w.WriteUint32(Version)
	w.WriteInt32(int32(h.Kind))
	w.WriteBytes(h.GUID[:])

	var date int64
	if !h.ImportDate.IsZero() {
		date = h.ImportDate.UnixNano()
	}
	w.WriteInt64(date)

	if h.Hash.IsZero() {
		w.WriteInt32(0)
	} else {
		w.WriteInt32(bytelayout.HashSize)
		w.WriteBytes(h.Hash[:])
	}

	w.WriteString(h.SourcePath)
	w.WriteInt32(int32(len(h.Icon)))
	w.WriteBytes(h.Icon)
}

// ReadHeader decodes a header from r.
func ReadHeader(r *binstream.Reader) (Header, error) {
	var h Header

	magic := r.ReadBytes(len(Magic))
	if err := r.Err(); err != nil {
		return h, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != Magic {
		return h, ErrInvalidMagic
	}

	if version := r.ReadUint32(); r.Err() == nil && version != Version {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	h.Kind = Kind(r.ReadInt32())
	if r.Err() == nil && !h.Kind.Valid() {
		return h, fmt.Errorf("%w: %d", ErrInvalidKind, int32(h.Kind))
	}
	copy(h.GUID[:], r.ReadBytes(len(h.GUID)))

	if date := r.ReadInt64(); date != 0 {
		h.ImportDate = time.Unix(0, date)
	}

	switch n := r.ReadInt32(); n {
	case 0:
	case bytelayout.HashSize:
		copy(h.Hash[:], r.ReadBytes(bytelayout.HashSize))
	default:
		if r.Err() == nil {
			return h, fmt.Errorf("%w: %d", ErrInvalidHash, n)
		}
	}

	h.SourcePath = r.ReadString()
	if n := r.ReadInt32(); n > 0 {
		h.Icon = r.ReadBytes(int(n))
	}

	if err := r.Err(); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	return h, nil
}

// Encode builds a complete asset file: header, settings, then the
// length-prefixed payload.
func Encode(h Header, settings Settings, payload []byte) []byte {
	w := binstream.NewWriter()
	WriteHeader(w, h)
	settings.Encode(w)
	w.WriteInt32(int32(len(payload)))
	w.WriteBytes(payload)
	return w.Bytes()
}

// Decode parses a complete asset file, filling settings and returning the
// header and payload.
func Decode(data []byte, settings Settings) (Header, []byte, error) {
	r := binstream.NewReader(data)
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}

	if err := settings.Decode(r); err != nil {
		return h, nil, fmt.Errorf("reading import settings: %w", err)
	}

	n := r.ReadInt32()
	if r.Err() == nil && n < 0 {
		return h, nil, fmt.Errorf("%w: %d", ErrInvalidPayload, n)
	}
	payload := r.ReadBytes(int(n))
	if err := r.Err(); err != nil {
		return h, nil, fmt.Errorf("reading payload: %w", err)
	}
	return h, payload, nil
}

// WriteFile encodes an asset and writes it to path, creating parent
// directories as needed.
func WriteFile(path string, h Header, settings Settings, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, Encode(h, settings, payload), 0644)
}

// ReadFile reads and decodes the asset file at path. want, when not
// Unknown, must match the kind stored in the header.
func ReadFile(path string, want Kind, settings Settings) (Header, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, nil, err
	}
	h, payload, err := Decode(data, settings)
	if err != nil {
		return h, nil, err
	}
	if want != Unknown && h.Kind != want {
		return h, nil, fmt.Errorf("%w: file is %s, expected %s", ErrKindMismatch, h.Kind, want)
	}
	return h, payload, nil
}

// ReadInfo decodes only the header of the asset file at path.
func ReadInfo(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	return ReadHeader(binstream.NewReader(data))
}

// ExistingGUID returns the GUID of the asset file at path when it exists and
// holds an asset of the given kind.
func ExistingGUID(path string, kind Kind) (uuid.UUID, bool) {
	h, err := ReadInfo(path)
	if err != nil || h.Kind != kind || h.GUID == uuid.Nil {
		return uuid.Nil, false
	}
	return h.GUID, true
}
