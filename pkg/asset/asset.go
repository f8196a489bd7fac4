// Package asset provides the identity, header and file envelope shared by
// every asset kind the pipeline produces.
package asset

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// Kind identifies what an asset file contains.
type Kind int32

// Asset kinds. The numeric values are stored in asset file headers.
const (
	Unknown Kind = iota
	Animation
	Audio
	Material
	Mesh
	Skeleton
	Texture
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case Animation:
		return "Animation"
	case Audio:
		return "Audio"
	case Material:
		return "Material"
	case Mesh:
		return "Mesh"
	case Skeleton:
		return "Skeleton"
	case Texture:
		return "Texture"
	default:
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
}

// Valid reports whether k names a concrete asset kind.
func (k Kind) Valid() bool {
	return k > Unknown && k <= Texture
}

// IconWidth is the width in pixels of the icon stored in asset headers.
const IconWidth = 90

// Base holds the fields every asset carries.
type Base struct {
	kind Kind

	GUID       uuid.UUID
	Hash       bytelayout.Hash // content digest, assigned on save
	Icon       []byte          // PNG bytes
	FullPath   string          // asset file on disk
	SourcePath string          // file the asset was imported from
	ImportDate time.Time
}

// NewBase creates the base for an asset of the given kind.
// It panics if kind is Unknown or out of range.
func NewBase(kind Kind) Base {
	if !kind.Valid() {
		panic(fmt.Sprintf("asset: invalid kind %s", kind))
	}
	return Base{kind: kind}
}

// Kind returns the asset kind.
func (b *Base) Kind() Kind {
	return b.kind
}

// Header returns the file header describing b.
func (b *Base) Header() Header {
	return Header{
		Kind:       b.kind,
		GUID:       b.GUID,
		ImportDate: b.ImportDate,
		Hash:       b.Hash,
		SourcePath: b.SourcePath,
		Icon:       b.Icon,
	}
}

// SetHeader copies identity fields from a header read off disk. The kind is
// left alone; callers check it against Kind before applying.
func (b *Base) SetHeader(h Header) {
	b.GUID = h.GUID
	b.ImportDate = h.ImportDate
	b.Hash = h.Hash
	b.SourcePath = h.SourcePath
	b.Icon = h.Icon
}

// ResetIdentity clears everything except the kind.
func (b *Base) ResetIdentity() {
	*b = Base{kind: b.kind}
}
