// Package texture implements the texture asset model: import settings,
// mip/array/depth slice layout, pixel conversion for previews, the asset
// file codec and the packed layout consumed by the engine.
package texture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/assetpipe/pkg/asset"
)

// MaxMipLevels is the largest mip chain an imported texture can have.
const MaxMipLevels = 14

// Texture errors.
var (
	ErrCubeMapArraySize = errors.New("cube map array size must be a multiple of 6")
	ErrNoSlices         = errors.New("texture has no slices")
	ErrInvalidLayout    = errors.New("invalid texture layout")
)

// Dimension is the texture shape requested on import.
type Dimension int32

// Texture dimensions.
const (
	Texture1D Dimension = iota
	Texture2D
	Texture3D
	TextureCube
)

// String returns a human-readable dimension name.
func (d Dimension) String() string {
	switch d {
	case Texture1D:
		return "1D Texture"
	case Texture2D:
		return "2D Texture"
	case Texture3D:
		return "3D Texture"
	case TextureCube:
		return "Texture Cube"
	default:
		return fmt.Sprintf("Dimension(%d)", int32(d))
	}
}

// Flags describe how texture content should be interpreted.
type Flags uint32

// Texture flags. Values are shared with the engine.
const (
	FlagHDR                Flags = 0x01
	FlagHasAlpha           Flags = 0x02
	FlagPremultipliedAlpha Flags = 0x04
	FlagNormalMap          Flags = 0x08
	FlagCubeMap            Flags = 0x10
	FlagVolumeMap          Flags = 0x20
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagHDR, "HDR"},
	{FlagHasAlpha, "HasAlpha"},
	{FlagPremultipliedAlpha, "PremultipliedAlpha"},
	{FlagNormalMap, "NormalMap"},
	{FlagCubeMap, "CubeMap"},
	{FlagVolumeMap, "VolumeMap"},
}

// String returns the flag names joined with '|', or "None".
func (fl Flags) String() string {
	if fl == 0 {
		return "None"
	}
	var names []string
	rest := fl
	for _, n := range flagNames {
		if fl.Has(n.flag) {
			names = append(names, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// Slice is one 2D subresource: a single mip of a single array element or
// depth layer.
type Slice struct {
	Width      int
	Height     int
	RowPitch   int
	SlicePitch int
	RawContent []byte // exactly SlicePitch bytes, source channel order
}

// Texture is a texture asset. Slices are addressed [array][mip][depth];
// for volume maps the array axis has a single entry and depth halves with
// each mip.
type Texture struct {
	asset.Base

	ImportSettings ImportSettings

	Width     int
	Height    int
	MipLevels int
	Format    Format

	arraySize int
	flags     Flags
	slices    [][][]Slice
}

// New creates an empty texture asset with default import settings.
func New() *Texture {
	return &Texture{
		Base:           asset.NewBase(asset.Texture),
		ImportSettings: DefaultImportSettings(),
	}
}

// ArraySize returns the number of array elements, or the mip 0 depth for
// volume maps.
func (t *Texture) ArraySize() int {
	return t.arraySize
}

// Flags returns the texture flags.
func (t *Texture) Flags() Flags {
	return t.flags
}

// SetArraySize changes the array size. Cube maps require a multiple of 6.
func (t *Texture) SetArraySize(n int) error {
	return t.SetLayout(n, t.flags)
}

// SetFlags changes the flags. Setting FlagCubeMap requires the current
// array size to be a multiple of 6.
func (t *Texture) SetFlags(f Flags) error {
	return t.SetLayout(t.arraySize, f)
}

// SetLayout changes array size and flags together.
func (t *Texture) SetLayout(arraySize int, f Flags) error {
	if arraySize < 0 {
		return fmt.Errorf("%w: array size %d", ErrInvalidLayout, arraySize)
	}
	if f.Has(FlagCubeMap) && arraySize%6 != 0 {
		return fmt.Errorf("%w: got %d", ErrCubeMapArraySize, arraySize)
	}
	t.arraySize = arraySize
	t.flags = f
	return nil
}

// IsNormalMap reports whether the texture was imported as a normal map.
func (t *Texture) IsNormalMap() bool {
	return t.flags.Has(FlagNormalMap)
}

// Slices returns all slices as [array][mip][depth].
func (t *Texture) Slices() [][][]Slice {
	return t.slices
}

// Slice returns one slice, or nil when out of range.
func (t *Texture) Slice(array, mip, depth int) *Slice {
	if array < 0 || array >= len(t.slices) {
		return nil
	}
	mips := t.slices[array]
	if mip < 0 || mip >= len(mips) {
		return nil
	}
	if depth < 0 || depth >= len(mips[mip]) {
		return nil
	}
	return &mips[mip][depth]
}

// IsEmpty reports whether the texture holds no slices, which is the state
// left behind by a failed load.
func (t *Texture) IsEmpty() bool {
	return t.Slice(0, 0, 0) == nil
}

// FormatName describes the pixel format, using the BC selection names for
// compressed imports.
func (t *Texture) FormatName() string {
	if t.ImportSettings.Compress {
		return t.Format.Description()
	}
	return t.Format.String()
}

func (t *Texture) reset() {
	t.ResetIdentity()
	t.ImportSettings = DefaultImportSettings()
	t.Width, t.Height, t.MipLevels, t.Format = 0, 0, 0, FormatUnknown
	t.arraySize, t.flags, t.slices = 0, 0, nil
}
