package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// ErrUnsupportedPixelSize is returned by Convert for pixel sizes it cannot
// display.
var ErrUnsupportedPixelSize = errors.New("unsupported bytes per pixel")

// PixelFormat is the layout of a converted display buffer.
type PixelFormat int

// Display pixel formats.
const (
	PixelRGBA128Float PixelFormat = iota // 4 x float32, red first
	PixelBGRA32                          // 8 bits per channel, blue first
	PixelBGR24                           // 8 bits per channel, blue first
	PixelGray8
)

// BytesPerPixel returns the pixel size of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelRGBA128Float:
		return 16
	case PixelBGRA32:
		return 4
	case PixelBGR24:
		return 3
	default:
		return 1
	}
}

// PixelBuffer is a tightly packed display image built from a slice.
type PixelBuffer struct {
	Format PixelFormat
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// Convert builds a display buffer from a slice. The pixel size is taken
// from the row pitch. Red and blue are swapped for 3 and 4 byte pixels.
// Two byte pixels are treated as the XY of a normal; Z is rebuilt when
// isNormalMap is set and left at zero otherwise. The slice is not modified.
func Convert(s *Slice, isNormalMap bool) (PixelBuffer, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return PixelBuffer{}, fmt.Errorf("%w: %dx%d slice", ErrInvalidLayout, s.Width, s.Height)
	}
	bpp := s.RowPitch / s.Width
	if s.RowPitch < s.Width*bpp || len(s.RawContent) < s.RowPitch*(s.Height-1)+s.Width*bpp {
		return PixelBuffer{}, fmt.Errorf("%w: %d bytes for %dx%d with row pitch %d",
			ErrInvalidLayout, len(s.RawContent), s.Width, s.Height, s.RowPitch)
	}

	var format PixelFormat
	switch bpp {
	case 16:
		format = PixelRGBA128Float
	case 4:
		format = PixelBGRA32
	case 3, 2:
		format = PixelBGR24
	case 1:
		format = PixelGray8
	default:
		return PixelBuffer{}, fmt.Errorf("%w: %d", ErrUnsupportedPixelSize, bpp)
	}

	// Pack rows tightly before transforming them.
	rowBytes := s.Width * bpp
	packed := make([]byte, 0, rowBytes*s.Height)
	for y := 0; y < s.Height; y++ {
		off := y * s.RowPitch
		packed = append(packed, s.RawContent[off:off+rowBytes]...)
	}

	var pix []byte
	switch bpp {
	case 4, 3:
		pix = bytelayout.SwapRedBlue(packed, bpp)
	case 2:
		pix = bytelayout.ExpandTwoChannel(packed, isNormalMap)
	default:
		pix = packed
	}

	return PixelBuffer{
		Format: format,
		Width:  s.Width,
		Height: s.Height,
		Stride: s.Width * format.BytesPerPixel(),
		Pix:    pix,
	}, nil
}

// ToImage converts the buffer to an image for encoding or scaling.
func (p PixelBuffer) ToImage() image.Image {
	rect := image.Rect(0, 0, p.Width, p.Height)
	if p.Format == PixelGray8 {
		img := image.NewGray(rect)
		for y := 0; y < p.Height; y++ {
			copy(img.Pix[y*img.Stride:], p.Pix[y*p.Stride:y*p.Stride+p.Width])
		}
		return img
	}

	img := image.NewNRGBA(rect)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetNRGBA(x, y, p.at(x, y))
		}
	}
	return img
}

func (p PixelBuffer) at(x, y int) color.NRGBA {
	px := p.Pix[y*p.Stride+x*p.Format.BytesPerPixel():]
	switch p.Format {
	case PixelRGBA128Float:
		ch := func(i int) uint8 {
			v := math.Float32frombits(binary.LittleEndian.Uint32(px[i*4:]))
			return uint8(min(max(v, 0), 1)*255 + 0.5)
		}
		return color.NRGBA{R: ch(0), G: ch(1), B: ch(2), A: ch(3)}
	case PixelBGRA32:
		return color.NRGBA{R: px[2], G: px[1], B: px[0], A: px[3]}
	default:
		return color.NRGBA{R: px[2], G: px[1], B: px[0], A: 0xff}
	}
}
