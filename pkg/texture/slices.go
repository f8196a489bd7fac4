package texture

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// Dimension warnings returned by ValidateDimensions.
var (
	ErrDimensionNotMultipleOf4 = errors.New("image dimensions not a multiple of 4")
	ErrDimensionNotSquare      = errors.New("non-square image (width and height not equal)")
	ErrDimensionNotPow2        = errors.New("image dimensions not power of 2")
)

const sliceHeaderSize = 16

// DepthPerMip returns the depth of each mip level. Volume maps start at
// arraySize and halve per level down to 1; everything else has depth 1.
func DepthPerMip(arraySize, mipLevels int, volume bool) []int {
	depths := make([]int, mipLevels)
	depth := 1
	if volume {
		depth = max(arraySize, 1)
	}
	for i := range depths {
		depths[i] = depth
		if volume {
			depth = max(depth>>1, 1)
		}
	}
	return depths
}

// DecodeSlices reads subresources in array, mip, depth order. Each slice is
// an i32 width, height, row pitch and slice pitch followed by slice pitch
// bytes.
func DecodeSlices(data []byte, arraySize, mipLevels int, volume bool) ([][][]Slice, error) {
	if arraySize <= 0 || mipLevels <= 0 || mipLevels > MaxMipLevels {
		return nil, fmt.Errorf("%w: array size %d, mip levels %d", ErrInvalidLayout, arraySize, mipLevels)
	}

	depths := DepthPerMip(arraySize, mipLevels, volume)
	outer := arraySize
	if volume {
		outer = 1
	}

	count := 0
	for _, d := range depths {
		count += d
	}
	if outer*count > len(data)/sliceHeaderSize {
		return nil, fmt.Errorf("%d slices do not fit in %d bytes: %w", outer*count, len(data), io.ErrUnexpectedEOF)
	}

	r := binstream.NewReader(data)
	slices := make([][][]Slice, outer)
	for i := range slices {
		slices[i] = make([][]Slice, mipLevels)
		for mip := range slices[i] {
			slices[i][mip] = make([]Slice, depths[mip])
			for d := range slices[i][mip] {
				s := &slices[i][mip][d]
				s.Width = int(r.ReadInt32())
				s.Height = int(r.ReadInt32())
				s.RowPitch = int(r.ReadInt32())
				s.SlicePitch = int(r.ReadInt32())
				s.RawContent = r.ReadBytes(s.SlicePitch)
			}
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("reading slices of array element %d: %w", i, err)
		}
	}
	return slices, nil
}

// EncodeSlices writes slices in the layout DecodeSlices reads.
func EncodeSlices(w *binstream.Writer, slices [][][]Slice) {
	for _, mips := range slices {
		for _, depth := range mips {
			for _, s := range depth {
				w.WriteInt32(int32(s.Width))
				w.WriteInt32(int32(s.Height))
				w.WriteInt32(int32(s.RowPitch))
				w.WriteInt32(int32(s.SlicePitch))
				w.WriteBytes(s.RawContent)
			}
		}
	}
}

// ValidateDimensions returns the dimension rules an image breaks. The
// result only warrants a warning; such images still import.
func ValidateDimensions(width, height int) []error {
	var warnings []error
	if width%4 != 0 || height%4 != 0 {
		warnings = append(warnings, ErrDimensionNotMultipleOf4)
	}
	if width != height {
		warnings = append(warnings, ErrDimensionNotSquare)
	}
	if !bytelayout.IsPow2(width) || !bytelayout.IsPow2(height) {
		warnings = append(warnings, ErrDimensionNotPow2)
	}
	return warnings
}
