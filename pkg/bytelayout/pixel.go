package bytelayout

import "math"

// SwapRedBlue returns a copy of src with the first and third channel of every
// pixel exchanged (RGB(A) <-> BGR(A)). bytesPerPixel must be 3 or 4; a trailing
// partial pixel is copied unchanged.
func SwapRedBlue(src []byte, bytesPerPixel int) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	if bytesPerPixel < 3 {
		return out
	}
	for i := 0; i+bytesPerPixel <= len(out); i += bytesPerPixel {
		out[i], out[i+2] = out[i+2], out[i]
	}
	return out
}

// unorm8ToSnorm maps a byte to [-1, 1].
func unorm8ToSnorm(b byte) float64 {
	return float64(b)/255*2 - 1
}

// ReconstructNormalZ derives the third component of a unit normal stored as
// two unsigned bytes and returns it remapped to a byte.
func ReconstructNormalZ(x, y byte) byte {
	nx := unorm8ToSnorm(x)
	ny := unorm8ToSnorm(y)
	zz := 1 - nx*nx - ny*ny
	if zz < 0 {
		zz = 0
	} else if zz > 1 {
		zz = 1
	}
	z := math.Sqrt(zz)
	return byte(math.Round((z + 1) * 0.5 * 255))
}

// ExpandTwoChannel converts a two-byte-per-pixel (x, y) buffer into a
// blue-first three-byte-per-pixel buffer (z, y, x). When isNormalMap is false
// the reconstructed channel is left at zero.
func ExpandTwoChannel(src []byte, isNormalMap bool) []byte {
	n := len(src) / 2
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		x := src[i*2]
		y := src[i*2+1]
		if isNormalMap {
			out[i*3] = ReconstructNormalZ(x, y)
		}
		out[i*3+1] = y
		out[i*3+2] = x
	}
	return out
}
