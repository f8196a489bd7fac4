// Package bytelayout provides the byte-level helpers shared by the asset codecs:
// alignment arithmetic, content hashing and raw pixel transforms.
package bytelayout

import "fmt"

// IsPow2 returns true if v is a positive power of two.
func IsPow2(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// AlignUp rounds size up to the next multiple of alignment.
// alignment must be a power of two.
func AlignUp(size, alignment int) int {
	mask := alignmentMask(alignment)
	return (size + mask) &^ mask
}

// PadTo returns a copy of data zero-padded to a multiple of alignment.
// The returned slice never aliases data.
func PadTo(data []byte, alignment int) []byte {
	out := make([]byte, AlignUp(len(data), alignment))
	copy(out, data)
	return out
}

func alignmentMask(alignment int) int {
	if !IsPow2(alignment) {
		panic(fmt.Sprintf("bytelayout: alignment %d is not a power of two", alignment))
	}
	return alignment - 1
}
