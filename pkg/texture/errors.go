package texture

import "fmt"

// ImportError is the result code returned across the importer boundary.
// Each non-zero code names a distinct failure reason.
type ImportError uint32

// Import result codes.
const (
	ImportSucceeded           ImportError = iota
	ErrImportUnknown                      // unknown failure
	ErrImportCompress                     // block compression failed
	ErrImportDecompress                   // block decompression failed
	ErrImportLoad                         // a source could not be decoded
	ErrImportMipmapGeneration             // mip chain could not be built
	ErrImportMaxSizeExceeded              // subresources exceed 4 GiB
	ErrImportSizeMismatch                 // sources differ in size
	ErrImportFormatMismatch               // sources differ in pixel format
	ErrImportFileNotFound                 // a source file is missing
)

// Error returns the human-readable reason.
func (e ImportError) Error() string {
	switch e {
	case ImportSucceeded:
		return "texture import succeeded"
	case ErrImportUnknown:
		return "texture import failed for an unknown reason"
	case ErrImportCompress:
		return "failed to compress image"
	case ErrImportDecompress:
		return "failed to decompress image"
	case ErrImportLoad:
		return "failed to load image"
	case ErrImportMipmapGeneration:
		return "failed to generate mipmaps"
	case ErrImportMaxSizeExceeded:
		return "resulting image exceeds the maximum size of 4 GiB"
	case ErrImportSizeMismatch:
		return "all source images must have the same size"
	case ErrImportFormatMismatch:
		return "all source images must have the same pixel format"
	case ErrImportFileNotFound:
		return "source image file not found"
	default:
		return fmt.Sprintf("texture import error %d", uint32(e))
	}
}
