package importer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/texture"
)

// DefaultMaxSize is the largest subresource stream an import may produce.
const DefaultMaxSize int64 = 4 << 30

// pixelLayout is the uncompressed layout a source decodes to.
type pixelLayout int

const (
	layoutRGBA8 pixelLayout = iota
	layoutGray8
)

func (l pixelLayout) format() texture.Format {
	if l == layoutGray8 {
		return texture.FormatR8Unorm
	}
	return texture.FormatR8G8B8A8Unorm
}

func (l pixelLayout) bytesPerPixel() int {
	if l == layoutGray8 {
		return 1
	}
	return 4
}

// Image imports textures from PNG, JPEG, GIF, BMP, WebP, TIFF and TGA
// files. It produces uncompressed 8-bit RGBA or R8 textures with full mip
// chains and never block compresses.
type Image struct {
	// MaxSize caps the subresource stream in bytes. Zero means
	// DefaultMaxSize.
	MaxSize int64
}

// NewImage creates an image texture importer.
func NewImage() *Image {
	return &Image{}
}

// ImportTexture decodes settings.Sources into a texture. Failures are
// texture.ImportError codes.
func (imp *Image) ImportTexture(ctx context.Context, settings texture.ImportSettings) (*texture.ImportResult, error) {
	log := logger.Named("importer")

	if settings.Compress {
		log.Warn("block compression is not available", zap.Stringer("format", settings.OutputFormat()))
		return nil, texture.ErrImportCompress
	}
	if len(settings.Sources) == 0 {
		return nil, texture.ErrImportFileNotFound
	}

	sources := make([]*image.NRGBA, 0, len(settings.Sources))
	layout := layoutRGBA8
	for i, path := range settings.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeImageFile(path)
		if err != nil {
			log.Error("failed to decode source image", logger.File(path), zap.Error(err))
			if errors.Is(err, fs.ErrNotExist) {
				return nil, texture.ErrImportFileNotFound
			}
			return nil, texture.ErrImportLoad
		}

		l := classify(img)
		if i == 0 {
			layout = l
		} else if l != layout {
			return nil, texture.ErrImportFormatMismatch
		}
		if i > 0 && img.Bounds().Size() != sources[0].Bounds().Size() {
			return nil, texture.ErrImportSizeMismatch
		}
		sources = append(sources, toNRGBA(img))
	}

	b := sources[0].Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, texture.ErrImportLoad
	}

	var flags texture.Flags
	switch settings.Dimension {
	case texture.TextureCube:
		if len(sources)%6 != 0 {
			log.Error("cube map needs six faces per element", zap.Int("sources", len(sources)))
			return nil, texture.ErrImportUnknown
		}
		if width != height {
			return nil, texture.ErrImportSizeMismatch
		}
		flags |= texture.FlagCubeMap
	case texture.Texture3D:
		flags |= texture.FlagVolumeMap
	}

	fullChain := bits.Len(uint(max(width, height)))
	mipLevels := min(fullChain, texture.MaxMipLevels-1)
	if settings.MipLevels > 0 {
		if settings.MipLevels > fullChain {
			log.Error("more mip levels requested than the image supports",
				zap.Int("requested", settings.MipLevels), zap.Int("max", fullChain))
			return nil, texture.ErrImportMipmapGeneration
		}
		mipLevels = min(settings.MipLevels, texture.MaxMipLevels-1)
	}

	volume := flags.Has(texture.FlagVolumeMap)
	if size := streamSize(width, height, len(sources), mipLevels, volume, layout); size > imp.maxSize() {
		log.Error("texture too large", zap.Int64("bytes", size))
		return nil, texture.ErrImportMaxSizeExceeded
	}

	if layout == layoutRGBA8 {
		if hasAlpha(sources) {
			flags |= texture.FlagHasAlpha
		} else if texture.DetectNormalMap(sources[0]) {
			flags |= texture.FlagNormalMap
		}
	}

	var slices [][][]texture.Slice
	if volume {
		slices = [][][]texture.Slice{volumeChain(sources, mipLevels, layout)}
	} else {
		for _, src := range sources {
			slices = append(slices, mipChain(src, mipLevels, layout))
		}
	}

	w := binstream.NewWriter()
	texture.EncodeSlices(w, slices)
	return &texture.ImportResult{
		Info: texture.ImportInfo{
			Width:     width,
			Height:    height,
			ArraySize: len(sources),
			MipLevels: mipLevels,
			Format:    layout.format(),
			Flags:     flags,
		},
		Data: w.Bytes(),
	}, nil
}

func (imp *Image) maxSize() int64 {
	if imp.MaxSize > 0 {
		return imp.MaxSize
	}
	return DefaultMaxSize
}

// decodeImageFile picks a decoder from the file extension.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var decode func(io.Reader) (image.Image, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		decode = png.Decode
	case ".jpg", ".jpeg":
		decode = jpeg.Decode
	case ".gif":
		decode = gif.Decode
	case ".bmp":
		decode = bmp.Decode
	case ".webp":
		decode = webp.Decode
	case ".tif", ".tiff":
		decode = tiff.Decode
	case ".tga":
		decode = tga.Decode
	default:
		return nil, fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
	return decode(f)
}

func classify(img image.Image) pixelLayout {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return layoutGray8
	default:
		return layoutRGBA8
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func hasAlpha(images []*image.NRGBA) bool {
	for _, img := range images {
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 0xff {
				return true
			}
		}
	}
	return false
}

func streamSize(width, height, count, mipLevels int, volume bool, layout pixelLayout) int64 {
	depths := texture.DepthPerMip(count, mipLevels, volume)
	outer := count
	if volume {
		outer = 1
	}
	var size int64
	for mip, depth := range depths {
		w, h := mipSize(width, mip), mipSize(height, mip)
		perSlice := int64(w*h*layout.bytesPerPixel()) + 16
		size += perSlice * int64(depth)
	}
	return size * int64(outer)
}

func mipSize(size, mip int) int {
	return max(size>>mip, 1)
}

func downscale(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func mipChain(src *image.NRGBA, mipLevels int, layout pixelLayout) [][]texture.Slice {
	b := src.Bounds()
	chain := make([][]texture.Slice, mipLevels)
	level := src
	for mip := range chain {
		if mip > 0 {
			level = downscale(level, mipSize(b.Dx(), mip), mipSize(b.Dy(), mip))
		}
		chain[mip] = []texture.Slice{makeSlice(level, layout)}
	}
	return chain
}

// volumeChain builds mips for a volume whose depth layers are layers. Each
// level halves depth by averaging neighbouring layers.
func volumeChain(layers []*image.NRGBA, mipLevels int, layout pixelLayout) [][]texture.Slice {
	b := layers[0].Bounds()
	depths := texture.DepthPerMip(len(layers), mipLevels, true)
	chain := make([][]texture.Slice, mipLevels)
	level := layers
	for mip := range chain {
		if mip > 0 {
			next := make([]*image.NRGBA, depths[mip])
			for i := range next {
				a := level[min(2*i, len(level)-1)]
				c := level[min(2*i+1, len(level)-1)]
				next[i] = downscale(average(a, c), mipSize(b.Dx(), mip), mipSize(b.Dy(), mip))
			}
			level = next
		}
		for _, layer := range level {
			chain[mip] = append(chain[mip], makeSlice(layer, layout))
		}
	}
	return chain
}

func average(a, b *image.NRGBA) *image.NRGBA {
	if a == b {
		return a
	}
	out := image.NewNRGBA(a.Rect)
	for i := range out.Pix {
		out.Pix[i] = uint8((uint16(a.Pix[i]) + uint16(b.Pix[i]) + 1) / 2)
	}
	return out
}

func makeSlice(img *image.NRGBA, layout pixelLayout) texture.Slice {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bpp := layout.bytesPerPixel()
	s := texture.Slice{
		Width:      w,
		Height:     h,
		RowPitch:   w * bpp,
		SlicePitch: w * h * bpp,
	}
	if layout == layoutRGBA8 {
		s.RawContent = make([]byte, s.SlicePitch)
		for y := 0; y < h; y++ {
			copy(s.RawContent[y*s.RowPitch:], img.Pix[y*img.Stride:y*img.Stride+s.RowPitch])
		}
		return s
	}

	s.RawContent = make([]byte, 0, s.SlicePitch)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			s.RawContent = append(s.RawContent, row[x])
		}
	}
	return s
}
