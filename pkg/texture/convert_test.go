package texture

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		slice  Slice
		normal bool
		format PixelFormat
		want   []byte
	}{
		{
			name:   "rgba swaps red and blue",
			slice:  Slice{Width: 2, Height: 1, RowPitch: 8, SlicePitch: 8, RawContent: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			format: PixelBGRA32,
			want:   []byte{3, 2, 1, 4, 7, 6, 5, 8},
		},
		{
			name:   "rgb swaps red and blue",
			slice:  Slice{Width: 1, Height: 2, RowPitch: 3, SlicePitch: 6, RawContent: []byte{10, 20, 30, 40, 50, 60}},
			format: PixelBGR24,
			want:   []byte{30, 20, 10, 60, 50, 40},
		},
		{
			name:   "row padding is dropped",
			slice:  Slice{Width: 1, Height: 2, RowPitch: 4, SlicePitch: 8, RawContent: []byte{1, 2, 3, 0xee, 4, 5, 6, 0xee}},
			format: PixelBGRA32,
			want:   []byte{3, 2, 1, 0xee, 6, 5, 4, 0xee},
		},
		{
			name:   "two channel without normal flag",
			slice:  Slice{Width: 1, Height: 1, RowPitch: 2, SlicePitch: 2, RawContent: []byte{128, 128}},
			format: PixelBGR24,
			want:   []byte{0, 128, 128},
		},
		{
			name:   "two channel normal map rebuilds z",
			slice:  Slice{Width: 1, Height: 1, RowPitch: 2, SlicePitch: 2, RawContent: []byte{128, 128}},
			normal: true,
			format: PixelBGR24,
			want:   []byte{255, 128, 128},
		},
		{
			name:   "single channel copied",
			slice:  Slice{Width: 3, Height: 1, RowPitch: 3, SlicePitch: 3, RawContent: []byte{7, 8, 9}},
			format: PixelGray8,
			want:   []byte{7, 8, 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]byte(nil), tt.slice.RawContent...)
			buf, err := Convert(&tt.slice, tt.normal)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if buf.Format != tt.format {
				t.Errorf("format = %v, want %v", buf.Format, tt.format)
			}
			if string(buf.Pix) != string(tt.want) {
				t.Errorf("pix = %v, want %v", buf.Pix, tt.want)
			}
			if string(tt.slice.RawContent) != string(original) {
				t.Error("Convert modified the slice")
			}
		})
	}
}

func TestConvertFloat(t *testing.T) {
	raw := make([]byte, 16)
	for i, v := range []float32{1, 0.5, 0, 1} {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	buf, err := Convert(&Slice{Width: 1, Height: 1, RowPitch: 16, SlicePitch: 16, RawContent: raw}, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if buf.Format != PixelRGBA128Float || string(buf.Pix) != string(raw) {
		t.Fatalf("float pixels were altered")
	}
	got := buf.ToImage().At(0, 0).(color.NRGBA)
	if want := (color.NRGBA{R: 255, G: 128, B: 0, A: 255}); got != want {
		t.Errorf("ToImage pixel = %v, want %v", got, want)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name  string
		slice Slice
		want  error
	}{
		{"zero width", Slice{Height: 1}, ErrInvalidLayout},
		{"short content", Slice{Width: 2, Height: 2, RowPitch: 8, RawContent: make([]byte, 10)}, ErrInvalidLayout},
		{"eight bytes per pixel", Slice{Width: 1, Height: 1, RowPitch: 8, RawContent: make([]byte, 8)}, ErrUnsupportedPixelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Convert(&tt.slice, false); !errors.Is(err, tt.want) {
				t.Errorf("Convert error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestToImage(t *testing.T) {
	bgra := PixelBuffer{Format: PixelBGRA32, Width: 1, Height: 1, Stride: 4, Pix: []byte{3, 2, 1, 4}}
	if got := bgra.ToImage().At(0, 0).(color.NRGBA); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("bgra pixel = %v", got)
	}
	gray := PixelBuffer{Format: PixelGray8, Width: 2, Height: 1, Stride: 2, Pix: []byte{9, 99}}
	img, ok := gray.ToImage().(*image.Gray)
	if !ok || img.GrayAt(1, 0).Y != 99 {
		t.Errorf("gray image = %T", gray.ToImage())
	}
}

func fillImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDetectNormalMap(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"flat normal blue", fillImage(64, 64, color.NRGBA{R: 128, G: 128, B: 255, A: 255}), true},
		{"photo gray", fillImage(64, 64, color.NRGBA{R: 120, G: 120, B: 120, A: 255}), false},
		{"all black", fillImage(64, 64, color.NRGBA{A: 255}), false},
		{"transparent", fillImage(64, 64, color.NRGBA{R: 128, G: 128, B: 255}), false},
		{"pointing down", fillImage(64, 64, color.NRGBA{R: 128, G: 128, B: 0, A: 255}), false},
		{"empty", image.NewNRGBA(image.Rect(0, 0, 0, 0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectNormalMap(tt.img); got != tt.want {
				t.Errorf("DetectNormalMap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if FormatBC7Unorm.String() == "" || !FormatBC7Unorm.IsBlockCompressed() {
		t.Error("BC7 should be a named block-compressed format")
	}
	if FormatR8G8B8A8Unorm.IsBlockCompressed() {
		t.Error("RGBA8 reported as block compressed")
	}
	if Format(9999).Valid() {
		t.Error("out-of-range format reported valid")
	}
	if FormatBC1Unorm.Description() != BCFormats[1].Description {
		t.Errorf("BC1 description = %q", FormatBC1Unorm.Description())
	}
}
