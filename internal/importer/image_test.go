package importer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"

	"github.com/Faultbox/assetpipe/pkg/texture"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

var (
	red         = color.NRGBA{R: 200, G: 50, B: 50, A: 255}
	translucent = color.NRGBA{R: 200, G: 50, B: 50, A: 128}
	flatBlue    = color.NRGBA{R: 128, G: 128, B: 255, A: 255}
)

func importImage(t *testing.T, imp *Image, settings texture.ImportSettings) *texture.ImportResult {
	t.Helper()
	res, err := imp.ImportTexture(context.Background(), settings)
	if err != nil {
		t.Fatalf("ImportTexture: %v", err)
	}
	return res
}

func sources(paths ...string) texture.ImportSettings {
	s := texture.DefaultImportSettings()
	s.Sources = paths
	return s
}

func TestImageImport2D(t *testing.T) {
	path := writePNG(t, t.TempDir(), "brick.png", solid(16, 8, red))
	res := importImage(t, NewImage(), sources(path))

	info := res.Info
	if info.Width != 16 || info.Height != 8 || info.ArraySize != 1 || info.MipLevels != 5 {
		t.Fatalf("info = %+v", info)
	}
	if info.Format != texture.FormatR8G8B8A8Unorm || info.Flags != 0 {
		t.Errorf("format %v flags %v", info.Format, info.Flags)
	}

	slices, err := texture.DecodeSlices(res.Data, 1, info.MipLevels, false)
	if err != nil {
		t.Fatalf("DecodeSlices: %v", err)
	}
	sizes := [][2]int{{16, 8}, {8, 4}, {4, 2}, {2, 1}, {1, 1}}
	for mip, want := range sizes {
		s := slices[0][mip][0]
		if s.Width != want[0] || s.Height != want[1] || s.RowPitch != want[0]*4 || len(s.RawContent) != s.SlicePitch {
			t.Errorf("mip %d = %dx%d pitch %d", mip, s.Width, s.Height, s.RowPitch)
		}
	}
	if px := slices[0][0][0].RawContent[:4]; px[0] != red.R || px[1] != red.G || px[2] != red.B || px[3] != red.A {
		t.Errorf("first pixel = %v, want source RGBA order", px)
	}
}

func TestImageImportFlags(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		img  image.Image
		want texture.Flags
	}{
		{"opaque", solid(8, 8, red), 0},
		{"alpha", solid(8, 8, translucent), texture.FlagHasAlpha},
		{"normal map", solid(8, 8, flatBlue), texture.FlagNormalMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := importImage(t, NewImage(), sources(writePNG(t, dir, tt.name+".png", tt.img)))
			if res.Info.Flags != tt.want {
				t.Errorf("flags = %v, want %v", res.Info.Flags, tt.want)
			}
		})
	}
}

func TestImageImportGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = byte(i * 10)
	}
	res := importImage(t, NewImage(), sources(writePNG(t, t.TempDir(), "height.png", gray)))
	if res.Info.Format != texture.FormatR8Unorm {
		t.Fatalf("format = %v, want R8", res.Info.Format)
	}
	slices, err := texture.DecodeSlices(res.Data, 1, res.Info.MipLevels, false)
	if err != nil {
		t.Fatal(err)
	}
	top := slices[0][0][0]
	if top.RowPitch != 4 || string(top.RawContent) != string(gray.Pix) {
		t.Errorf("gray slice pitch %d content %v", top.RowPitch, top.RawContent)
	}
}

func TestImageImportTGA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decal.tga")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tga.Encode(f, solid(4, 4, translucent)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	res := importImage(t, NewImage(), sources(path))
	if res.Info.Width != 4 || !res.Info.Flags.Has(texture.FlagHasAlpha) {
		t.Errorf("info = %+v", res.Info)
	}
}

func TestImageImportCube(t *testing.T) {
	dir := t.TempDir()
	var faces []string
	for i := 0; i < 6; i++ {
		faces = append(faces, writePNG(t, dir, string(rune('a'+i))+".png", solid(4, 4, red)))
	}
	settings := sources(faces...)
	settings.Dimension = texture.TextureCube
	settings.MipLevels = 2

	res := importImage(t, NewImage(), settings)
	if res.Info.ArraySize != 6 || res.Info.MipLevels != 2 || !res.Info.Flags.Has(texture.FlagCubeMap) {
		t.Fatalf("info = %+v", res.Info)
	}
	if _, err := texture.DecodeSlices(res.Data, 6, 2, false); err != nil {
		t.Errorf("DecodeSlices: %v", err)
	}
}

func TestImageImportVolume(t *testing.T) {
	dir := t.TempDir()
	var layers []string
	for i, v := range []uint8{0, 200, 0, 200} {
		c := color.NRGBA{R: v, G: v, B: v, A: 255}
		layers = append(layers, writePNG(t, dir, string(rune('a'+i))+".png", solid(4, 4, c)))
	}
	settings := sources(layers...)
	settings.Dimension = texture.Texture3D

	res := importImage(t, NewImage(), settings)
	if res.Info.ArraySize != 4 || res.Info.MipLevels != 3 || !res.Info.Flags.Has(texture.FlagVolumeMap) {
		t.Fatalf("info = %+v", res.Info)
	}
	slices, err := texture.DecodeSlices(res.Data, 4, 3, true)
	if err != nil {
		t.Fatalf("DecodeSlices: %v", err)
	}
	for mip, depth := range []int{4, 2, 1} {
		if len(slices[0][mip]) != depth {
			t.Errorf("mip %d depth = %d, want %d", mip, len(slices[0][mip]), depth)
		}
	}
	if v := slices[0][1][0].RawContent[0]; v < 99 || v > 101 {
		t.Errorf("averaged layer value = %d, want about 100", v)
	}
}

func TestImageImportErrors(t *testing.T) {
	dir := t.TempDir()
	small := writePNG(t, dir, "small.png", solid(4, 4, red))
	big := writePNG(t, dir, "big.png", solid(8, 8, red))
	wide := writePNG(t, dir, "wide.png", solid(8, 4, red))
	gray := writePNG(t, dir, "gray.png", image.NewGray(image.Rect(0, 0, 4, 4)))
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	unknown := filepath.Join(dir, "image.xyz")
	if err := os.WriteFile(unknown, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		imp    *Image
		adjust func(*texture.ImportSettings)
		paths  []string
		want   texture.ImportError
	}{
		{name: "no sources", want: texture.ErrImportFileNotFound},
		{name: "missing file", paths: []string{filepath.Join(dir, "none.png")}, want: texture.ErrImportFileNotFound},
		{name: "undecodable", paths: []string{garbage}, want: texture.ErrImportLoad},
		{name: "unknown extension", paths: []string{unknown}, want: texture.ErrImportLoad},
		{name: "size mismatch", paths: []string{small, big}, want: texture.ErrImportSizeMismatch},
		{name: "format mismatch", paths: []string{small, gray}, want: texture.ErrImportFormatMismatch},
		{
			name:   "compression requested",
			paths:  []string{small},
			adjust: func(s *texture.ImportSettings) { s.Compress = true },
			want:   texture.ErrImportCompress,
		},
		{
			name:   "too many mips",
			paths:  []string{small},
			adjust: func(s *texture.ImportSettings) { s.MipLevels = 5 },
			want:   texture.ErrImportMipmapGeneration,
		},
		{
			name:  "size cap",
			imp:   &Image{MaxSize: 64},
			paths: []string{small},
			want:  texture.ErrImportMaxSizeExceeded,
		},
		{
			name:   "cube without six faces",
			paths:  []string{small, small},
			adjust: func(s *texture.ImportSettings) { s.Dimension = texture.TextureCube },
			want:   texture.ErrImportUnknown,
		},
		{
			name:   "non-square cube",
			paths:  []string{wide, wide, wide, wide, wide, wide},
			adjust: func(s *texture.ImportSettings) { s.Dimension = texture.TextureCube },
			want:   texture.ErrImportSizeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := tt.imp
			if imp == nil {
				imp = NewImage()
			}
			settings := sources(tt.paths...)
			if tt.adjust != nil {
				tt.adjust(&settings)
			}
			_, err := imp.ImportTexture(context.Background(), settings)
			if !errors.Is(err, tt.want) {
				t.Errorf("ImportTexture error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImageImportIntoTexture(t *testing.T) {
	path := writePNG(t, t.TempDir(), "floor.png", solid(32, 32, red))
	tex := texture.New()
	if err := tex.Import(context.Background(), NewImage(), path); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tex.IsEmpty() || tex.MipLevels != 6 || len(tex.Icon) == 0 {
		t.Errorf("texture mips %d icon %d bytes", tex.MipLevels, len(tex.Icon))
	}
}
