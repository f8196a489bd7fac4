package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// ScaleImage uniformly scales img by ratio. The result is at least 1x1.
func ScaleImage(img image.Image, ratio float64) *image.NRGBA {
	b := img.Bounds()
	w := max(int(float64(b.Dx())*ratio+0.5), 1)
	h := max(int(float64(b.Dy())*ratio+0.5), 1)
	return resize(img, w, h)
}

// Thumbnail fits img inside a width x height box keeping its aspect ratio.
func Thumbnail(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}
	ratio := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	return ScaleImage(img, ratio)
}

func resize(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeIcon decodes PNG icon bytes stored in an asset header.
func DecodeIcon(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding icon: %w", err)
	}
	return img, nil
}

// IconFromImage scales img down by ratio and encodes it as the PNG icon.
func IconFromImage(img image.Image, ratio float64) ([]byte, error) {
	return EncodePNG(ScaleImage(img, ratio))
}
