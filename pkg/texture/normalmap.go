package texture

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Normal map detection thresholds.
const (
	normalMapSamples         = 4096
	normalMapMinSampleStep   = 4
	normalMapMinAvgLength    = 0.7
	normalMapMaxAvgLength    = 1.1
	normalMapMinAvgZ         = 0.8
	normalMapMaxRejectsRatio = 0.33
)

// DetectNormalMap guesses whether img holds tangent-space normals by
// sampling up to 4096 pixels. Black and transparent pixels are skipped;
// pixels whose vector points away from the surface or is far too short
// count against the image.
func DetectNormalMap(img image.Image) bool {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return false
	}
	step := max(total/normalMapSamples, normalMapMinSampleStep)

	var (
		sum      mgl32.Vec3
		lenSum   float32
		accepted int
		rejected int
	)
	for i := 0; i < total; i += step {
		c := color.NRGBAModel.Convert(img.At(b.Min.X+i%b.Dx(), b.Min.Y+i/b.Dx())).(color.NRGBA)
		if c.A == 0 || (c.R == 0 && c.G == 0 && c.B == 0) {
			continue
		}

		v := mgl32.Vec3{unorm8ToSnorm(c.R), unorm8ToSnorm(c.G), unorm8ToSnorm(c.B)}
		l2 := v.LenSqr()
		if v.Z() < 0 || l2 < normalMapMinAvgLength*normalMapMinAvgLength {
			rejected++
			continue
		}
		sum = sum.Add(v)
		lenSum += v.Len()
		accepted++
	}

	if accepted == 0 || float32(rejected)/float32(accepted) > normalMapMaxRejectsRatio {
		return false
	}
	avgLen := lenSum / float32(accepted)
	if avgLen < normalMapMinAvgLength || avgLen > normalMapMaxAvgLength {
		return false
	}
	if sum.LenSqr() == 0 {
		return false
	}
	return sum.Normalize().Z() >= normalMapMinAvgZ
}

func unorm8ToSnorm(v uint8) float32 {
	return float32(v)/255*2 - 1
}
