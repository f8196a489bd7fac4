package raster

import (
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/Faultbox/assetpipe/pkg/geometry"
)

var _ geometry.Rasterizer = (*Renderer)(nil)

func cubeLOD(t *testing.T) *geometry.MeshLOD {
	t.Helper()
	g, err := geometry.NewPrimitive(geometry.DefaultPrimitiveInfo(geometry.PrimitiveCube))
	if err != nil {
		t.Fatalf("NewPrimitive: %v", err)
	}
	return g.LODGroup(0).LODs[0]
}

func TestRenderCube(t *testing.T) {
	img, err := New().RenderToBitmap(cubeLOD(t), 64, 48)
	if err != nil {
		t.Fatalf("RenderToBitmap: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("size = %v", b.Size())
	}

	corner := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	center := color.NRGBAModel.Convert(img.At(32, 24)).(color.NRGBA)
	if corner.R > 50 || corner.R < 40 {
		t.Errorf("corner = %v, want background", corner)
	}
	if center == corner {
		t.Error("center pixel shows background, cube not drawn")
	}
}

func TestRenderErrors(t *testing.T) {
	lod := cubeLOD(t)
	tests := []struct {
		name string
		lod  *geometry.MeshLOD
		w, h int
		want error
	}{
		{"nil lod", nil, 8, 8, ErrNothingToRender},
		{"empty lod", &geometry.MeshLOD{Name: "empty"}, 8, 8, ErrNothingToRender},
		{"zero size", lod, 0, 8, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().RenderToBitmap(tt.lod, tt.w, tt.h)
			if err == nil {
				t.Fatal("RenderToBitmap succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderIcon(t *testing.T) {
	g, err := geometry.NewPrimitive(geometry.DefaultPrimitiveInfo(geometry.PrimitivePlane))
	if err != nil {
		t.Fatal(err)
	}
	g.Rasterizer = New()
	paths, err := g.Save(filepath.Join(t.TempDir(), "plane.obj"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(paths) != 1 || len(g.Icon) == 0 {
		t.Errorf("paths %v icon %d bytes", paths, len(g.Icon))
	}
}
