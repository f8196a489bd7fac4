package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/assetpipe/internal/raster"
	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/geometry"
)

func savePrimitive(t *testing.T, typ geometry.PrimitiveType) string {
	t.Helper()
	g, err := geometry.NewPrimitive(geometry.DefaultPrimitiveInfo(typ))
	if err != nil {
		t.Fatal(err)
	}
	g.Rasterizer = raster.New()
	paths, err := g.Save(filepath.Join(t.TempDir(), typ.String()))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return paths[0]
}

func TestLoadAsset(t *testing.T) {
	path := savePrimitive(t, geometry.PrimitiveCube)

	h, a, err := loadAsset(path)
	if err != nil {
		t.Fatalf("loadAsset: %v", err)
	}
	if h.Kind != asset.Mesh {
		t.Errorf("kind = %s, want Mesh", h.Kind)
	}
	g, ok := a.(*geometry.Geometry)
	if !ok {
		t.Fatalf("loaded %T, want *geometry.Geometry", a)
	}
	if g.GUID != h.GUID {
		t.Errorf("guid = %s, header %s", g.GUID, h.GUID)
	}

	data, err := a.PackForEngine()
	if err != nil || len(data) == 0 {
		t.Errorf("PackForEngine: %d bytes, %v", len(data), err)
	}
}

func TestLoadAssetErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.asset")
	if err := os.WriteFile(garbage, []byte("not an asset"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{garbage, filepath.Join(dir, "missing.asset")} {
		if _, _, err := loadAsset(path); err == nil {
			t.Errorf("loadAsset(%s) should fail", filepath.Base(path))
		}
	}
}

func TestSummarizeGeometry(t *testing.T) {
	_, a, err := loadAsset(savePrimitive(t, geometry.PrimitivePlane))
	if err != nil {
		t.Fatal(err)
	}
	s := summarizeGeometry(a.(*geometry.Geometry))
	if len(s.Groups) != 1 || len(s.Groups[0].LODs) != 1 {
		t.Fatalf("unexpected layout: %+v", s.Groups)
	}
	meshes := s.Groups[0].LODs[0].Meshes
	if len(meshes) != 1 || meshes[0].VertexCount == 0 || meshes[0].IndexCount == 0 {
		t.Errorf("unexpected meshes: %+v", meshes)
	}
}

func TestDumpTree(t *testing.T) {
	h, a, err := loadAsset(savePrimitive(t, geometry.PrimitiveCube))
	if err != nil {
		t.Fatal(err)
	}
	out := SDump(dumpTree(h, a)...)
	for _, want := range []string{"Mesh", h.GUID.String(), "VertexCount"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q", want)
		}
	}
	if strings.Contains(out, "Positions") {
		t.Error("dump should not include raw buffers")
	}
}

func TestWriteIcon(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	src.Set(0, 0, color.NRGBA{A: 0xff})
	icon, err := asset.EncodePNG(src)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "icon.png")
	if err := writeIcon(icon, 64, out); err != nil {
		t.Fatalf("writeIcon: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := asset.DecodeIcon(data)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("icon size = %dx%d, want 64x32", b.Dx(), b.Dy())
	}

	if err := writeIcon(nil, 64, out); err == nil {
		t.Error("writeIcon without icon should fail")
	}
	if err := writeIcon(bytes.Repeat([]byte{1}, 8), 64, out); err == nil {
		t.Error("writeIcon with corrupt icon should fail")
	}
}
