// Package raster renders mesh LODs to small bitmaps for asset icons.
package raster

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"

	"github.com/Faultbox/assetpipe/pkg/geometry"
)

// ErrNothingToRender is returned for a LOD without triangles.
var ErrNothingToRender = errors.New("lod has no triangles to render")

// Camera setup.
const (
	fieldOfView    = 40 // degrees
	cameraDistance = 2.4
	ambient        = 0.25
)

// Renderer draws a LOD with flat Lambert shading from a fixed three-quarter
// view. Triangles are painted back to front, so intersecting geometry may
// show ordering artifacts.
type Renderer struct {
	Background gg.RGBA
	Surface    gg.RGBA
	Light      mgl32.Vec3 // direction towards the light
	View       mgl32.Vec3 // direction from the model towards the camera
}

// New creates a renderer with the default icon look.
func New() *Renderer {
	return &Renderer{
		Background: gg.RGBA{R: 0.18, G: 0.18, B: 0.2, A: 1},
		Surface:    gg.RGBA{R: 0.78, G: 0.78, B: 0.8, A: 1},
		Light:      mgl32.Vec3{0.4, 0.8, 0.6}.Normalize(),
		View:       mgl32.Vec3{1, 0.7, 1.3}.Normalize(),
	}
}

type triangle struct {
	screen [3]mgl32.Vec2
	depth  float32
	shade  float32
}

// RenderToBitmap renders lod into a width x height image.
func (r *Renderer) RenderToBitmap(lod *geometry.MeshLOD, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid bitmap size %dx%d", width, height)
	}
	if lod == nil {
		return nil, ErrNothingToRender
	}

	lo, hi, ok := lodBounds(lod)
	if !ok {
		return nil, ErrNothingToRender
	}
	center := lo.Add(hi).Mul(0.5)
	radius := max(hi.Sub(lo).Len()*0.5, 1e-3)

	eye := center.Add(r.View.Mul(radius * cameraDistance))
	view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(fieldOfView), float32(width)/float32(height),
		radius*0.01, radius*cameraDistance*4)
	mvp := proj.Mul4(view)

	var tris []triangle
	for _, m := range lod.Meshes {
		tris = r.appendTriangles(tris, m, mvp, width, height)
	}
	if len(tris) == 0 {
		return nil, ErrNothingToRender
	}
	slices.SortFunc(tris, func(a, b triangle) int {
		return cmp.Compare(b.depth, a.depth)
	})

	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(r.Background)
	for _, t := range tris {
		s := float64(t.shade)
		dc.SetRGB(r.Surface.R*s, r.Surface.G*s, r.Surface.B*s)
		dc.MoveTo(float64(t.screen[0].X()), float64(t.screen[0].Y()))
		dc.LineTo(float64(t.screen[1].X()), float64(t.screen[1].Y()))
		dc.LineTo(float64(t.screen[2].X()), float64(t.screen[2].Y()))
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("filling triangle: %w", err)
		}
	}
	return dc.Image(), nil
}

func lodBounds(lod *geometry.MeshLOD) (lo, hi mgl32.Vec3, ok bool) {
	for _, m := range lod.Meshes {
		if m.VertexCount == 0 {
			continue
		}
		mlo, mhi := m.Bounds()
		if !ok {
			lo, hi, ok = mlo, mhi, true
			continue
		}
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], mlo[i])
			hi[i] = max(hi[i], mhi[i])
		}
	}
	return lo, hi, ok
}

// appendTriangles projects the front-facing triangles of m.
func (r *Renderer) appendTriangles(tris []triangle, m *geometry.Mesh, mvp mgl32.Mat4, width, height int) []triangle {
	if m.Topology != geometry.TriangleList {
		return tris
	}

	for i := 0; i+2 < m.IndexCount; i += 3 {
		var (
			world [3]mgl32.Vec3
			ndc   [3]mgl32.Vec3
			skip  bool
		)
		for k := 0; k < 3; k++ {
			idx := int(m.Index(i + k))
			if idx >= m.VertexCount {
				skip = true
				break
			}
			world[k] = m.Position(idx)
			clip := mvp.Mul4x1(world[k].Vec4(1))
			if clip.W() <= 0 {
				skip = true
				break
			}
			ndc[k] = clip.Vec3().Mul(1 / clip.W())
		}
		if skip {
			continue
		}

		// Counter-clockwise in NDC faces the camera.
		e1 := ndc[1].Sub(ndc[0])
		e2 := ndc[2].Sub(ndc[0])
		if e1.X()*e2.Y()-e1.Y()*e2.X() <= 0 {
			continue
		}

		n := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if n.LenSqr() == 0 {
			continue
		}
		lambert := max(n.Normalize().Dot(r.Light), 0)

		var t triangle
		for k := 0; k < 3; k++ {
			t.screen[k] = mgl32.Vec2{
				(ndc[k].X() + 1) * 0.5 * float32(width),
				(1 - ndc[k].Y()) * 0.5 * float32(height),
			}
			t.depth += ndc[k].Z() / 3
		}
		t.shade = ambient + (1-ambient)*lambert
		tris = append(tris, t)
	}
	return tris
}
