package geometry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupportedPrimitive is returned for primitive types with no generator.
var ErrUnsupportedPrimitive = errors.New("unsupported primitive type")

// PrimitiveType names a generated mesh shape.
type PrimitiveType int32

// Primitive types.
const (
	PrimitivePlane PrimitiveType = iota
	PrimitiveCube
	PrimitiveUVSphere
	PrimitiveIcoSphere
	PrimitiveCylinder
	PrimitiveCapsule
)

// String returns the primitive name.
func (t PrimitiveType) String() string {
	switch t {
	case PrimitivePlane:
		return "plane"
	case PrimitiveCube:
		return "cube"
	case PrimitiveUVSphere:
		return "uv_sphere"
	case PrimitiveIcoSphere:
		return "ico_sphere"
	case PrimitiveCylinder:
		return "cylinder"
	case PrimitiveCapsule:
		return "capsule"
	default:
		return fmt.Sprintf("PrimitiveType(%d)", int32(t))
	}
}

// ParsePrimitiveType maps a name returned by String back to its type.
func ParsePrimitiveType(name string) (PrimitiveType, error) {
	for t := PrimitivePlane; t <= PrimitiveCapsule; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPrimitive, name)
}

// maxSegments bounds the grid resolution of generated faces.
const maxSegments = 64

// PrimitiveInfo describes a primitive to generate.
type PrimitiveInfo struct {
	Type     PrimitiveType
	Segments [3]int // per axis, clamped to [1, 64]
	Size     mgl32.Vec3
	LOD      int32
}

// DefaultPrimitiveInfo returns a unit-sized primitive with one segment per
// axis.
func DefaultPrimitiveInfo(t PrimitiveType) PrimitiveInfo {
	return PrimitiveInfo{
		Type:     t,
		Segments: [3]int{1, 1, 1},
		Size:     mgl32.Vec3{1, 1, 1},
	}
}

// NewPrimitive generates a primitive mesh and loads it through the same raw
// decode path used for imported scenes.
func NewPrimitive(info PrimitiveInfo) (*Geometry, error) {
	scene, err := PrimitiveScene(info)
	if err != nil {
		return nil, err
	}
	g := New()
	if err := g.FromRawData(EncodeRaw(scene)); err != nil {
		return nil, err
	}
	return g, nil
}

// PrimitiveScene generates the raw scene for a primitive.
func PrimitiveScene(info PrimitiveInfo) (*RawScene, error) {
	seg := info.Segments
	for i := range seg {
		seg[i] = min(max(seg[i], 1), maxSegments)
	}
	size := info.Size

	var b faceBuilder
	switch info.Type {
	case PrimitivePlane:
		b.face(mgl32.Vec3{size.X(), 0, 0}, mgl32.Vec3{0, 0, -size.Z()}, mgl32.Vec3{}, seg[0], seg[2])
	case PrimitiveCube:
		h := size.Mul(0.5)
		x := mgl32.Vec3{size.X(), 0, 0}
		y := mgl32.Vec3{0, size.Y(), 0}
		z := mgl32.Vec3{0, 0, size.Z()}
		b.face(z.Mul(-1), y, mgl32.Vec3{h.X(), 0, 0}, seg[2], seg[1])  // +X
		b.face(z, y, mgl32.Vec3{-h.X(), 0, 0}, seg[2], seg[1])         // -X
		b.face(x, z.Mul(-1), mgl32.Vec3{0, h.Y(), 0}, seg[0], seg[2])  // +Y
		b.face(x, z, mgl32.Vec3{0, -h.Y(), 0}, seg[0], seg[2])         // -Y
		b.face(x, y, mgl32.Vec3{0, 0, h.Z()}, seg[0], seg[1])          // +Z
		b.face(x.Mul(-1), y, mgl32.Vec3{0, 0, -h.Z()}, seg[0], seg[1]) // -Z
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPrimitive, info.Type)
	}

	name := info.Type.String()
	mesh, err := PackVertices(name, ElementsTangentSpace, b.vertices, b.indices)
	if err != nil {
		return nil, err
	}

	return &RawScene{
		Name: name,
		Groups: []RawGroup{{
			Name:   name,
			Meshes: []RawMesh{{Mesh: *mesh, LODID: info.LOD}},
		}},
	}, nil
}

type faceBuilder struct {
	vertices []Vertex
	indices  []uint32
}

// face adds a segU x segV grid spanning u and v, centered on center. The
// face normal is u x v and triangles wind counter-clockwise around it.
func (b *faceBuilder) face(u, v, center mgl32.Vec3, segU, segV int) {
	normal := normalize(u.Cross(v))
	tangent := normalize(u).Vec4(1)
	origin := center.Sub(u.Mul(0.5)).Sub(v.Mul(0.5))
	base := uint32(len(b.vertices))

	for j := 0; j <= segV; j++ {
		fv := float32(j) / float32(segV)
		for i := 0; i <= segU; i++ {
			fu := float32(i) / float32(segU)
			b.vertices = append(b.vertices, Vertex{
				Position: origin.Add(u.Mul(fu)).Add(v.Mul(fv)),
				Normal:   normal,
				Tangent:  tangent,
				UV:       mgl32.Vec2{fu, 1 - fv},
			})
		}
	}

	row := uint32(segU + 1)
	for j := uint32(0); j < uint32(segV); j++ {
		for i := uint32(0); i < uint32(segU); i++ {
			i00 := base + j*row + i
			i10 := i00 + 1
			i01 := i00 + row
			i11 := i01 + 1
			b.indices = append(b.indices, i00, i10, i11, i00, i11, i01)
		}
	}
}
