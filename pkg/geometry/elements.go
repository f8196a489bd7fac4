package geometry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Packed element record sizes.
const (
	normalsElementSize      = 8  // u8 color[3], u8 t_sign, u16 normal[2]
	tangentSpaceElementSize = 20 // normals record + u16 tangent[2], f32 uv[2]
)

// Bits of the t_sign byte.
const (
	tangentSignBit = 0x01 // tangent.w > 0
	normalZSignBit = 0x02 // normal.z > 0
)

// Vertex is an unpacked vertex as produced by importers and primitive
// generators.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4
	UV       mgl32.Vec2
	Color    [3]uint8
}

// ElementSize returns the packed record size for the given flags.
func ElementSize(flags ElementsFlags) (int, error) {
	switch flags {
	case ElementsPosition:
		return 0, nil
	case ElementsNormals:
		return normalsElementSize, nil
	case ElementsTangentSpace:
		return tangentSpaceElementSize, nil
	default:
		return 0, fmt.Errorf("unsupported element layout %s", flags)
	}
}

// PackVertices builds a mesh from vertices and indices using the element
// layout named by flags. Index size is 2 bytes when every index fits,
// 4 otherwise.
func PackVertices(name string, flags ElementsFlags, vertices []Vertex, indices []uint32) (*Mesh, error) {
	elementSize, err := ElementSize(flags)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		Name:          name,
		ElementSize:   elementSize,
		VertexCount:   len(vertices),
		IndexCount:    len(indices),
		ElementsFlags: flags,
		Topology:      TriangleList,
		Positions:     make([]byte, len(vertices)*PositionSize),
		Elements:      make([]byte, len(vertices)*elementSize),
	}

	for i, v := range vertices {
		p := m.Positions[i*PositionSize:]
		binary.LittleEndian.PutUint32(p[0:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(p[4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(p[8:], math.Float32bits(v.Position[2]))
		if elementSize > 0 {
			packElement(m.Elements[i*elementSize:(i+1)*elementSize], flags, v)
		}
	}

	m.IndexSize = 4
	if len(vertices) < 1<<16 {
		m.IndexSize = 2
	}
	m.Indices = make([]byte, len(indices)*m.IndexSize)
	for i, idx := range indices {
		if m.IndexSize == 2 {
			binary.LittleEndian.PutUint16(m.Indices[i*2:], uint16(idx))
		} else {
			binary.LittleEndian.PutUint32(m.Indices[i*4:], idx)
		}
	}
	return m, nil
}

func packElement(dst []byte, flags ElementsFlags, v Vertex) {
	n := normalize(v.Normal)
	var sign byte
	if n.Z() > 0 {
		sign |= normalZSignBit
	}
	if flags.Has(ElementsTangentSpace) && v.Tangent.W() > 0 {
		sign |= tangentSignBit
	}

	copy(dst[0:3], v.Color[:])
	dst[3] = sign
	binary.LittleEndian.PutUint16(dst[4:], packUnitFloat(n.X()))
	binary.LittleEndian.PutUint16(dst[6:], packUnitFloat(n.Y()))

	if flags.Has(ElementsTangentSpace) {
		t := normalize(v.Tangent.Vec3())
		binary.LittleEndian.PutUint16(dst[8:], packUnitFloat(t.X()))
		binary.LittleEndian.PutUint16(dst[10:], packUnitFloat(t.Y()))
		binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(v.UV[0]))
		binary.LittleEndian.PutUint32(dst[16:], math.Float32bits(v.UV[1]))
	}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return v
	}
	return v.Normalize()
}

// packUnitFloat maps [-1, 1] onto the full u16 range.
func packUnitFloat(v float32) uint16 {
	v = mgl32.Clamp(v, -1, 1)
	return uint16((v+1)*0.5*math.MaxUint16 + 0.5)
}

func unpackUnitFloat(v uint16) float32 {
	return float32(v)/math.MaxUint16*2 - 1
}

// unpackNormal rebuilds a normal from a packed element record.
func unpackNormal(src []byte) mgl32.Vec3 {
	x := unpackUnitFloat(binary.LittleEndian.Uint16(src[4:]))
	y := unpackUnitFloat(binary.LittleEndian.Uint16(src[6:]))
	z := float32(math.Sqrt(float64(max(0, 1-x*x-y*y))))
	if src[3]&normalZSignBit == 0 {
		z = -z
	}
	return mgl32.Vec3{x, y, z}
}
