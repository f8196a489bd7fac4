// Package geometry implements the mesh asset model: LOD groups of meshes,
// the raw scene layout produced by importers, the asset file codec and the
// packed layout consumed by the engine at runtime.
package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/assetpipe/pkg/asset"
)

// Geometry errors.
var (
	ErrInvalidRawData = errors.New("invalid raw geometry data")
	ErrNoLODGroups    = errors.New("geometry has no LOD groups")
	ErrEmptyLOD       = errors.New("LOD has no meshes")
	ErrInvalidMesh    = errors.New("invalid mesh buffers")
)

// ElementsFlags describes which vertex attributes a mesh's element buffer
// carries besides positions.
type ElementsFlags uint32

// Element flag values. TangentSpace implies Normals.
const (
	ElementsPosition     ElementsFlags = 0x00
	ElementsNormals      ElementsFlags = 0x01
	ElementsTangentSpace ElementsFlags = 0x03
	ElementsJoints       ElementsFlags = 0x04
	ElementsColors       ElementsFlags = 0x08
)

// Has reports whether all bits of f are set.
func (e ElementsFlags) Has(f ElementsFlags) bool {
	return e&f == f
}

// String returns the flag names joined with '|'.
func (e ElementsFlags) String() string {
	if e == ElementsPosition {
		return "Position"
	}
	var s string
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	switch {
	case e.Has(ElementsTangentSpace):
		add("TangentSpace")
	case e.Has(ElementsNormals):
		add("Normals")
	}
	if e.Has(ElementsJoints) {
		add("Joints")
	}
	if e.Has(ElementsColors) {
		add("Colors")
	}
	if rest := e &^ (ElementsTangentSpace | ElementsJoints | ElementsColors); rest != 0 {
		add(fmt.Sprintf("0x%x", uint32(rest)))
	}
	return s
}

// Topology is the primitive topology of a mesh's index buffer.
type Topology uint32

// Topology values.
const (
	PointList Topology = iota + 1
	LineList
	LineStrip
	TriangleList
	TriangleStrip
)

// String returns a human-readable topology name.
func (t Topology) String() string {
	switch t {
	case PointList:
		return "PointList"
	case LineList:
		return "LineList"
	case LineStrip:
		return "LineStrip"
	case TriangleList:
		return "TriangleList"
	case TriangleStrip:
		return "TriangleStrip"
	default:
		return fmt.Sprintf("Topology(%d)", uint32(t))
	}
}

// PositionSize is the size in bytes of one vertex position (3 x float32).
const PositionSize = 12

// Mesh is one submesh: positions, packed vertex elements and indices.
// Buffers hold exactly count*size bytes with no padding.
type Mesh struct {
	Name          string
	ElementSize   int
	VertexCount   int
	IndexSize     int
	IndexCount    int
	ElementsFlags ElementsFlags
	Topology      Topology

	Positions []byte
	Elements  []byte
	Indices   []byte
}

// Validate checks that buffer lengths match the stated counts.
func (m *Mesh) Validate() error {
	switch {
	case m.VertexCount < 0 || m.IndexCount < 0 || m.ElementSize < 0:
		return fmt.Errorf("%w: mesh %q has negative counts", ErrInvalidMesh, m.Name)
	case m.IndexCount > 0 && m.IndexSize != 2 && m.IndexSize != 4:
		return fmt.Errorf("%w: mesh %q index size %d", ErrInvalidMesh, m.Name, m.IndexSize)
	case len(m.Positions) != m.VertexCount*PositionSize:
		return fmt.Errorf("%w: mesh %q has %d position bytes for %d vertices",
			ErrInvalidMesh, m.Name, len(m.Positions), m.VertexCount)
	case len(m.Elements) != m.VertexCount*m.ElementSize:
		return fmt.Errorf("%w: mesh %q has %d element bytes for %d vertices of %d bytes",
			ErrInvalidMesh, m.Name, len(m.Elements), m.VertexCount, m.ElementSize)
	case len(m.Indices) != m.IndexCount*m.IndexSize:
		return fmt.Errorf("%w: mesh %q has %d index bytes for %d indices of %d bytes",
			ErrInvalidMesh, m.Name, len(m.Indices), m.IndexCount, m.IndexSize)
	}
	return nil
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) mgl32.Vec3 {
	b := m.Positions[i*PositionSize:]
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// Index returns index i.
func (m *Mesh) Index(i int) uint32 {
	if m.IndexSize == 2 {
		return uint32(binary.LittleEndian.Uint16(m.Indices[i*2:]))
	}
	return binary.LittleEndian.Uint32(m.Indices[i*4:])
}

// Normal returns the unpacked normal of vertex i, or false when the
// element buffer carries no normals.
func (m *Mesh) Normal(i int) (mgl32.Vec3, bool) {
	if !m.ElementsFlags.Has(ElementsNormals) || m.ElementSize < normalsElementSize {
		return mgl32.Vec3{}, false
	}
	return unpackNormal(m.Elements[i*m.ElementSize:]), true
}

// Bounds returns the axis-aligned bounding box of the mesh positions.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if m.VertexCount == 0 {
		return
	}
	lo, hi = m.Position(0), m.Position(0)
	for i := 1; i < m.VertexCount; i++ {
		p := m.Position(i)
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

// MeshLOD is one level of detail: the submeshes drawn together at a given
// threshold.
type MeshLOD struct {
	Name         string
	LODThreshold float32
	Meshes       []*Mesh
}

// LODGroup is an ordered list of LODs, most detailed first.
type LODGroup struct {
	Name string
	LODs []*MeshLOD
}

// Geometry is a mesh asset.
type Geometry struct {
	asset.Base

	ImportSettings ImportSettings

	// Rasterizer renders asset icons on save. Icons are left empty when nil.
	Rasterizer Rasterizer

	groups []*LODGroup
}

// New creates an empty geometry asset with default import settings.
func New() *Geometry {
	return &Geometry{
		Base:           asset.NewBase(asset.Mesh),
		ImportSettings: DefaultImportSettings(),
	}
}

// LODGroup returns group i, or nil when out of range.
func (g *Geometry) LODGroup(i int) *LODGroup {
	if i < 0 || i >= len(g.groups) {
		return nil
	}
	return g.groups[i]
}

// LODGroups returns all LOD groups in import order.
func (g *Geometry) LODGroups() []*LODGroup {
	return g.groups
}

// SetLODGroups replaces the LOD groups.
func (g *Geometry) SetLODGroups(groups []*LODGroup) {
	g.groups = groups
}

// IsEmpty reports whether the geometry holds no LOD groups, which is the
// state left behind by a failed load.
func (g *Geometry) IsEmpty() bool {
	return len(g.groups) == 0
}
