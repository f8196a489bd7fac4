package geometry

import (
	"fmt"

	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/binstream"
)

// RawScene is the scene an importer hands over, before meshes are grouped
// into LODs.
type RawScene struct {
	Name   string
	Groups []RawGroup
}

// RawGroup is one named group of meshes in a raw scene.
type RawGroup struct {
	Name   string
	Meshes []RawMesh
}

// RawMesh is a mesh tagged with the LOD it belongs to. Meshes with the same
// non-negative LODID within a group form one MeshLOD; a negative id always
// starts a new one.
type RawMesh struct {
	Mesh
	LODID        int32
	LODThreshold float32
}

// InvalidLODID marks a mesh that always starts its own LOD.
const InvalidLODID = -1

// EncodeRaw serializes a raw scene in the layout FromRawData reads.
func EncodeRaw(scene *RawScene) []byte {
	w := binstream.NewWriter()
	writeRawName(w, scene.Name)
	w.WriteInt32(int32(len(scene.Groups)))
	for _, g := range scene.Groups {
		writeRawName(w, g.Name)
		w.WriteInt32(int32(len(g.Meshes)))
		for i := range g.Meshes {
			m := &g.Meshes[i]
			writeRawName(w, m.Name)
			w.WriteInt32(m.LODID)
			w.WriteInt32(int32(m.ElementSize))
			w.WriteInt32(int32(m.ElementsFlags))
			w.WriteInt32(int32(m.VertexCount))
			w.WriteInt32(int32(m.IndexSize))
			w.WriteInt32(int32(m.IndexCount))
			w.WriteFloat32(m.LODThreshold)
			w.WriteBytes(m.Positions)
			w.WriteBytes(m.Elements)
			w.WriteBytes(m.Indices)
		}
	}
	return w.Bytes()
}

func writeRawName(w *binstream.Writer, name string) {
	w.WriteInt32(int32(len(name)))
	w.WriteBytes([]byte(name))
}

// FromRawData replaces the geometry's LOD groups with the scene decoded from
// data. On error the geometry is left unchanged.
func (g *Geometry) FromRawData(data []byte) error {
	groups, err := decodeRaw(data)
	if err != nil {
		return err
	}
	g.groups = groups
	return nil
}

func decodeRaw(data []byte) ([]*LODGroup, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidRawData)
	}

	r := binstream.NewReader(data)

	// Scene name is not used.
	r.Skip(int(r.ReadInt32()))

	groupCount := r.ReadInt32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRawData, err)
	}
	if groupCount <= 0 {
		return nil, fmt.Errorf("%w: LOD group count %d", ErrInvalidRawData, groupCount)
	}

	// Counts are untrusted; groups grow only as their data is read.
	var groups []*LODGroup
	for i := 0; i < int(groupCount); i++ {
		name := readRawName(r, "lod_")
		meshCount := r.ReadInt32()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("%w: group %d: %v", ErrInvalidRawData, i, err)
		}
		if meshCount <= 0 {
			return nil, fmt.Errorf("%w: group %q mesh count %d", ErrInvalidRawData, name, meshCount)
		}

		lods, err := readMeshLODs(r, int(meshCount))
		if err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", ErrInvalidRawData, name, err)
		}
		groups = append(groups, &LODGroup{Name: name, LODs: lods})
	}
	return groups, nil
}

// readMeshLODs groups count meshes into LODs by their LOD id, keeping first
// appearance order.
func readMeshLODs(r *binstream.Reader, count int) ([]*MeshLOD, error) {
	var lods []*MeshLOD
	byID := make(map[int32]*MeshLOD)

	for i := 0; i < count; i++ {
		mesh, lodID, threshold, err := readRawMesh(r)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}

		lod, ok := byID[lodID]
		if lodID < 0 || !ok {
			lod = &MeshLOD{Name: mesh.Name, LODThreshold: threshold}
			lods = append(lods, lod)
			if lodID >= 0 {
				byID[lodID] = lod
			}
		}
		lod.Meshes = append(lod.Meshes, mesh)
	}
	return lods, nil
}

func readRawMesh(r *binstream.Reader) (*Mesh, int32, float32, error) {
	m := &Mesh{Name: readRawName(r, "mesh_")}

	lodID := r.ReadInt32()
	m.ElementSize = int(r.ReadInt32())
	m.ElementsFlags = ElementsFlags(r.ReadInt32())
	m.Topology = TriangleList
	m.VertexCount = int(r.ReadInt32())
	m.IndexSize = int(r.ReadInt32())
	m.IndexCount = int(r.ReadInt32())
	threshold := r.ReadFloat32()
	if err := r.Err(); err != nil {
		return nil, 0, 0, err
	}
	if m.VertexCount < 0 || m.ElementSize < 0 || m.IndexSize < 0 || m.IndexCount < 0 {
		return nil, 0, 0, fmt.Errorf("%w: mesh %q has negative sizes", ErrInvalidMesh, m.Name)
	}

	m.Positions = r.ReadBytes(PositionSize * m.VertexCount)
	m.Elements = r.ReadBytes(m.ElementSize * m.VertexCount)
	m.Indices = r.ReadBytes(m.IndexSize * m.IndexCount)
	if err := r.Err(); err != nil {
		return nil, 0, 0, err
	}
	return m, lodID, threshold, nil
}

// readRawName reads an i32-prefixed name, synthesizing prefix+random when
// the name is empty.
func readRawName(r *binstream.Reader, prefix string) string {
	n := r.ReadInt32()
	if n <= 0 {
		return prefix + asset.RandomString(8)
	}
	return string(r.ReadBytes(int(n)))
}
