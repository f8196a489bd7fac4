package geometry

import (
	"fmt"

	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// engineBufferAlignment is the alignment of position and element buffers in
// the engine layout.
const engineBufferAlignment = 4

// PackForEngine packs the first LOD group into the layout the engine loads
// at runtime:
//
//	u32 lod_count
//	lod_count times:
//	  f32 lod_threshold
//	  u32 submesh_count
//	  u32 size_of_submeshes
//	  submesh_count times:
//	    u32 element_size, u32 vertex_count, u32 index_count,
//	    u32 elements_flags, u32 topology
//	    u8  positions[align4(vertex_count*12)]
//	    u8  elements[align4(vertex_count*element_size)]
//	    u8  indices[index_size*index_count]
//
// size_of_submeshes is the byte length of the submesh records that follow it.
func (g *Geometry) PackForEngine() ([]byte, error) {
	group := g.LODGroup(0)
	if group == nil {
		return nil, ErrNoLODGroups
	}

	w := binstream.NewWriter()
	w.WriteUint32(uint32(len(group.LODs)))
	for _, lod := range group.LODs {
		if len(lod.Meshes) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyLOD, lod.Name)
		}

		w.WriteFloat32(lod.LODThreshold)
		w.WriteUint32(uint32(len(lod.Meshes)))
		sizeAt := w.Reserve32()

		for _, m := range lod.Meshes {
			if err := m.Validate(); err != nil {
				return nil, err
			}
			w.WriteUint32(uint32(m.ElementSize))
			w.WriteUint32(uint32(m.VertexCount))
			w.WriteUint32(uint32(m.IndexCount))
			w.WriteUint32(uint32(m.ElementsFlags))
			w.WriteUint32(uint32(m.Topology))
			w.WriteBytes(bytelayout.PadTo(m.Positions, engineBufferAlignment))
			w.WriteBytes(bytelayout.PadTo(m.Elements, engineBufferAlignment))
			w.WriteBytes(m.Indices)
		}

		size := w.Pos() - sizeAt - 4
		if err := w.Patch32(sizeAt, uint32(size)); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
