package geometry

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

func TestPackForEngine(t *testing.T) {
	tests := []struct {
		name string
		lods [][]Mesh
	}{
		{
			name: "single submesh",
			lods: [][]Mesh{{testMesh("a", 1, 3, 8, 3)}},
		},
		{
			name: "unaligned element buffer",
			lods: [][]Mesh{{testMesh("a", 1, 3, 3, 3), testMesh("b", 2, 5, 7, 1)}},
		},
		{
			name: "several lods",
			lods: [][]Mesh{
				{testMesh("a", 1, 4, 20, 6), testMesh("b", 2, 1, 8, 3), testMesh("c", 3, 2, 1, 0)},
				{testMesh("d", 4, 2, 8, 3)},
				{testMesh("e", 5, 1, 5, 5)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := &LODGroup{Name: "g"}
			for i, meshes := range tt.lods {
				lod := &MeshLOD{Name: "lod", LODThreshold: float32(i) * 10}
				for j := range meshes {
					lod.Meshes = append(lod.Meshes, &meshes[j])
				}
				group.LODs = append(group.LODs, lod)
			}
			g := New()
			g.SetLODGroups([]*LODGroup{group, {Name: "ignored"}})

			data, err := g.PackForEngine()
			if err != nil {
				t.Fatalf("PackForEngine: %v", err)
			}

			r := binstream.NewReader(data)
			if n := r.ReadUint32(); int(n) != len(group.LODs) {
				t.Fatalf("lod_count = %d, want %d", n, len(group.LODs))
			}

			for i, lod := range group.LODs {
				if th := r.ReadFloat32(); th != lod.LODThreshold {
					t.Errorf("lod %d threshold = %v", i, th)
				}
				if n := r.ReadUint32(); int(n) != len(lod.Meshes) {
					t.Fatalf("lod %d submesh_count = %d", i, n)
				}
				size := int(r.ReadUint32())
				begin := r.Pos()

				for _, m := range lod.Meshes {
					header := []uint32{r.ReadUint32(), r.ReadUint32(), r.ReadUint32(), r.ReadUint32(), r.ReadUint32()}
					want := []uint32{uint32(m.ElementSize), uint32(m.VertexCount), uint32(m.IndexCount),
						uint32(m.ElementsFlags), uint32(m.Topology)}
					for k := range want {
						if header[k] != want[k] {
							t.Errorf("mesh %q header[%d] = %d, want %d", m.Name, k, header[k], want[k])
						}
					}

					positions := r.ReadBytes(bytelayout.AlignUp(len(m.Positions), 4))
					elements := r.ReadBytes(bytelayout.AlignUp(len(m.Elements), 4))
					indices := r.ReadBytes(len(m.Indices))

					if !bytes.Equal(positions[:len(m.Positions)], m.Positions) {
						t.Errorf("mesh %q positions differ", m.Name)
					}
					if !bytes.Equal(elements[:len(m.Elements)], m.Elements) {
						t.Errorf("mesh %q elements differ", m.Name)
					}
					if pad := elements[len(m.Elements):]; !bytes.Equal(pad, make([]byte, len(pad))) {
						t.Errorf("mesh %q padding not zero: %v", m.Name, pad)
					}
					if !bytes.Equal(indices, m.Indices) {
						t.Errorf("mesh %q indices differ", m.Name)
					}
				}

				if got := r.Pos() - begin; got != size {
					t.Errorf("lod %d size_of_submeshes = %d, actual %d", i, size, got)
				}
			}

			if err := r.Err(); err != nil {
				t.Fatalf("reading pack: %v", err)
			}
			if r.Len() != 0 {
				t.Errorf("%d trailing bytes", r.Len())
			}
		})
	}
}

func TestPackForEngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		groups  []*LODGroup
		wantErr error
	}{
		{"no groups", nil, ErrNoLODGroups},
		{"empty lod", []*LODGroup{{LODs: []*MeshLOD{{Name: "l"}}}}, ErrEmptyLOD},
		{"bad mesh", []*LODGroup{{LODs: []*MeshLOD{{Meshes: []*Mesh{{Name: "m", VertexCount: 2}}}}}}, ErrInvalidMesh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			g.SetLODGroups(tt.groups)
			if _, err := g.PackForEngine(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
