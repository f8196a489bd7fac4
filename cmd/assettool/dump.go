package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/geometry"
	"github.com/Faultbox/assetpipe/pkg/texture"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

// Dump prints a spew dump of a.
func Dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}

// SDump returns a spew dump of a.
func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// Summaries carry counts and sizes instead of the raw buffers, which would
// flood the dump.

type meshSummary struct {
	Name        string
	VertexCount int
	IndexCount  int
	ElementSize int
	IndexSize   int
	Elements    string
	Topology    string
	Min, Max    [3]float32
}

type lodSummary struct {
	Name      string
	Threshold float32
	Meshes    []meshSummary
}

type groupSummary struct {
	Name string
	LODs []lodSummary
}

type geometrySummary struct {
	Settings geometry.ImportSettings
	Groups   []groupSummary
}

type sliceSummary struct {
	Array, Mip, Depth int
	Width, Height     int
	RowPitch          int
	SlicePitch        int
}

type textureSummary struct {
	Settings   texture.ImportSettings
	Width      int
	Height     int
	ArraySize  int
	MipLevels  int
	Format     string
	Flags      string
	SliceCount int
	SliceBytes int
	Slices     []sliceSummary
}

type headerSummary struct {
	Kind       string
	GUID       string
	Hash       string
	SourcePath string
	ImportDate string
	IconBytes  int
}

func summarizeHeader(h asset.Header) headerSummary {
	s := headerSummary{
		Kind:       h.Kind.String(),
		GUID:       h.GUID.String(),
		Hash:       h.Hash.String(),
		SourcePath: h.SourcePath,
		IconBytes:  len(h.Icon),
	}
	if !h.ImportDate.IsZero() {
		s.ImportDate = h.ImportDate.UTC().String()
	}
	return s
}

func summarizeGeometry(g *geometry.Geometry) geometrySummary {
	s := geometrySummary{Settings: g.ImportSettings}
	for _, group := range g.LODGroups() {
		gs := groupSummary{Name: group.Name}
		for _, lod := range group.LODs {
			ls := lodSummary{Name: lod.Name, Threshold: lod.LODThreshold}
			for _, m := range lod.Meshes {
				lo, hi := m.Bounds()
				ls.Meshes = append(ls.Meshes, meshSummary{
					Name:        m.Name,
					VertexCount: m.VertexCount,
					IndexCount:  m.IndexCount,
					ElementSize: m.ElementSize,
					IndexSize:   m.IndexSize,
					Elements:    m.ElementsFlags.String(),
					Topology:    m.Topology.String(),
					Min:         lo,
					Max:         hi,
				})
			}
			gs.LODs = append(gs.LODs, ls)
		}
		s.Groups = append(s.Groups, gs)
	}
	return s
}

func summarizeTexture(t *texture.Texture) textureSummary {
	s := textureSummary{
		Settings:  t.ImportSettings,
		Width:     t.Width,
		Height:    t.Height,
		ArraySize: t.ArraySize(),
		MipLevels: t.MipLevels,
		Format:    t.FormatName(),
		Flags:     t.Flags().String(),
	}
	for a, mips := range t.Slices() {
		for m, depths := range mips {
			for d, sl := range depths {
				s.SliceCount++
				s.SliceBytes += len(sl.RawContent)
				s.Slices = append(s.Slices, sliceSummary{
					Array: a, Mip: m, Depth: d,
					Width: sl.Width, Height: sl.Height,
					RowPitch: sl.RowPitch, SlicePitch: sl.SlicePitch,
				})
			}
		}
	}
	return s
}

// dumpTree returns the header and content summary of a loaded asset.
func dumpTree(h asset.Header, a packer) []interface{} {
	out := []interface{}{summarizeHeader(h)}
	switch v := a.(type) {
	case *geometry.Geometry:
		out = append(out, summarizeGeometry(v))
	case *texture.Texture:
		out = append(out, summarizeTexture(v))
	}
	return out
}
