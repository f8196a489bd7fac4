package geometry

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/binstream"
	"github.com/Faultbox/assetpipe/pkg/bytelayout"
)

// SceneImporter decodes a source file into the raw scene layout read by
// FromRawData.
type SceneImporter interface {
	ImportScene(ctx context.Context, settings ImportSettings, path string) ([]byte, error)
}

// Rasterizer renders a LOD to an image. It is only used for asset icons.
type Rasterizer interface {
	RenderToBitmap(lod *MeshLOD, width, height int) (image.Image, error)
}

// iconRenderScale is applied to the rendered bitmap, which is drawn at
// four times the icon width.
const iconRenderScale = 0.25

// Import runs the importer on path and replaces the LOD groups with the
// result.
func (g *Geometry) Import(ctx context.Context, importer SceneImporter, path string) error {
	log := logger.Named("geometry")
	log.Info("importing scene", logger.File(path))

	data, err := importer.ImportScene(ctx, g.ImportSettings, path)
	if err != nil {
		log.Error("failed to read source for import", logger.File(path), logger.Op("import"), zap.Error(err))
		return fmt.Errorf("importing %s: %w", path, err)
	}
	if err := g.FromRawData(data); err != nil {
		log.Error("importer returned invalid scene", logger.File(path), logger.Op("import"), zap.Error(err))
		return fmt.Errorf("importing %s: %w", path, err)
	}

	g.SourcePath = path
	g.ImportDate = time.Now()
	return nil
}

// Save writes one asset file per LOD group next to file and returns the
// paths written. When there is more than one group, each file name gets the
// group's name (or its only LOD's name) appended. A file that already
// exists with the same name and kind keeps its GUID.
func (g *Geometry) Save(file string) ([]string, error) {
	log := logger.Named("geometry")
	if len(g.groups) == 0 {
		log.Error("nothing to save", logger.File(file), logger.Op("save"), zap.Error(ErrNoLODGroups))
		return nil, ErrNoLODGroups
	}

	if g.ImportDate.IsZero() {
		g.ImportDate = time.Now()
	}

	var saved []string
	for i, path := range g.SavePaths(file) {
		group := g.groups[i]
		if err := g.saveGroup(group, path); err != nil {
			log.Error("failed to save geometry", logger.File(path), logger.Op("save"), zap.Error(err))
			return saved, fmt.Errorf("saving geometry to %s: %w", path, err)
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// SavePaths returns the asset file Save writes for each LOD group. A single
// group keeps the base name; several groups append the group name, or the
// LOD name for single-LOD groups.
func (g *Geometry) SavePaths(file string) []string {
	dir := filepath.Dir(file)
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	paths := make([]string, 0, len(g.groups))
	for _, group := range g.groups {
		var suffix string
		if len(g.groups) > 1 && len(group.LODs) > 0 {
			if len(group.LODs) > 1 {
				suffix = group.Name
			} else {
				suffix = group.LODs[0].Name
			}
		}
		paths = append(paths, asset.FileName(dir, base, suffix))
	}
	return paths
}

func (g *Geometry) saveGroup(group *LODGroup, path string) error {
	if len(group.LODs) == 0 {
		return fmt.Errorf("%w: group %q has no LODs", ErrEmptyLOD, group.Name)
	}

	payload, hash, err := encodeGroup(group)
	if err != nil {
		return err
	}

	if guid, ok := asset.ExistingGUID(path, asset.Mesh); ok {
		g.GUID = guid
	} else {
		g.GUID = uuid.New()
	}
	g.Hash = hash

	icon, err := g.renderIcon(group.LODs[0])
	if err != nil {
		logger.Named("geometry").Warn("icon rendering failed", logger.File(path), zap.Error(err))
	}
	g.Icon = icon

	return asset.WriteFile(path, g.Header(), &g.ImportSettings, payload)
}

func (g *Geometry) renderIcon(lod *MeshLOD) ([]byte, error) {
	if g.Rasterizer == nil {
		return nil, nil
	}
	size := asset.IconWidth * 4
	img, err := g.Rasterizer.RenderToBitmap(lod, size, size)
	if err != nil {
		return nil, err
	}
	return asset.IconFromImage(img, iconRenderScale)
}

// Load reads a single LOD group from an asset file. On failure the error is
// logged and the geometry is left empty.
func (g *Geometry) Load(file string) error {
	settings := DefaultImportSettings()
	h, payload, err := asset.ReadFile(file, asset.Mesh, &settings)

	var group *LODGroup
	if err == nil {
		group, err = decodeGroup(payload)
	}
	if err != nil {
		g.groups = nil
		g.ResetIdentity()
		g.ImportSettings = DefaultImportSettings()
		logger.Named("geometry").Error("failed to load geometry asset",
			logger.File(file), logger.Op("load"), zap.Error(err))
		return fmt.Errorf("loading geometry %s: %w", file, err)
	}

	g.SetHeader(h)
	g.FullPath = file
	g.ImportSettings = settings
	g.groups = []*LODGroup{group}
	return nil
}

// encodeGroup serializes a group and returns the payload and the content
// hash: a digest over the per-LOD digests of each LOD's mesh records.
func encodeGroup(group *LODGroup) ([]byte, bytelayout.Hash, error) {
	w := binstream.NewWriter()
	w.WriteString(group.Name)
	w.WriteInt32(int32(len(group.LODs)))

	hashes := make([]bytelayout.Hash, 0, len(group.LODs))
	for _, lod := range group.LODs {
		if len(lod.Meshes) == 0 {
			return nil, bytelayout.Hash{}, fmt.Errorf("%w: %q", ErrEmptyLOD, lod.Name)
		}

		w.WriteString(lod.Name)
		w.WriteFloat32(lod.LODThreshold)
		w.WriteInt32(int32(len(lod.Meshes)))

		begin := w.Pos()
		for _, m := range lod.Meshes {
			if err := m.Validate(); err != nil {
				return nil, bytelayout.Hash{}, err
			}
			w.WriteString(m.Name)
			w.WriteInt32(int32(m.ElementSize))
			w.WriteInt32(int32(m.ElementsFlags))
			w.WriteInt32(int32(m.Topology))
			w.WriteInt32(int32(m.VertexCount))
			w.WriteInt32(int32(m.IndexSize))
			w.WriteInt32(int32(m.IndexCount))
			w.WriteBytes(m.Positions)
			w.WriteBytes(m.Elements)
			w.WriteBytes(m.Indices)
		}
		hashes = append(hashes, bytelayout.ComputeHash(w.Bytes()[begin:w.Pos()]))
	}
	return w.Bytes(), bytelayout.CombineHashes(hashes...), nil
}

func decodeGroup(payload []byte) (*LODGroup, error) {
	r := binstream.NewReader(payload)
	group := &LODGroup{Name: r.ReadString()}

	lodCount := r.ReadInt32()
	if r.Err() == nil && lodCount < 0 {
		return nil, fmt.Errorf("%w: LOD count %d", ErrInvalidMesh, lodCount)
	}
	for i := 0; i < int(lodCount) && r.Err() == nil; i++ {
		lod := &MeshLOD{
			Name:         r.ReadString(),
			LODThreshold: r.ReadFloat32(),
		}
		meshCount := r.ReadInt32()
		if r.Err() == nil && meshCount < 0 {
			return nil, fmt.Errorf("%w: LOD %q mesh count %d", ErrInvalidMesh, lod.Name, meshCount)
		}
		for j := 0; j < int(meshCount) && r.Err() == nil; j++ {
			m := &Mesh{
				Name:          r.ReadString(),
				ElementSize:   int(r.ReadInt32()),
				ElementsFlags: ElementsFlags(r.ReadInt32()),
				Topology:      Topology(r.ReadInt32()),
				VertexCount:   int(r.ReadInt32()),
				IndexSize:     int(r.ReadInt32()),
				IndexCount:    int(r.ReadInt32()),
			}
			m.Positions = r.ReadBytes(PositionSize * m.VertexCount)
			m.Elements = r.ReadBytes(m.ElementSize * m.VertexCount)
			m.Indices = r.ReadBytes(m.IndexSize * m.IndexCount)
			lod.Meshes = append(lod.Meshes, m)
		}
		group.LODs = append(group.LODs, lod)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading LOD group: %w", err)
	}
	return group, nil
}
