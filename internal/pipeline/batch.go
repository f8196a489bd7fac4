package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/geometry"
	"github.com/Faultbox/assetpipe/pkg/texture"
)

// Batch errors.
var (
	ErrUnsupportedSource   = errors.New("unsupported source file")
	ErrDestinationConflict = errors.New("destination asset already claimed by another source")
)

var (
	sceneExtensions = map[string]bool{".gltf": true, ".glb": true}
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
		".webp": true, ".tif": true, ".tiff": true, ".tga": true,
	}
)

// SourceKind returns the asset kind a source file imports as, or
// asset.Unknown.
func SourceKind(path string) asset.Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case sceneExtensions[ext]:
		return asset.Mesh
	case imageExtensions[ext]:
		return asset.Texture
	default:
		return asset.Unknown
	}
}

// Result is the outcome of importing one source file.
type Result struct {
	Source string
	Kind   asset.Kind
	Assets []string // written asset files
	Err    error
}

// BatchImporter imports many source files concurrently into one
// destination directory.
type BatchImporter struct {
	DestDir string
	// TempRoot is where the scratch directory is created. Empty means the
	// system temp directory.
	TempRoot string

	Geometry geometry.ImportSettings
	Texture  texture.ImportSettings

	SceneImporter   geometry.SceneImporter
	TextureImporter texture.Importer
	Rasterizer      geometry.Rasterizer

	// Watcher, when set, is suspended for the duration of a batch.
	Watcher Suspender

	tempMu  sync.Mutex
	tempDir string

	destMu  sync.Mutex
	written map[string]string // asset path -> source, this batch
}

// NewBatchImporter creates a batch importer writing into destDir.
func NewBatchImporter(destDir string, scenes geometry.SceneImporter, textures texture.Importer) *BatchImporter {
	return &BatchImporter{
		DestDir:         destDir,
		Geometry:        geometry.DefaultImportSettings(),
		Texture:         texture.DefaultImportSettings(),
		SceneImporter:   scenes,
		TextureImporter: textures,
	}
}

// Import imports every file in its own goroutine and waits for all of them.
// A failed import does not stop the others; failures are logged, reported
// in the matching Result and combined into the returned error.
func (b *BatchImporter) Import(ctx context.Context, files []string) ([]Result, error) {
	if b.Watcher != nil {
		b.Watcher.Suspend()
		defer b.Watcher.Resume()
	}

	log := logger.Named("pipeline")
	log.Info("starting batch import", zap.Int("files", len(files)))

	b.destMu.Lock()
	b.written = make(map[string]string)
	b.destMu.Unlock()

	// Sources sharing an asset name are resolved up front so the earliest
	// one in files wins regardless of scheduling.
	results := make([]Result, len(files))
	claimed := make(map[string]string)
	var wg sync.WaitGroup
	for i, file := range files {
		kind := SourceKind(file)
		if kind != asset.Unknown {
			path := b.assetPath(file)
			if prev, ok := claimed[path]; ok {
				results[i] = Result{Source: file, Kind: kind,
					Err: fmt.Errorf("%w: %s is written by %s", ErrDestinationConflict, path, prev)}
				continue
			}
			claimed[path] = file
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = b.importOne(ctx, file)
		}()
	}
	wg.Wait()

	var err error
	for _, r := range results {
		if r.Err != nil {
			log.Error("import failed", logger.File(r.Source), logger.Op("import"), zap.Error(r.Err))
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.Source, r.Err))
		}
	}
	log.Info("batch import finished",
		zap.Int("files", len(files)), zap.Int("failed", len(multierr.Errors(err))))
	return results, err
}

func (b *BatchImporter) importOne(ctx context.Context, file string) (res Result) {
	res = Result{Source: file, Kind: SourceKind(file)}
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("import panicked: %v", p)
		}
	}()

	switch res.Kind {
	case asset.Mesh:
		res.Assets, res.Err = b.importGeometry(ctx, file)
	case asset.Texture:
		res.Assets, res.Err = b.importTexture(ctx, file)
	default:
		res.Err = ErrUnsupportedSource
	}
	return res
}

func (b *BatchImporter) importGeometry(ctx context.Context, file string) ([]string, error) {
	if b.SceneImporter == nil {
		return nil, fmt.Errorf("%w: no scene importer configured", ErrUnsupportedSource)
	}

	// .gltf files reference their buffers by relative path, so they are
	// read in place.
	src := file
	if !strings.EqualFold(filepath.Ext(file), ".gltf") {
		staged, err := b.stage(file)
		if err != nil {
			return nil, err
		}
		defer os.Remove(staged)
		src = staged
	}

	g := geometry.New()
	g.ImportSettings = b.Geometry
	g.Rasterizer = b.Rasterizer
	if err := g.Import(ctx, b.SceneImporter, src); err != nil {
		return nil, err
	}
	g.SourcePath = file

	b.destMu.Lock()
	defer b.destMu.Unlock()
	if err := b.checkWritten(file, g.SavePaths(b.destPath(file))...); err != nil {
		return nil, err
	}
	return b.recordWritten(file)(g.Save(b.destPath(file)))
}

func (b *BatchImporter) importTexture(ctx context.Context, file string) ([]string, error) {
	if b.TextureImporter == nil {
		return nil, fmt.Errorf("%w: no texture importer configured", ErrUnsupportedSource)
	}

	staged, err := b.stage(file)
	if err != nil {
		return nil, err
	}
	defer os.Remove(staged)

	t := texture.New()
	t.ImportSettings = b.Texture
	t.ImportSettings.Sources = []string{staged}
	if err := t.Import(ctx, b.TextureImporter, staged); err != nil {
		return nil, err
	}
	t.SourcePath = file
	t.ImportSettings.Sources = []string{file}

	b.destMu.Lock()
	defer b.destMu.Unlock()
	if err := b.checkWritten(file, b.assetPath(file)); err != nil {
		return nil, err
	}
	return b.recordWritten(file)(t.Save(b.destPath(file)))
}

func (b *BatchImporter) destPath(file string) string {
	return filepath.Join(b.DestDir, filepath.Base(file))
}

// assetPath is the asset file a single-group import of file writes.
func (b *BatchImporter) assetPath(file string) string {
	base := filepath.Base(file)
	return asset.FileName(b.DestDir, strings.TrimSuffix(base, filepath.Ext(base)), "")
}

// checkWritten rejects file when another source of this batch already wrote
// one of paths, such as a multi-group scene whose suffixed names match
// another source. Callers hold destMu.
func (b *BatchImporter) checkWritten(file string, paths ...string) error {
	for _, path := range paths {
		if prev, ok := b.written[path]; ok && prev != file {
			return fmt.Errorf("%w: %s is written by %s", ErrDestinationConflict, path, prev)
		}
	}
	return nil
}

// recordWritten wraps a Save result and records its paths. Callers hold
// destMu.
func (b *BatchImporter) recordWritten(file string) func([]string, error) ([]string, error) {
	return func(paths []string, err error) ([]string, error) {
		if b.written == nil {
			b.written = make(map[string]string)
		}
		for _, p := range paths {
			b.written[p] = file
		}
		return paths, err
	}
}

// TempDir returns the scratch directory, creating it on first use.
func (b *BatchImporter) TempDir() (string, error) {
	b.tempMu.Lock()
	defer b.tempMu.Unlock()
	if b.tempDir != "" {
		return b.tempDir, nil
	}

	if b.TempRoot != "" {
		if err := os.MkdirAll(b.TempRoot, 0o755); err != nil {
			return "", fmt.Errorf("creating temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(b.TempRoot, "assetpipe-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	b.tempDir = dir
	return dir, nil
}

// stage copies file into the scratch directory under a unique name so the
// importer reads a snapshot that the user cannot change mid-import.
func (b *BatchImporter) stage(file string) (string, error) {
	dir, err := b.TempDir()
	if err != nil {
		return "", err
	}

	in, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer in.Close()

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	out, err := os.CreateTemp(dir, base+"-*"+filepath.Ext(file))
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", file, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("staging %s: %w", file, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("staging %s: %w", file, err)
	}
	return out.Name(), nil
}

// Close removes the scratch directory.
func (b *BatchImporter) Close() error {
	b.tempMu.Lock()
	defer b.tempMu.Unlock()
	if b.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(b.tempDir)
	b.tempDir = ""
	return err
}
