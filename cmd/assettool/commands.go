package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/assetpipe/internal/config"
	"github.com/Faultbox/assetpipe/internal/importer"
	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/internal/pipeline"
	"github.com/Faultbox/assetpipe/internal/raster"
	"github.com/Faultbox/assetpipe/pkg/asset"
	"github.com/Faultbox/assetpipe/pkg/geometry"
	"github.com/Faultbox/assetpipe/pkg/texture"
)

// packer is implemented by assets that produce an engine blob.
type packer interface {
	PackForEngine() ([]byte, error)
}

// loadAsset reads the header of path and loads the asset it describes.
func loadAsset(path string) (asset.Header, packer, error) {
	h, err := asset.ReadInfo(path)
	if err != nil {
		return h, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch h.Kind {
	case asset.Mesh:
		g := geometry.New()
		if err := g.Load(path); err != nil {
			return h, nil, err
		}
		return h, g, nil
	case asset.Texture:
		t := texture.New()
		if err := t.Load(path); err != nil {
			return h, nil, err
		}
		return h, t, nil
	default:
		return h, nil, fmt.Errorf("%s: unsupported asset kind %s", path, h.Kind)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdImport(args []string) {
	fs, flags := newFlagSet("import")
	dest := fs.String("dest", "", "Destination directory (default: content dir)")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: assettool import [-dest dir] <files...>")
		os.Exit(1)
	}

	cfg, sync := setup(flags)
	defer sync()

	destDir := *dest
	if destDir == "" {
		destDir = cfg.Content.Dir
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fatal(err)
	}

	b := pipeline.NewBatchImporter(destDir, importer.NewGLTF(), importer.NewImage())
	b.TempRoot = cfg.Content.TempDir
	b.Geometry = cfg.Geometry
	b.Texture = cfg.TextureSettings()
	b.Rasterizer = raster.New()
	defer b.Close()

	if cfg.Content.Watch {
		w, err := pipeline.NewWatcher(destDir, func(e pipeline.Event) {
			logger.Info("asset changed", logger.File(e.Path), zap.Stringer("op", e.Op))
		})
		if err != nil {
			fatal(err)
		}
		defer w.Close()
		b.Watcher = w
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := b.Import(ctx, files)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("FAIL  %s: %v\n", r.Source, r.Err)
			continue
		}
		for _, a := range r.Assets {
			fmt.Printf("OK    %s -> %s\n", r.Source, a)
		}
	}

	failed := len(multierr.Errors(err))
	fmt.Printf("\nImported %d/%d files in %s\n", len(files)-failed, len(files),
		time.Since(start).Round(time.Millisecond))
	if err != nil {
		sync()
		os.Exit(1)
	}
}

func cmdInfo(args []string) {
	fs, flags := newFlagSet("info")
	iconOut := fs.String("icon", "", "Write the asset icon as PNG")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool info [-icon out.png] <file.asset>")
		os.Exit(1)
	}
	cfg, sync := setup(flags)
	defer sync()

	path := fs.Arg(0)
	h, a, err := loadAsset(path)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Asset:       %s\n", path)
	fmt.Printf("Kind:        %s\n", h.Kind)
	fmt.Printf("GUID:        %s\n", h.GUID)
	fmt.Printf("Hash:        %s\n", h.Hash)
	fmt.Printf("Source:      %s\n", h.SourcePath)
	if !h.ImportDate.IsZero() {
		fmt.Printf("Imported:    %s\n", h.ImportDate.Format(time.RFC3339))
	}
	fmt.Printf("Icon:        %d bytes\n", len(h.Icon))
	fmt.Println()

	switch v := a.(type) {
	case *geometry.Geometry:
		printGeometry(summarizeGeometry(v))
	case *texture.Texture:
		printTexture(summarizeTexture(v))
	}

	if *iconOut != "" {
		if err := writeIcon(h.Icon, cfg.Icon.Width, *iconOut); err != nil {
			fatal(err)
		}
		fmt.Printf("\nIcon written to %s\n", *iconOut)
	}
}

// writeIcon scales the stored icon to width and writes it as PNG.
func writeIcon(icon []byte, width int, out string) error {
	if len(icon) == 0 {
		return fmt.Errorf("asset has no icon")
	}
	img, err := asset.DecodeIcon(icon)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if width <= 0 {
		width = asset.IconWidth
	}
	height := max(1, width*b.Dy()/max(1, b.Dx()))
	data, err := asset.EncodePNG(asset.Thumbnail(img, width, height))
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func printGeometry(s geometrySummary) {
	fmt.Printf("LOD groups:  %d\n", len(s.Groups))
	for _, g := range s.Groups {
		fmt.Printf("  %s\n", g.Name)
		for _, lod := range g.LODs {
			fmt.Printf("    %-20s threshold %.2f\n", lod.Name, lod.Threshold)
			for _, m := range lod.Meshes {
				fmt.Printf("      %-18s %6d verts %7d indices  %s\n",
					m.Name, m.VertexCount, m.IndexCount, m.Elements)
			}
		}
	}
}

func printTexture(s textureSummary) {
	fmt.Printf("Size:        %dx%d\n", s.Width, s.Height)
	fmt.Printf("Format:      %s\n", s.Format)
	fmt.Printf("Array size:  %d\n", s.ArraySize)
	fmt.Printf("Mip levels:  %d\n", s.MipLevels)
	fmt.Printf("Flags:       %s\n", s.Flags)
	fmt.Printf("Slices:      %d (%d bytes)\n", s.SliceCount, s.SliceBytes)
}

func cmdPack(args []string) {
	fs, flags := newFlagSet("pack")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool pack <file.asset> [output]")
		os.Exit(1)
	}
	_, sync := setup(flags)
	defer sync()

	path := fs.Arg(0)
	out := fs.Arg(1)
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".bin"
	}

	_, a, err := loadAsset(path)
	if err != nil {
		fatal(err)
	}
	data, err := a.PackForEngine()
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("Packed %s -> %s (%d bytes)\n", path, out, len(data))
}

func cmdDump(args []string) {
	fs, flags := newFlagSet("dump")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assettool dump <file.asset>")
		os.Exit(1)
	}
	_, sync := setup(flags)
	defer sync()

	h, a, err := loadAsset(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	Dump(dumpTree(h, a)...)
}

func cmdPrimitive(args []string) {
	fs, flags := newFlagSet("primitive")
	segments := fs.Int("segments", 1, "Segments per axis")
	size := fs.Float64("size", 1, "Edge length")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: assettool primitive [-segments n] [-size s] <plane|cube> <out.asset>")
		os.Exit(1)
	}
	_, sync := setup(flags)
	defer sync()

	t, err := geometry.ParsePrimitiveType(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	info := geometry.DefaultPrimitiveInfo(t)
	info.Segments = [3]int{*segments, *segments, *segments}
	s := float32(*size)
	info.Size = info.Size.Mul(s)

	g, err := geometry.NewPrimitive(info)
	if err != nil {
		fatal(err)
	}
	g.Rasterizer = raster.New()
	written, err := g.Save(fs.Arg(1))
	if err != nil {
		fatal(err)
	}
	for _, f := range written {
		fmt.Printf("Wrote %s\n", f)
	}
}

func cmdWatch(args []string) {
	fs, flags := newFlagSet("watch")
	fs.Parse(args)

	cfg, sync := setup(flags)
	defer sync()

	dir := fs.Arg(0)
	if dir == "" {
		dir = cfg.Content.Dir
	}

	w, err := pipeline.NewWatcher(dir, func(e pipeline.Event) {
		line := fmt.Sprintf("%-8s %s", e.Op, e.Path)
		if h, err := asset.ReadInfo(e.Path); err == nil {
			line += fmt.Sprintf("  [%s %s]", h.Kind, h.GUID)
		}
		fmt.Println(line)
	})
	if err != nil {
		fatal(err)
	}
	defer w.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	<-ctx.Done()
}

func cmdConfig(args []string) {
	fs, flags := newFlagSet("config")
	save := fs.Bool("save", false, "Save to the user config directory")
	out := fs.String("o", "", "Save to a specific file")
	fs.Parse(args)

	cfg, sync := setup(flags)
	defer sync()

	switch {
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			fatal(err)
		}
		fmt.Printf("Config written to %s\n", *out)
	case *save:
		if err := cfg.Save(); err != nil {
			fatal(err)
		}
		fmt.Printf("Config written to %s\n", filepath.Join(config.ConfigDir(), config.FileName))
	default:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fatal(err)
		}
		fmt.Print(string(data))
	}
}
