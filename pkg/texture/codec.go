package texture

import (
	"context"
	"errors"
	"fmt"
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

// ErrMissingIcon is returned when a compressed import comes back without
// its precomputed icon.
var ErrMissingIcon = errors.New("compressed texture import returned no icon")

// ImportInfo describes the texture an importer produced.
type ImportInfo struct {
	Width     int
	Height    int
	ArraySize int
	MipLevels int
	Format    Format
	Flags     Flags
}

// ImportResult is what an importer hands back on success.
type ImportResult struct {
	Info ImportInfo
	// Subresources in the layout read by DecodeSlices.
	Data []byte
	// Optional uncompressed icon source as a single slice, present when
	// the importer block-compressed Data.
	Icon []byte
}

// Importer decodes the sources named in settings. Failures are reported as
// ImportError values; on success Info.MipLevels is in [1, MaxMipLevels).
type Importer interface {
	ImportTexture(ctx context.Context, settings ImportSettings) (*ImportResult, error)
}

// Import runs the importer for file and replaces the texture's content. On
// failure the texture is left unchanged.
func (t *Texture) Import(ctx context.Context, importer Importer, file string) error {
	log := logger.Named("texture")
	log.Info("importing image file", logger.File(file))

	settings := t.ImportSettings
	settings.Normalize()
	if len(settings.Sources) == 0 {
		settings.Sources = []string{file}
	}

	res, err := importer.ImportTexture(ctx, settings)
	if err != nil {
		var code ImportError
		if errors.As(err, &code) {
			log.Error("texture import failed", logger.File(file), logger.Op("import"),
				zap.Uint32("code", uint32(code)), zap.String("reason", code.Error()))
		} else {
			log.Error("texture import failed", logger.File(file), logger.Op("import"), zap.Error(err))
		}
		return fmt.Errorf("importing %s: %w", file, err)
	}

	if err := t.apply(res, settings); err != nil {
		log.Error("failed to read import result", logger.File(file), logger.Op("import"), zap.Error(err))
		return fmt.Errorf("importing %s: %w", file, err)
	}

	first := t.Slice(0, 0, 0)
	for _, warning := range ValidateDimensions(first.Width, first.Height) {
		log.Warn(warning.Error(), logger.File(file))
	}

	t.SourcePath = file
	t.ImportDate = time.Now()
	return nil
}

func (t *Texture) apply(res *ImportResult, settings ImportSettings) error {
	info := res.Info
	if info.MipLevels < 1 || info.MipLevels >= MaxMipLevels {
		return fmt.Errorf("%w: %d mip levels", ErrInvalidLayout, info.MipLevels)
	}

	slices, err := DecodeSlices(res.Data, info.ArraySize, info.MipLevels, info.Flags.Has(FlagVolumeMap))
	if err != nil {
		return err
	}

	iconSlice := &slices[0][0][0]
	if len(res.Icon) > 0 {
		icons, err := DecodeSlices(res.Icon, 1, 1, false)
		if err != nil {
			return fmt.Errorf("reading icon: %w", err)
		}
		iconSlice = &icons[0][0][0]
	} else if settings.Compress {
		return ErrMissingIcon
	}

	icon, err := makeIcon(iconSlice, info.Flags.Has(FlagNormalMap))
	if err != nil {
		return err
	}

	staged := *t
	if err := staged.SetLayout(info.ArraySize, info.Flags); err != nil {
		return err
	}
	staged.ImportSettings = settings
	staged.Width = info.Width
	staged.Height = info.Height
	staged.MipLevels = info.MipLevels
	staged.Format = info.Format
	staged.slices = slices
	staged.Icon = icon
	*t = staged
	return nil
}

func makeIcon(s *Slice, isNormalMap bool) ([]byte, error) {
	buf, err := Convert(s, isNormalMap)
	if err != nil {
		return nil, fmt.Errorf("building icon: %w", err)
	}
	return asset.EncodePNG(asset.Thumbnail(buf.ToImage(), asset.IconWidth, asset.IconWidth))
}

// Save writes the texture to one asset file next to file and returns its
// path. A file that already exists with the same name and kind keeps its
// GUID.
func (t *Texture) Save(file string) ([]string, error) {
	log := logger.Named("texture")
	if t.IsEmpty() {
		log.Error("nothing to save", logger.File(file), logger.Op("save"), zap.Error(ErrNoSlices))
		return nil, ErrNoSlices
	}

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	path := asset.FileName(filepath.Dir(file), base, "")

	if guid, ok := asset.ExistingGUID(path, asset.Texture); ok {
		t.GUID = guid
	} else {
		t.GUID = uuid.New()
	}
	if t.ImportDate.IsZero() {
		t.ImportDate = time.Now()
	}

	payload, hash := t.encode()
	t.Hash = hash

	if err := asset.WriteFile(path, t.Header(), &t.ImportSettings, payload); err != nil {
		log.Error("failed to save texture", logger.File(path), logger.Op("save"), zap.Error(err))
		return nil, fmt.Errorf("saving texture to %s: %w", path, err)
	}
	return []string{path}, nil
}

// encode returns the asset payload and the hash of its slice data.
func (t *Texture) encode() ([]byte, bytelayout.Hash) {
	w := binstream.NewWriter()
	w.WriteInt32(int32(t.Width))
	w.WriteInt32(int32(t.Height))
	w.WriteInt32(int32(t.arraySize))
	w.WriteInt32(int32(t.MipLevels))
	w.WriteInt32(int32(t.flags))
	w.WriteInt32(int32(t.Format))

	begin := w.Pos()
	EncodeSlices(w, t.slices)
	return w.Bytes(), bytelayout.ComputeHash(w.Bytes()[begin:])
}

// Load reads a texture asset file. On failure the error is logged and the
// texture is left empty.
func (t *Texture) Load(file string) error {
	settings := DefaultImportSettings()
	h, payload, err := asset.ReadFile(file, asset.Texture, &settings)

	var loaded *Texture
	if err == nil {
		loaded, err = decodeTexture(payload)
	}
	if err != nil {
		t.reset()
		logger.Named("texture").Error("failed to load texture asset",
			logger.File(file), logger.Op("load"), zap.Error(err))
		return fmt.Errorf("loading texture %s: %w", file, err)
	}

	loaded.SetHeader(h)
	loaded.FullPath = file
	loaded.ImportSettings = settings
	*t = *loaded
	return nil
}

func decodeTexture(payload []byte) (*Texture, error) {
	r := binstream.NewReader(payload)
	t := New()
	t.Width = int(r.ReadInt32())
	t.Height = int(r.ReadInt32())
	arraySize := int(r.ReadInt32())
	t.MipLevels = int(r.ReadInt32())
	flags := Flags(r.ReadInt32())
	t.Format = Format(r.ReadInt32())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading texture info: %w", err)
	}
	if err := t.SetLayout(arraySize, flags); err != nil {
		return nil, err
	}

	slices, err := DecodeSlices(payload[r.Pos():], arraySize, t.MipLevels, flags.Has(FlagVolumeMap))
	if err != nil {
		return nil, err
	}
	t.slices = slices
	return t, nil
}

// PackForEngine packs the texture into the layout the engine loads at
// runtime:
//
//	u32 width, height, array_size, flags, mip_levels, format
//	for each slice in array, mip, depth order:
//	  u32 row_pitch, u32 slice_pitch, u8 pixels[slice_pitch]
func (t *Texture) PackForEngine() ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrNoSlices
	}

	w := binstream.NewWriter()
	w.WriteUint32(uint32(t.Width))
	w.WriteUint32(uint32(t.Height))
	w.WriteUint32(uint32(t.arraySize))
	w.WriteUint32(uint32(t.flags))
	w.WriteUint32(uint32(t.MipLevels))
	w.WriteUint32(uint32(t.Format))

	for _, mips := range t.slices {
		for _, depth := range mips {
			for _, s := range depth {
				w.WriteUint32(uint32(s.RowPitch))
				w.WriteUint32(uint32(s.SlicePitch))
				w.WriteBytes(s.RawContent)
			}
		}
	}
	return w.Bytes(), nil
}
