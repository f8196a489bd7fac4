package texture

import (
	"strings"

	"github.com/Faultbox/assetpipe/pkg/binstream"
)

// ImportSettings controls how source images become a texture.
type ImportSettings struct {
	Sources        []string
	Dimension      Dimension
	MipLevels      int // 0 means a full chain
	AlphaThreshold float32
	PreferBC7      bool
	FormatIndex    int // index into BCFormats
	Compress       bool
}

// DefaultImportSettings returns the settings used for new imports.
func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		Dimension: Texture2D,
		PreferBC7: true,
	}
}

// Normalize clamps numeric settings to their valid ranges.
func (s *ImportSettings) Normalize() {
	s.MipLevels = min(max(s.MipLevels, 0), MaxMipLevels)
	s.AlphaThreshold = min(max(s.AlphaThreshold, 0), 1)
	s.FormatIndex = min(max(s.FormatIndex, 0), len(BCFormats)-1)
}

// OutputFormat is the block compression target, or FormatUnknown when
// compression is off.
func (s *ImportSettings) OutputFormat() Format {
	if !s.Compress {
		return FormatUnknown
	}
	i := min(max(s.FormatIndex, 0), len(BCFormats)-1)
	return BCFormats[i].Format
}

// Encode writes the settings in asset file order.
func (s *ImportSettings) Encode(w *binstream.Writer) {
	w.WriteString(strings.Join(s.Sources, ";"))
	w.WriteInt32(int32(s.Dimension))
	w.WriteInt32(int32(s.MipLevels))
	w.WriteFloat32(s.AlphaThreshold)
	w.WriteBool(s.PreferBC7)
	w.WriteInt32(int32(s.FormatIndex))
	w.WriteBool(s.Compress)
}

// Decode reads settings written by Encode, clamping out-of-range values.
func (s *ImportSettings) Decode(r *binstream.Reader) error {
	s.Sources = nil
	if sources := r.ReadString(); sources != "" {
		s.Sources = strings.Split(sources, ";")
	}
	s.Dimension = Dimension(r.ReadInt32())
	s.MipLevels = int(r.ReadInt32())
	s.AlphaThreshold = r.ReadFloat32()
	s.PreferBC7 = r.ReadBool()
	s.FormatIndex = int(r.ReadInt32())
	s.Compress = r.ReadBool()
	s.Normalize()
	return r.Err()
}
