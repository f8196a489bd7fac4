package geometry

import "github.com/Faultbox/assetpipe/pkg/binstream"

// ImportSettings controls how a source scene is turned into meshes.
type ImportSettings struct {
	CalculateNormals       bool    `yaml:"calculate_normals"`
	CalculateTangents      bool    `yaml:"calculate_tangents"`
	SmoothingAngle         float32 `yaml:"smoothing_angle"` // degrees
	ReverseHandedness      bool    `yaml:"reverse_handedness"`
	ImportEmbeddedTextures bool    `yaml:"import_embedded_textures"`
	ImportAnimations       bool    `yaml:"import_animations"`
}

// DefaultImportSettings returns the settings used for new imports.
func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		SmoothingAngle:         178,
		ImportEmbeddedTextures: true,
		ImportAnimations:       true,
	}
}

// Encode writes the settings in asset file order.
func (s *ImportSettings) Encode(w *binstream.Writer) {
	w.WriteBool(s.CalculateNormals)
	w.WriteBool(s.CalculateTangents)
	w.WriteFloat32(s.SmoothingAngle)
	w.WriteBool(s.ReverseHandedness)
	w.WriteBool(s.ImportEmbeddedTextures)
	w.WriteBool(s.ImportAnimations)
}

// Decode reads settings written by Encode.
func (s *ImportSettings) Decode(r *binstream.Reader) error {
	s.CalculateNormals = r.ReadBool()
	s.CalculateTangents = r.ReadBool()
	s.SmoothingAngle = r.ReadFloat32()
	s.ReverseHandedness = r.ReadBool()
	s.ImportEmbeddedTextures = r.ReadBool()
	s.ImportAnimations = r.ReadBool()
	return r.Err()
}
