// Package config handles pipeline configuration loading and management.
package config

import (
	"github.com/Faultbox/assetpipe/pkg/geometry"
	"github.com/Faultbox/assetpipe/pkg/texture"
)

// Config holds all pipeline settings.
type Config struct {
	Content  ContentConfig           `yaml:"content"`
	Geometry geometry.ImportSettings `yaml:"geometry"`
	Texture  TextureConfig           `yaml:"texture"`
	Icon     IconConfig              `yaml:"icon"`
	Logging  LoggingConfig           `yaml:"logging"`
}

// ContentConfig holds content directory settings.
type ContentConfig struct {
	Dir     string `yaml:"dir"`      // Root directory for imported assets
	TempDir string `yaml:"temp_dir"` // Scratch directory for batch imports
	Watch   bool   `yaml:"watch"`    // Watch Dir for asset changes
}

// TextureConfig holds default texture import settings.
type TextureConfig struct {
	MipLevels      int     `yaml:"mip_levels"` // 0 means a full chain
	AlphaThreshold float32 `yaml:"alpha_threshold"`
	PreferBC7      bool    `yaml:"prefer_bc7"`
	Compress       bool    `yaml:"compress"`
}

// IconConfig holds asset icon settings.
type IconConfig struct {
	Width int `yaml:"width"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Content: ContentConfig{
			Dir:     "content",
			TempDir: "",
			Watch:   false,
		},
		Geometry: geometry.DefaultImportSettings(),
		Texture: TextureConfig{
			MipLevels:      0,
			AlphaThreshold: 0.5,
			PreferBC7:      true,
			Compress:       false,
		},
		Icon: IconConfig{
			Width: 90,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TextureSettings returns the texture import settings for new imports.
func (c *Config) TextureSettings() texture.ImportSettings {
	s := texture.DefaultImportSettings()
	s.MipLevels = c.Texture.MipLevels
	s.AlphaThreshold = c.Texture.AlphaThreshold
	s.PreferBC7 = c.Texture.PreferBC7
	s.Compress = c.Texture.Compress
	s.Normalize()
	return s
}
