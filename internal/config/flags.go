package config

import "flag"

// Flags holds command-line overrides registered on a command's flag set.
type Flags struct {
	config     *string
	debug      *bool
	contentDir *string
	logFile    *string
	mipLevels  *int
	compress   *bool
}

// RegisterFlags adds the shared config flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		contentDir: fs.String("content", "", "Content directory"),
		logFile:    fs.String("log", "", "Log file path"),
		mipLevels:  fs.Int("mips", -1, "Texture mip levels (0 = full chain)"),
		compress:   fs.Bool("compress", false, "Request block compression for textures"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.contentDir != "" {
		cfg.Content.Dir = *f.contentDir
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.mipLevels >= 0 {
		cfg.Texture.MipLevels = *f.mipLevels
	}
	if *f.compress {
		cfg.Texture.Compress = true
	}
}
