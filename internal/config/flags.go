package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed     = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen   = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth        = flag.Int("width", 0, "Window width")
	flagHeight       = flag.Int("height", 0, "Window height")
	flagLevels       = flag.Int("levels", 0, "Number of clipmap levels")
	flagSubdivisions = flag.Int("subdivisions", 0, "Vertices per clipmap tile side")
	flagResolution   = flag.Int("resolution", 0, "Generated map resolution")
	flagScene        = flag.String("scene", "", "Path to scene file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagLevels > 0 {
		cfg.Terrain.Levels = *flagLevels
	}
	if *flagSubdivisions > 0 {
		cfg.Terrain.Subdivisions = *flagSubdivisions
	}
	if *flagResolution > 0 {
		cfg.Maps.Resolution = *flagResolution
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
}
