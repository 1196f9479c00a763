// Package config handles viewer and terrain configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Maps     MapsConfig     `yaml:"maps"`
	Shadow   ShadowConfig   `yaml:"shadow"`
	Light    LightConfig    `yaml:"light"`
	Camera   CameraConfig   `yaml:"camera"`
	Scene    SceneConfig    `yaml:"scene"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"` // 0 = unlimited
}

// TerrainConfig holds clipmap geometry and height scale settings.
type TerrainConfig struct {
	Subdivisions   int     `yaml:"subdivisions"`     // vertices per tile side
	Levels         int     `yaml:"levels"`           // number of LOD rings
	BaseSideLength float32 `yaml:"base_side_length"` // tile side at level 0, world units
	ScaleXZ        float32 `yaml:"scale_xz"`         // world units covered by the height map
	ScaleY         float32 `yaml:"scale_y"`          // height multiplier
}

// MapsConfig holds generated texture settings.
type MapsConfig struct {
	Resolution int `yaml:"resolution"` // must be a power of two for mips and shadows
}

// ShadowConfig holds terrain self-shadowing settings.
type ShadowConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Quality  string  `yaml:"quality"` // low, medium, high
	Softness float32 `yaml:"softness"`
}

// LightConfig holds sun placement in degrees.
type LightConfig struct {
	Azimuth   float32 `yaml:"azimuth"`
	Elevation float32 `yaml:"elevation"`
}

// CameraConfig holds fly camera settings.
type CameraConfig struct {
	Speed       float32 `yaml:"speed"`
	Sensitivity float32 `yaml:"sensitivity"`
	FOV         float32 `yaml:"fov"` // degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
}

// SceneConfig points at the scene document holding map pipeline settings.
type SceneConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // log file encoding: console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Terrain: TerrainConfig{
			Subdivisions:   32,
			Levels:         6,
			BaseSideLength: 4,
			ScaleXZ:        1024,
			ScaleY:         96,
		},
		Maps: MapsConfig{
			Resolution: 1024,
		},
		Shadow: ShadowConfig{
			Enabled:  true,
			Quality:  "medium",
			Softness: 0.5,
		},
		Light: LightConfig{
			Azimuth:   135,
			Elevation: 35,
		},
		Camera: CameraConfig{
			Speed:       40,
			Sensitivity: 0.1,
			FOV:         60,
			Near:        0.1,
			Far:         4000,
		},
		Scene: SceneConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}
