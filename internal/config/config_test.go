package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Terrain.Subdivisions != 32 {
		t.Errorf("expected 32 subdivisions, got %d", cfg.Terrain.Subdivisions)
	}
	if cfg.Terrain.Levels != 6 {
		t.Errorf("expected 6 levels, got %d", cfg.Terrain.Levels)
	}
	if cfg.Terrain.BaseSideLength != 4 {
		t.Errorf("expected base side length 4, got %f", cfg.Terrain.BaseSideLength)
	}

	if cfg.Maps.Resolution != 1024 {
		t.Errorf("expected map resolution 1024, got %d", cfg.Maps.Resolution)
	}
	if !cfg.Shadow.Enabled || cfg.Shadow.Quality != "medium" {
		t.Errorf("expected medium shadows enabled, got %+v", cfg.Shadow)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if w := cfg.Validate(); len(w) != 0 {
		t.Errorf("default config should validate cleanly, got %v", w)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "terrain.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fps_limit: 144

terrain:
  subdivisions: 64
  levels: 8
  base_side_length: 2
  scale_xz: 2048
  scale_y: 200

maps:
  resolution: 2048

shadow:
  enabled: false
  quality: high
  softness: 0.25

light:
  azimuth: 90
  elevation: 20

logging:
  level: "debug"
  log_file: "terrain.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.FPSLimit != 144 {
		t.Errorf("expected fps limit 144, got %d", cfg.Graphics.FPSLimit)
	}

	if cfg.Terrain.Subdivisions != 64 || cfg.Terrain.Levels != 8 {
		t.Errorf("expected 64 subdivisions / 8 levels, got %d / %d", cfg.Terrain.Subdivisions, cfg.Terrain.Levels)
	}
	if cfg.Terrain.ScaleY != 200 {
		t.Errorf("expected scale_y 200, got %f", cfg.Terrain.ScaleY)
	}
	if cfg.Maps.Resolution != 2048 {
		t.Errorf("expected resolution 2048, got %d", cfg.Maps.Resolution)
	}
	if cfg.Shadow.Enabled || cfg.Shadow.Quality != "high" {
		t.Errorf("unexpected shadow config %+v", cfg.Shadow)
	}
	if cfg.Light.Elevation != 20 {
		t.Errorf("expected elevation 20, got %f", cfg.Light.Elevation)
	}

	// Sections absent from the file keep their defaults.
	if cfg.Camera.FOV != 60 {
		t.Errorf("expected default fov 60, got %f", cfg.Camera.FOV)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("expected log file 'terrain.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  levels: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("expected LoadFile to fail on invalid YAML")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/terrain.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "terrain.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  levels: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find terrain.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name: "terrain flags",
			setup: func() {
				*flagLevels = 9
				*flagSubdivisions = 16
				*flagResolution = 512
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.Levels != 9 {
					t.Errorf("expected 9 levels, got %d", cfg.Terrain.Levels)
				}
				if cfg.Terrain.Subdivisions != 16 {
					t.Errorf("expected 16 subdivisions, got %d", cfg.Terrain.Subdivisions)
				}
				if cfg.Maps.Resolution != 512 {
					t.Errorf("expected resolution 512, got %d", cfg.Maps.Resolution)
				}
			},
			teardown: func() {
				*flagLevels = 0
				*flagSubdivisions = 0
				*flagResolution = 0
			},
		},
		{
			name:  "scene flag",
			setup: func() { *flagScene = "alps.yaml" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.Path != "alps.yaml" {
					t.Errorf("expected scene path alps.yaml, got %s", cfg.Scene.Path)
				}
			},
			teardown: func() { *flagScene = "" },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "terrain.yaml")

	yamlContent := `
terrain:
  levels: 4
  subdivisions: 48
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagLevels = 7
	defer func() {
		*flagConfig = ""
		*flagLevels = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Levels from the flag, subdivisions from the file.
	if cfg.Terrain.Levels != 7 {
		t.Errorf("expected 7 levels from flag, got %d", cfg.Terrain.Levels)
	}
	if cfg.Terrain.Subdivisions != 48 {
		t.Errorf("expected 48 subdivisions from file, got %d", cfg.Terrain.Subdivisions)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero levels", func(c *Config) { c.Terrain.Levels = 0 }, "terrain disabled"},
		{"zero subdivisions", func(c *Config) { c.Terrain.Subdivisions = 0 }, "terrain disabled"},
		{"non power of two", func(c *Config) { c.Maps.Resolution = 1000 }, "not a power of two"},
		{"bad quality", func(c *Config) { c.Shadow.Quality = "ultra" }, "unknown shadow quality"},
		{"negative base", func(c *Config) { c.Terrain.BaseSideLength = -1 }, "base_side_length"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "unknown log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			warnings := cfg.Validate()
			if len(warnings) != 1 {
				t.Fatalf("expected exactly one warning, got %v", warnings)
			}
			if !strings.Contains(warnings[0], tt.want) {
				t.Errorf("warning %q does not mention %q", warnings[0], tt.want)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "terrain.yaml")

	cfg := Default()
	cfg.Terrain.Levels = 3
	cfg.Light.Azimuth = 42
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Terrain.Levels != 3 || loaded.Light.Azimuth != 42 {
		t.Errorf("round trip mismatch: levels %d azimuth %f", loaded.Terrain.Levels, loaded.Light.Azimuth)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	if err := os.WriteFile(path, []byte("terrain:\n  level: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "level") {
		t.Errorf("expected an unknown field error, got %v", err)
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Terrain.Levels != Default().Terrain.Levels {
		t.Errorf("expected defaults, got %d levels", cfg.Terrain.Levels)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPrefix + "LOG_LEVEL":  "debug",
		EnvPrefix + "SCENE":      "island.scene.yaml",
		EnvPrefix + "RESOLUTION": "256",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := applyEnv(cfg, lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Scene.Path != "island.scene.yaml" || cfg.Maps.Resolution != 256 {
		t.Errorf("env not applied: %+v %+v %+v", cfg.Logging, cfg.Scene, cfg.Maps)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("unset variables must not change the config, got log file %q", cfg.Logging.LogFile)
	}

	env[EnvPrefix+"RESOLUTION"] = "huge"
	if err := applyEnv(Default(), lookup); err == nil {
		t.Error("expected an error for a non-numeric resolution")
	}
}

func TestLoadEnvBelowFlags(t *testing.T) {
	t.Setenv(EnvPrefix+"RESOLUTION", "256")
	*flagResolution = 128
	defer func() { *flagResolution = 0 }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Maps.Resolution != 128 {
		t.Errorf("expected the flag to win, got %d", cfg.Maps.Resolution)
	}
}

func TestSaveUsesConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	*flagConfig = path
	defer func() { *flagConfig = "" }()

	written, err := Default().Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if written != path {
		t.Errorf("expected %s, got %s", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}
}
