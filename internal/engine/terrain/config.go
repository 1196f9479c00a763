package terrain

import (
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
)

// FromConfig translates the file configuration into the terrain system's
// construction settings. Map stage settings not covered by the file keep
// their defaults; a scene file applied later overrides them. An unknown
// shadow quality falls back to medium, as Validate warns.
func FromConfig(cfg *config.Config) Config {
	quality, _ := mapgen.ParseShadowQuality(cfg.Shadow.Quality)

	maps := mapgen.DefaultConfig()
	maps.Resolution = cfg.Maps.Resolution
	maps.Height.ScaleXZ = cfg.Terrain.ScaleXZ
	maps.Height.ScaleY = cfg.Terrain.ScaleY
	maps.Shadow = mapgen.ShadowSettings{
		Enabled:  cfg.Shadow.Enabled,
		Quality:  quality,
		Softness: cfg.Shadow.Softness,
	}
	maps.Light = lighting.SunDirection(cfg.Light.Azimuth, cfg.Light.Elevation)

	return Config{
		Clipmap: clipmap.Settings{
			Subdivisions:   cfg.Terrain.Subdivisions,
			Levels:         cfg.Terrain.Levels,
			BaseSideLength: cfg.Terrain.BaseSideLength,
		},
		Maps: maps,
	}
}
