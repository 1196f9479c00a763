package config

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Validate returns human-readable warnings for settings that will make a
// feature degrade. None of them are fatal: terrain with zero levels is simply
// disabled, a non power-of-two map resolution disables mips and shadows.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Terrain.Subdivisions <= 0 || c.Terrain.Levels <= 0 {
		warnings = append(warnings, fmt.Sprintf(
			"terrain disabled: subdivisions=%d levels=%d", c.Terrain.Subdivisions, c.Terrain.Levels))
	}
	if c.Terrain.BaseSideLength <= 0 {
		warnings = append(warnings, fmt.Sprintf("base_side_length must be positive, got %v", c.Terrain.BaseSideLength))
	}
	if !math.IsPowerOfTwo(c.Maps.Resolution) {
		warnings = append(warnings, fmt.Sprintf(
			"map resolution %d is not a power of two: mips and shadows disabled", c.Maps.Resolution))
	}
	switch c.Shadow.Quality {
	case "low", "medium", "high":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown shadow quality %q, using medium", c.Shadow.Quality))
	}
	if c.Graphics.FPSLimit < 0 {
		warnings = append(warnings, fmt.Sprintf("fps_limit %d is negative, treating as unlimited", c.Graphics.FPSLimit))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		warnings = append(warnings, fmt.Sprintf("unknown log level %q, using info", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}

	return warnings
}
