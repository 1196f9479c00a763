// Package lighting places the sun that lights and shadows the terrain.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// MaxElevation keeps the sun strictly above the horizon and off the zenith.
const MaxElevation = 89

// SunDirection converts azimuth (rotation around +Y from +Z, degrees) and
// elevation above the horizon (degrees) to a unit vector pointing towards
// the sun.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)
	return mgl32.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
}

// Sun is a directional light. Rotate and Raise report whether the
// direction changed so callers can retrace shadows only when needed.
type Sun struct {
	Azimuth   float32
	Elevation float32
	Color     mgl32.Vec3
	Ambient   float32
}

// NewSun returns a white sun at the given angles.
func NewSun(azimuth, elevation float32) *Sun {
	s := &Sun{Color: mgl32.Vec3{1, 0.97, 0.9}, Ambient: 0.25}
	s.Set(azimuth, elevation)
	return s
}

// Direction returns the unit vector towards the sun.
func (s *Sun) Direction() mgl32.Vec3 {
	return SunDirection(s.Azimuth, s.Elevation)
}

// Set places the sun. Azimuth wraps to [0, 360), elevation is clamped to
// [0, MaxElevation].
func (s *Sun) Set(azimuth, elevation float32) bool {
	az := math.FloorMod(azimuth, 360)
	el := math.Clamp(elevation, 0, MaxElevation)
	if az == s.Azimuth && el == s.Elevation {
		return false
	}
	s.Azimuth, s.Elevation = az, el
	return true
}

// Rotate turns the sun around the vertical axis by deg degrees.
func (s *Sun) Rotate(deg float32) bool {
	return s.Set(s.Azimuth+deg, s.Elevation)
}

// Raise changes the elevation by deg degrees.
func (s *Sun) Raise(deg float32) bool {
	return s.Set(s.Azimuth, s.Elevation+deg)
}
