// Package clipmap implements geometry clipmap terrain: nested rings of
// fixed-topology tiles that follow the viewer by per-level quantized offsets
// instead of being rebuilt. It owns tile construction, the per-level update
// schedule, displacement dispatch and frustum culling.
package clipmap

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Settings fixes the clipmap topology. Changing it requires a rebuild.
type Settings struct {
	Subdivisions   int     `yaml:"subdivisions"`
	Levels         int     `yaml:"levels"`
	BaseSideLength float32 `yaml:"base_side_length"`
}

// DefaultSettings returns the topology used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{Subdivisions: 32, Levels: 6, BaseSideLength: 4}
}

// Enabled reports whether the settings describe any geometry. One
// subdivision has no interior vertex spacing and counts as disabled.
func (s Settings) Enabled() bool {
	return s.Subdivisions >= 2 && s.Levels > 0 && s.BaseSideLength > 0
}

// BaseOffset is the level 0 cell size.
func (s Settings) BaseOffset() float32 {
	if s.Subdivisions <= 0 {
		return 0
	}
	return s.BaseSideLength / float32(s.Subdivisions)
}

// Scale returns the size multiplier of a level: 1 for levels 0 and 1, then
// doubling.
func Scale(level int) float32 {
	if level <= 1 {
		return 1
	}
	return float32(uint(1) << uint(level-1))
}

// Cell returns the quantization step of a level: the base offset doubled
// once per level, so level 2 snaps to four base cells.
func (s Settings) Cell(level int) float32 {
	if level < 0 {
		level = 0
	}
	return float32(uint(1)<<uint(level)) * s.BaseOffset()
}

// Spacing returns the distance between adjacent vertices at a level: half
// a cell, so snapping to the cell lattice moves a level by two vertices and
// keeps every vertex on the same parity.
func (s Settings) Spacing(level int) float32 {
	return s.Cell(level) / 2
}

// quads is the number of quads along one grid tile edge at levels >= 1.
// Level 0 tiles carry twice as many at half the spacing.
func (s Settings) quads() int {
	return s.Subdivisions - 1
}

// TileSide returns the world length of one grid tile edge at a level.
func (s Settings) TileSide(level int) float32 {
	return Scale(level) * float32(s.quads()) * s.BaseOffset()
}

// Footprint returns the side length of the square a level covers: two
// tiles and a two-quad gap at level 0, four tiles and two one-quad gaps
// beyond. It doubles from level to level.
func (s Settings) Footprint(level int) float32 {
	return float32(4*s.quads()+2) * s.Spacing(level)
}

// Extent returns the level-local minimum and maximum coordinate of the
// footprint on either axis. The square is one spacing off centre so the
// finer level fits its hole at either parity of the snapped offsets.
func (s Settings) Extent(level int) (lo, hi float32) {
	g := s.Spacing(level)
	m := float32(s.quads())
	return -2 * m * g, (2*m + 2) * g
}

// InnerShift returns, per axis, how many spacings of level the finer level
// sits from its own snapped origin. It is 0 or 1 because the snapped offsets
// of neighbouring levels differ by at most one coarse spacing.
func (s Settings) InnerShift(viewer mgl32.Vec2, level int) (ax, az int) {
	if level <= 0 {
		return 0, 0
	}
	d := s.Quantize(viewer, level-1).Sub(s.Quantize(viewer, level)).Mul(1 / s.Spacing(level))
	return clampShift(d[0]), clampShift(d[1])
}

func clampShift(v float32) int {
	if v >= 0.5 {
		return 1
	}
	return 0
}

// MorphBand returns the width of the band along a level's outer edge over
// which odd vertices blend towards the coarser lattice. The outermost level
// has no coarser neighbour and does not morph.
func (s Settings) MorphBand(level int) float32 {
	if level+1 >= s.Levels {
		return 0
	}
	return float32(max(s.quads()/2, 1)) * s.Spacing(level)
}

// Quantize snaps a planar position to a level's cell lattice.
func (s Settings) Quantize(p mgl32.Vec2, level int) mgl32.Vec2 {
	return math.QuantizeVec2(p, s.Cell(level))
}
