// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// LineVertex is one endpoint of a debug line.
type LineVertex struct {
	Pos   mgl32.Vec3
	Color mgl32.Vec3
}

// BoxVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BoxVertexCount = 24

// FillColor marks seam fills, which are never culled.
var FillColor = mgl32.Vec3{1, 1, 1}

// levelColors cycles per LOD level so neighbouring rings differ.
var levelColors = []mgl32.Vec3{
	{1.0, 0.3, 0.3},
	{1.0, 0.8, 0.2},
	{0.3, 1.0, 0.4},
	{0.3, 0.8, 1.0},
	{0.6, 0.4, 1.0},
	{1.0, 0.4, 0.9},
}

// LevelColor returns the overlay color of a LOD level.
func LevelColor(level int) mgl32.Vec3 {
	if level < 0 {
		level = 0
	}
	return levelColors[level%len(levelColors)]
}

// BoxLines appends the 12 edges of b as line pairs.
func BoxLines(dst []LineVertex, b math.AABB, color mgl32.Vec3) []LineVertex {
	lo, hi := b.Min(), b.Max()
	corner := func(x, y, z bool) LineVertex {
		p := lo
		if x {
			p[0] = hi[0]
		}
		if y {
			p[1] = hi[1]
		}
		if z {
			p[2] = hi[2]
		}
		return LineVertex{Pos: p, Color: color}
	}
	for _, y := range []bool{false, true} {
		dst = append(dst,
			corner(false, y, false), corner(true, y, false),
			corner(true, y, false), corner(true, y, true),
			corner(true, y, true), corner(false, y, true),
			corner(false, y, true), corner(false, y, false),
		)
	}
	for _, c := range [][2]bool{{false, false}, {true, false}, {true, true}, {false, true}} {
		dst = append(dst, corner(c[0], false, c[1]), corner(c[0], true, c[1]))
	}
	return dst
}

// DrawSetLines outlines the world-space bounds of every selected tile,
// colored by level. Fills use FillColor.
func DrawSetLines(ds clipmap.DrawSet, verticalScale float32) []LineVertex {
	out := make([]LineVertex, 0, len(ds.Items)*BoxVertexCount)
	for _, it := range ds.Items {
		box := it.WorldBounds(verticalScale)
		color := LevelColor(it.Tile.Level)
		if it.Tile.Kind == clipmap.KindFill {
			color = FillColor
		}
		out = BoxLines(out, box, color)
	}
	return out
}

// FootprintLines outlines the square each level covers around viewer at
// height y.
func FootprintLines(cm *clipmap.Clipmap, viewer mgl32.Vec2, y float32) []LineVertex {
	if cm == nil {
		return nil
	}
	s := cm.Settings()
	var out []LineVertex
	for _, l := range cm.Levels() {
		c := s.Quantize(viewer, l.Index)
		lo, hi := s.Extent(l.Index)
		color := LevelColor(l.Index)
		p := [4]mgl32.Vec3{
			{c[0] + lo, y, c[1] + lo},
			{c[0] + hi, y, c[1] + lo},
			{c[0] + hi, y, c[1] + hi},
			{c[0] + lo, y, c[1] + hi},
		}
		for i := range p {
			out = append(out, LineVertex{p[i], color}, LineVertex{p[(i+1)%4], color})
		}
	}
	return out
}
