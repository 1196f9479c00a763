package clipmap

import "github.com/go-gl/mathgl/mgl32"

// LevelShouldUpdate reports whether the viewer crossed a cell boundary of
// the level between prev and curr. Cells double per level, so a coarse
// level never needs resampling more often than a fine one.
func (c *Clipmap) LevelShouldUpdate(level int, curr, prev mgl32.Vec2) bool {
	return c.settings.Quantize(curr, level) != c.settings.Quantize(prev, level)
}

// StaleLevels returns the indices of the levels that need resampling.
func (c *Clipmap) StaleLevels(curr, prev mgl32.Vec2) []int {
	var out []int
	for _, l := range c.levels {
		if c.LevelShouldUpdate(l.Index, curr, prev) {
			out = append(out, l.Index)
		}
	}
	return out
}
