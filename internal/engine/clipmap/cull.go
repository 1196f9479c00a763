package clipmap

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// DrawItem is a tile with the world offset it must be drawn at and the part
// of its index buffer to draw.
type DrawItem struct {
	Tile   *Tile
	Offset mgl32.Vec2
	Range  IndexRange
}

// DrawSet is the result of culling one frame.
type DrawSet struct {
	Items  []DrawItem
	Culled int
}

// WorldBounds returns the tile's box at its draw offset with heights
// stretched by verticalScale.
func (it DrawItem) WorldBounds(verticalScale float32) math.AABB {
	return it.Tile.Bounds.ScaleY(verticalScale).Translate(mgl32.Vec3{it.Offset[0], 0, it.Offset[1]})
}

// Len returns the number of tiles to draw.
func (ds DrawSet) Len() int { return len(ds.Items) }

// Select returns the tiles to draw. A grid is kept unless its box, moved
// by its level's quantized viewer offset and stretched by verticalScale, lies
// completely outside one frustum plane. Fill tiles are always kept, drawn
// with the variant that leaves out the quads under the finer level.
func Select(cm *Clipmap, f math.Frustum, verticalScale float32, viewer mgl32.Vec2) DrawSet {
	var ds DrawSet
	if cm == nil {
		return ds
	}
	for _, l := range cm.levels {
		off := cm.settings.Quantize(viewer, l.Index)
		shift := mgl32.Vec3{off[0], 0, off[1]}
		for _, t := range l.Grids {
			box := t.Bounds.ScaleY(verticalScale).Translate(shift)
			if !f.IntersectsAABB(box) {
				ds.Culled++
				continue
			}
			ds.Items = append(ds.Items, DrawItem{Tile: t, Offset: off, Range: t.Range(0)})
		}
		ax, az := cm.settings.InnerShift(viewer, l.Index)
		for _, t := range l.Fills {
			ds.Items = append(ds.Items, DrawItem{Tile: t, Offset: off, Range: t.Range(ax + 2*az)})
		}
	}
	return ds
}
