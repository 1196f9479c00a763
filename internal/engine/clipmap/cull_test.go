package clipmap

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// testFrustum looks down -Z from just above the origin.
func testFrustum() math.Frustum {
	return frustumAt(mgl32.Vec3{0, 0.5, 0})
}

func frustumAt(eye mgl32.Vec3) math.Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1.0, 0.1, 100.0)
	view := mgl32.LookAtV(eye, eye.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
	return math.ExtractFrustum(proj.Mul4(view))
}

func drawn(ds DrawSet, t *Tile) bool {
	for _, it := range ds.Items {
		if it.Tile == t {
			return true
		}
	}
	return false
}

func TestSelectCullsTilesBehindCamera(t *testing.T) {
	cm := build(t, soft.New(), testSettings())
	ds := Select(cm, testFrustum(), 1, mgl32.Vec2{})

	assert.Greater(t, ds.Culled, 0)
	for _, l := range cm.Levels() {
		for _, g := range l.Grids {
			if g.Bounds.Min().Z() > 0 {
				assert.False(t, drawn(ds, g), "grid behind the camera at %v was drawn", g.Bounds.Center)
			}
		}
	}
}

func TestSelectKeepsStraddlingTiles(t *testing.T) {
	cm := build(t, soft.New(), testSettings())
	ds := Select(cm, testFrustum(), 1, mgl32.Vec2{})

	// Level 0 grid spanning x in [-3, 0], z in [-3, 0] crosses the left plane.
	straddling := cm.Levels()[0].Grids[0]
	assert.Equal(t, mgl32.Vec2{-3, -3}, straddling.Offset)
	assert.True(t, drawn(ds, straddling))
}

func TestSelectNeverCullsFills(t *testing.T) {
	cm := build(t, soft.New(), testSettings())

	// Viewer far away: every box moves behind the camera.
	ds := Select(cm, testFrustum(), 1, mgl32.Vec2{0, 500})

	assert.Equal(t, cm.GridCount(), ds.Culled)
	assert.Equal(t, cm.FillCount(), ds.Len())
	for _, it := range ds.Items {
		assert.Equal(t, KindFill, it.Tile.Kind)
	}
}

func TestSelectAppliesVerticalScale(t *testing.T) {
	cm := build(t, soft.New(), testSettings())

	// Looking horizontally from y=50, unit-height boxes sit under the view.
	high := frustumAt(mgl32.Vec3{0, 50, 0})
	flat := Select(cm, high, 1, mgl32.Vec2{})
	tall := Select(cm, high, 100, mgl32.Vec2{})

	assert.Equal(t, cm.FillCount(), flat.Len())
	assert.Greater(t, tall.Len(), flat.Len())
}

func TestSelectOffsetsFollowViewer(t *testing.T) {
	s := testSettings()
	cm := build(t, soft.New(), s)
	viewer := mgl32.Vec2{2.7, -0.6}
	ds := Select(cm, testFrustum(), 1, viewer)

	for _, it := range ds.Items {
		assert.Equal(t, s.Quantize(viewer, it.Tile.Level), it.Offset)
	}
}

func TestSelectPicksFillVariantFromInnerShift(t *testing.T) {
	s := testSettings()
	cm := build(t, soft.New(), s)

	// Snapped offsets are (3, -1), (2, -2) and (0, -4): every ring has the
	// finer level shifted one spacing towards +X and +Z.
	viewer := mgl32.Vec2{3.5, -0.5}
	for l := 1; l < s.Levels; l++ {
		ax, az := s.InnerShift(viewer, l)
		assert.Equal(t, 1, ax, "level %d", l)
		assert.Equal(t, 1, az, "level %d", l)
	}

	ds := Select(cm, testFrustum(), 1, viewer)
	for _, it := range ds.Items {
		switch {
		case it.Tile.Kind == KindGrid || it.Tile.Level == 0:
			assert.Equal(t, IndexRange{Count: it.Tile.ElementCount}, it.Range)
		default:
			assert.Equal(t, it.Tile.Ranges[3], it.Range)
		}
	}

	ds = Select(cm, testFrustum(), 1, mgl32.Vec2{0.5, 0.5})
	for _, it := range ds.Items {
		if it.Tile.Kind == KindFill && it.Tile.Level > 0 {
			assert.Equal(t, it.Tile.Ranges[0], it.Range)
		}
	}
}
