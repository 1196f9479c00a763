// Package picking casts rays from the screen into the terrain.
package picking

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ScreenToRay converts pixel coordinates in a viewport of the given size to
// a world-space ray. invViewProj is the inverse of the view-projection
// matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // screen Y grows downwards

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if near[3] != 0 {
		near = near.Mul(1 / near[3])
	}
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}

	origin := near.Vec3()
	dir := far.Vec3().Sub(origin)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlaneY intersects the ray with the horizontal plane at y.
func (r Ray) IntersectPlaneY(y float32) (mgl32.Vec3, bool) {
	if gomath.Abs(float64(r.Direction[1])) < 0.001 {
		return mgl32.Vec3{}, false
	}
	t := (y - r.Origin[1]) / r.Direction[1]
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.At(t), true
}

// IntersectAABB returns the entry distance into b, or the exit distance when
// the ray starts inside.
func (r Ray) IntersectAABB(b math.AABB) (float32, bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)
	lo, hi := b.Min(), b.Max()

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < lo[axis] || r.Origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (hi[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Hit is a tile struck by a ray.
type Hit struct {
	Item   clipmap.DrawItem
	Bounds math.AABB
	T      float32
}

// PickTile returns the drawn tile whose world bounds the ray enters first.
// Grids win over fills at equal distance since fills sit on grid seams.
func PickTile(r Ray, ds clipmap.DrawSet, verticalScale float32) (Hit, bool) {
	var best Hit
	found := false
	for _, it := range ds.Items {
		box := it.WorldBounds(verticalScale)
		t, ok := r.IntersectAABB(box)
		if !ok {
			continue
		}
		if found && (t > best.T || (t == best.T && it.Tile.Kind == clipmap.KindFill)) {
			continue
		}
		best = Hit{Item: it, Bounds: box, T: t}
		found = true
	}
	return best, found
}
