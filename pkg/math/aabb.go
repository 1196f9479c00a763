package math

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box stored as center and half-size.
type AABB struct {
	Center  mgl32.Vec3
	Extents mgl32.Vec3
}

// AABBFromMinMax builds a box from its corners.
func AABBFromMinMax(min, max mgl32.Vec3) AABB {
	return AABB{
		Center:  min.Add(max).Mul(0.5),
		Extents: max.Sub(min).Mul(0.5),
	}
}

// Min returns the minimum corner.
func (b AABB) Min() mgl32.Vec3 {
	return b.Center.Sub(b.Extents)
}

// Max returns the maximum corner.
func (b AABB) Max() mgl32.Vec3 {
	return b.Center.Add(b.Extents)
}

// Translate returns the box moved by d.
func (b AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Center: b.Center.Add(d), Extents: b.Extents}
}

// ScaleY returns the box with center and extents scaled along Y.
// Used when heights are multiplied after the box was built.
func (b AABB) ScaleY(s float32) AABB {
	c, e := b.Center, b.Extents
	c[1] *= s
	e[1] *= s
	if e[1] < 0 {
		e[1] = -e[1]
	}
	return AABB{Center: c, Extents: e}
}
