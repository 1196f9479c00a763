package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is n·p + D = 0 with the normal pointing into the kept half-space.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance of p to the plane (positive inside).
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

func (p Plane) normalize() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Mul(1 / l), D: p.D / l}
}

// Frustum plane indices.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// Frustum holds six inward-facing planes.
type Frustum [6]Plane

// ExtractFrustum derives normalized frustum planes from a view-projection
// matrix (Gribb/Hartmann, OpenGL clip space -w..w).
func ExtractFrustum(vp mgl32.Mat4) Frustum {
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var f Frustum
	for i, p := range planes {
		f[i] = Plane{Normal: p.Vec3(), D: p[3]}.normalize()
	}
	return f
}

// IntersectsAABB reports whether the box is at least partially inside.
// For each plane the corner furthest along the normal (the positive vertex)
// is tested; if even that corner is behind the plane the box is outside.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, p := range f {
		// Projected radius of the box onto the plane normal.
		r := b.Extents[0]*math32.Abs(p.Normal[0]) +
			b.Extents[1]*math32.Abs(p.Normal[1]) +
			b.Extents[2]*math32.Abs(p.Normal[2])
		if p.Distance(b.Center)+r < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v is inside all six planes.
func (f Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for _, p := range f {
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}
