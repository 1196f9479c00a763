package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	// Camera at origin looking down -Z, 90 deg FOV, near 1, far 100.
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	return ExtractFrustum(proj.Mul4(view))
}

func TestExtractFrustumNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f {
		if l := p.Normal.Len(); abs(l-1) > 1e-4 {
			t.Errorf("plane %d normal length = %v, want 1", i, l)
		}
	}
	if d := f[PlaneNear].Distance(mgl32.Vec3{0, 0, -1}); abs(d) > 1e-3 {
		t.Errorf("near plane should pass through z=-1, distance %v", d)
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name     string
		min, max mgl32.Vec3
		want     bool
	}{
		{"inside", mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}, true},
		{"left", mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}, false},
		{"right", mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}, false},
		{"behind", mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}, false},
		{"beyond far", mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}, false},
		{"straddles left plane", mgl32.Vec3{-15, -1, -10}, mgl32.Vec3{-5, 1, -5}, true},
		{"straddles near plane", mgl32.Vec3{-1, -1, -2}, mgl32.Vec3{1, 1, 3}, true},
		{"encloses frustum", mgl32.Vec3{-1000, -1000, -1000}, mgl32.Vec3{1000, 1000, 1000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.IntersectsAABB(AABBFromMinMax(tt.min, tt.max))
			if got != tt.want {
				t.Errorf("IntersectsAABB = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABB(t *testing.T) {
	b := AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 1, 4})
	if b.Center != (mgl32.Vec3{1, 0.5, 2}) || b.Extents != (mgl32.Vec3{1, 0.5, 2}) {
		t.Fatalf("AABBFromMinMax: got %+v", b)
	}

	s := b.ScaleY(10)
	if s.Max()[1] != 10 || s.Min()[1] != 0 {
		t.Errorf("ScaleY(10): y range [%v, %v], want [0, 10]", s.Min()[1], s.Max()[1])
	}

	m := b.Translate(mgl32.Vec3{5, 0, -5})
	if m.Min() != (mgl32.Vec3{5, 0, -5}) {
		t.Errorf("Translate: min %v", m.Min())
	}
}
