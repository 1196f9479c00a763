// Package math provides geometry helpers for terrain LOD: quantization,
// power-of-two checks, bounding boxes and view frustums.
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// FloorMod returns a mod b with the sign of b (floor division), so the
// result is always in [0, b) for positive b.
func FloorMod(a, b float32) float32 {
	return a - b*math32.Floor(a/b)
}

// FloorModInt is FloorMod for integers: the result is in [0, b) for b > 0.
func FloorModInt(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Quantize snaps v down to the nearest multiple of step.
// Equivalent to v - FloorMod(v, step).
func Quantize(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return step * math32.Floor(v/step)
}

// QuantizeVec2 quantizes both components of p.
func QuantizeVec2(p mgl32.Vec2, step float32) mgl32.Vec2 {
	return mgl32.Vec2{Quantize(p[0], step), Quantize(p[1], step)}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)) for n > 0, and 0 otherwise.
func Log2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// MipLevels returns the length of a full mip chain for a square texture of
// the given size, or 1 when size is not a power of two.
func MipLevels(size int) int {
	if !IsPowerOfTwo(size) {
		return 1
	}
	return Log2(size) + 1
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Smoothstep is the GLSL smoothstep.
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
