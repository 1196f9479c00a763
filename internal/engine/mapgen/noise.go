package mapgen

import (
	"github.com/chewxy/math32"
)

// Lattice noise shared with shaders/noise.glsl. Lattice points are hashed
// with the same 32-bit integer mixer on both sides, so the CPU kernels
// produce the heights the GPU produces up to float rounding.

const (
	hashMulA  = 0x7feb352d
	hashMulB  = 0x846ca68b
	hashSalt  = 0x9e3779b9
	hashScale = 1.0 / 16777216.0
)

func mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= hashMulA
	x ^= x >> 15
	x *= hashMulB
	x ^= x >> 16
	return x
}

// hash2 maps a lattice point to a gradient with components in [-1, 1).
func hash2(ix, iy int32) (float32, float32) {
	h := mix32(uint32(ix) ^ mix32(uint32(iy)))
	g := mix32(h ^ hashSalt)
	return float32(h>>8)*hashScale*2 - 1, float32(g>>8)*hashScale*2 - 1
}

// glslMix is GLSL mix, which rounds differently from a+(b-a)*t.
func glslMix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func glslMod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

// seedOffset shifts the noise domain per seed.
func seedOffset(seed int) (float32, float32) {
	s := float32(seed)
	return s * 17.137, s * 31.713
}

// gradientNoise is smoothstep-interpolated gradient noise in [-1, 1].
func gradientNoise(x, y float32) float32 {
	fx, fy := math32.Floor(x), math32.Floor(y)
	ix, iy := int32(fx), int32(fy)
	tx, ty := x-fx, y-fy
	ux := tx * tx * (3 - 2*tx)
	uy := ty * ty * (3 - 2*ty)

	corner := func(dx, dy int32) float32 {
		gx, gy := hash2(ix+dx, iy+dy)
		return gx*(tx-float32(dx)) + gy*(ty-float32(dy))
	}
	return glslMix(
		glslMix(corner(0, 0), corner(1, 0), ux),
		glslMix(corner(0, 1), corner(1, 1), ux),
		uy)
}

func permute(x float32) float32 {
	return glslMod((x*34+1)*x, 289)
}

// simplexNoise is 2D simplex noise in [-1, 1] using the mod-289
// permutation polynomial.
func simplexNoise(vx, vy float32) float32 {
	const (
		cx = 0.211324865405187
		cy = 0.366025403784439
		cz = -0.577350269189626
		cw = 0.024390243902439
	)
	skew := vx*cy + vy*cy
	ix, iy := math32.Floor(vx+skew), math32.Floor(vy+skew)
	unskew := ix*cx + iy*cx
	x0 := [2]float32{vx - ix + unskew, vy - iy + unskew}

	var i1x, i1y float32 = 0, 1
	if x0[0] > x0[1] {
		i1x, i1y = 1, 0
	}
	x1 := [2]float32{x0[0] + cx - i1x, x0[1] + cx - i1y}
	x2 := [2]float32{x0[0] + cz, x0[1] + cz}

	ix, iy = glslMod(ix, 289), glslMod(iy, 289)
	py := [3]float32{iy, iy + i1y, iy + 1}
	px := [3]float32{ix, ix + i1x, ix + 1}
	corners := [3][2]float32{x0, x1, x2}

	var total float32
	for k := 0; k < 3; k++ {
		p := permute(permute(py[k]) + px[k])
		c := corners[k]
		m := math32.Max(0.5-(c[0]*c[0]+c[1]*c[1]), 0)
		m *= m
		m *= m

		x := 2*fract(p*cw) - 1
		h := math32.Abs(x) - 0.5
		a0 := x - math32.Floor(x+0.5)
		m *= 1.79284291400159 - 0.85373472095314*(a0*a0+h*h)
		total += m * (a0*c[0] + h*c[1])
	}
	return 130 * total
}
