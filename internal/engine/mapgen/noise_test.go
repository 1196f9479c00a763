package mapgen

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
)

// Expected values come from a float32 transliteration of shaders/noise.glsl
// that rounds after every operation, so they are what the GPU computes.

const noiseTolerance = 1e-5

func TestGradientNoiseMatchesShader(t *testing.T) {
	for _, tc := range []struct {
		x, y float32
		want float32
	}{
		{0.25, 0.75, -0.1495777},
		{3.4, -1.2, 0.3977389},
		{-7.9, 12.35, -0.0876857},
		{101.5, -44.125, -0.2979065},
	} {
		assert.InDelta(t, tc.want, gradientNoise(tc.x, tc.y), noiseTolerance, "(%v, %v)", tc.x, tc.y)
	}
}

func TestSimplexNoiseMatchesShader(t *testing.T) {
	for _, tc := range []struct {
		x, y float32
		want float32
	}{
		{0.25, 0.75, -0.1560570},
		{3.4, -1.2, -0.1680164},
		{-7.9, 12.35, 0.5416440},
		{101.5, -44.125, 0.4964430},
	} {
		assert.InDelta(t, tc.want, simplexNoise(tc.x, tc.y), noiseTolerance, "(%v, %v)", tc.x, tc.y)
	}
}

func TestGradientNoiseVanishesOnLattice(t *testing.T) {
	for _, p := range [][2]float32{{0, 0}, {5, -3}, {-12, 40}} {
		assert.Zero(t, gradientNoise(p[0], p[1]))
	}
}

func octaveUniforms(seed int) soft.Uniforms {
	return soft.Uniforms{
		"u_octaves":     gpu.Int(3),
		"u_frequency":   gpu.Float(4),
		"u_persistence": gpu.Float(0.5),
		"u_lacunarity":  gpu.Float(2),
		"u_offset":      gpu.Vec3{1, 0, 2},
		"u_Seed":        gpu.Int(seed - 1),
		"u_seed":        gpu.Int(1),
	}
}

func TestOctaveEvaluatorsMatchShader(t *testing.T) {
	uv := mgl32.Vec2{0.3, 0.6}

	assert.InDelta(t, 0.4877281, fbmSoft(octaveUniforms(3))(uv, 0), noiseTolerance)
	assert.InDelta(t, 0.6007215, simplexSoft(octaveUniforms(3))(uv, 0), noiseTolerance)
}

func TestSeedShiftsNoiseDomain(t *testing.T) {
	uv := mgl32.Vec2{0.3, 0.6}
	a := fbmSoft(octaveUniforms(3))(uv, 0)
	b := fbmSoft(octaveUniforms(4))(uv, 0)

	assert.NotEqual(t, a, b)
}
