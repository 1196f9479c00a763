package mapgen

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
)

const testResolution = 64

func newTestPipeline(t *testing.T, mutate func(*Config)) (*Pipeline, *soft.Device) {
	t.Helper()
	dev := soft.New()
	cfg := DefaultConfig()
	cfg.Resolution = testResolution
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(dev, cfg)
	require.NoError(t, err)
	return p, dev
}

func texels(t *testing.T, p *Pipeline, h gpu.Handle, mip int) []mgl32.Vec4 {
	t.Helper()
	s, err := p.Arena().Sampled(h)
	require.NoError(t, err)
	tex, ok := s.(*soft.Texture)
	require.True(t, ok)
	return tex.Texels(mip)
}

func TestNewSchedulesEverything(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	assert.Equal(t, FlagHeight|FlagNormal|FlagShadow|FlagMaterial|FlagGeometry, p.Flags())
	assert.True(t, p.GeometryShouldUpdate())
	assert.True(t, p.ShadowsAvailable())
	assert.Equal(t, 5, p.Arena().Len())
}

func TestUpdateRunsFlaggedStagesOnce(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	ran := p.Update()
	assert.Equal(t, FlagHeight|FlagNormal|FlagShadow|FlagMaterial, ran)
	assert.Equal(t, FlagGeometry, p.Flags())

	p.ClearGeometryUpdate()
	assert.Equal(t, Flags(0), p.Update())
	assert.False(t, p.GeometryShouldUpdate())
}

func TestHeightEditUpdatesDependentsSameFrame(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()
	p.ClearGeometryUpdate()

	id := p.Height().Procedures()[0].ID
	require.NoError(t, p.Height().SetParam(id, "octaves", IntValue{V: 3}))

	ran := p.Update()
	assert.True(t, ran.Has(FlagHeight|FlagNormal|FlagMaterial))
	assert.True(t, ran.Has(FlagShadow))
	assert.True(t, p.GeometryShouldUpdate())
}

func TestNormalEditSkipsHeight(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()
	p.ClearGeometryUpdate()

	ns := p.Normal().Settings()
	ns.AOStrength = 0.5
	p.Normal().SetSettings(ns)

	assert.Equal(t, FlagNormal, p.Update())
	assert.True(t, p.GeometryShouldUpdate())
}

func TestLightChangeOnlyRetracesShadows(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()
	p.ClearGeometryUpdate()

	p.SetLightDirection(p.LightDirection())
	assert.Equal(t, Flags(0), p.Flags())

	p.SetLightDirection(mgl32.Vec3{0.3, 0.8, 0.1}.Normalize())
	assert.Equal(t, FlagShadow, p.Flags())
	assert.Equal(t, FlagShadow, p.Update())
	assert.False(t, p.GeometryShouldUpdate())
}

func TestRequestShadowUpdate(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()

	p.RequestShadowUpdate()
	assert.True(t, p.Flags().Has(FlagShadow))
}

func TestFrameIsFenced(t *testing.T) {
	p, dev := newTestPipeline(t, nil)
	p.Update()

	st := dev.Stats()
	assert.Positive(t, st.Dispatches)
	assert.Equal(t, st.Dispatches, st.Barriers)
	assert.Zero(t, st.Hazards)
	assert.Zero(t, st.Unfenced)
	assert.Zero(t, st.Skipped)
	assert.True(t, dev.Fenced())
}

func TestHeightIsNormalized(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()

	var lo, hi float32 = 1, 0
	for _, v := range texels(t, p, p.Textures().Height, 0) {
		require.GreaterOrEqual(t, v[0], float32(0))
		require.LessOrEqual(t, v[0], float32(1))
		lo, hi = min(lo, v[0]), max(hi, v[0])
	}
	assert.Greater(t, hi, lo, "height map should not be flat")
}

func TestMipChains(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()

	base := texels(t, p, p.Textures().Height, 0)
	var sum, peak float32
	for _, v := range base {
		sum += v[0]
		peak = max(peak, v[0])
	}
	mean := sum / float32(len(base))

	levels := 7 // 64 -> 1
	avg := texels(t, p, p.Textures().Height, levels-1)
	require.Len(t, avg, 1)
	assert.InDelta(t, mean, avg[0][0], 1e-4)

	top := texels(t, p, p.Textures().HeightMax, levels-1)
	require.Len(t, top, 1)
	assert.Equal(t, peak, top[0][0])
}

func TestUnknownProcedureSkipped(t *testing.T) {
	p, dev := newTestPipeline(t, func(c *Config) {
		c.Procedures = append([]*Procedure{{Template: "nope", Enabled: true, Weight: 1}}, DefaultProcedures()...)
	})
	ref, _ := newTestPipeline(t, nil)
	p.Update()
	ref.Update()

	assert.Equal(t, texels(t, ref, ref.Textures().Height, 0), texels(t, p, p.Textures().Height, 0))
	assert.Zero(t, dev.Stats().Skipped)
}

func TestDisabledProcedureHasNoEffect(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ref, _ := newTestPipeline(t, func(c *Config) {
		c.Procedures = DefaultProcedures()[:1]
	})

	falloff := p.Height().Procedures()[1]
	require.NoError(t, p.Height().SetEnabled(falloff.ID, false))
	p.Update()
	ref.Update()

	assert.Equal(t, texels(t, ref, ref.Textures().Height, 0), texels(t, p, p.Textures().Height, 0))
}

func TestHeightEditing(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()
	h := p.Height()

	proc, err := h.Add("terrace")
	require.NoError(t, err)
	assert.Len(t, h.Procedures(), 3)
	assert.True(t, p.Flags().Has(FlagHeight))

	require.NoError(t, h.Move(proc.ID, 0))
	assert.Equal(t, proc.ID, h.Procedures()[0].ID)
	assert.Error(t, h.Move(proc.ID, 5))

	require.NoError(t, h.SetBlend(proc.ID, BlendMin, 0.5))
	assert.Equal(t, BlendMin, h.Procedures()[0].Blend)

	assert.True(t, h.Remove(proc.ID))
	assert.False(t, h.Remove(proc.ID))
	assert.Len(t, h.Procedures(), 2)

	_, err = h.Add("nope")
	assert.ErrorIs(t, err, ErrUnknownProcedure)
}

func TestShadowsDisabledLeaveMapLit(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.Update()

	p.Shadow().SetEnabled(false)
	assert.Equal(t, FlagShadow, p.Flags()&FlagShadow)
	assert.Equal(t, FlagShadow, p.Update())
	for _, v := range texels(t, p, p.Textures().Shadow, 0) {
		require.Equal(t, float32(1), v[0])
	}

	// Height edits no longer retrace shadows.
	p.Height().SetSettings(HeightSettings{ScaleXZ: 512, ScaleY: 48, Seed: 3})
	assert.False(t, p.Flags().Has(FlagShadow))

	p.RequestShadowUpdate()
	assert.False(t, p.Flags().Has(FlagShadow))
}

func TestShadowFromLowSun(t *testing.T) {
	p, _ := newTestPipeline(t, func(c *Config) {
		c.Light = mgl32.Vec3{1, 0.05, 0}.Normalize()
		c.Height.ScaleY = 400
	})
	p.Update()

	var shadowed int
	for _, v := range texels(t, p, p.Textures().Shadow, 0) {
		require.GreaterOrEqual(t, v[0], float32(0))
		require.LessOrEqual(t, v[0], float32(1))
		if v[0] < 0.5 {
			shadowed++
		}
	}
	assert.Positive(t, shadowed)
}

func TestNonPowerOfTwoDisablesShadows(t *testing.T) {
	p, dev := newTestPipeline(t, func(c *Config) { c.Resolution = 48 })

	assert.False(t, p.ShadowsAvailable())
	assert.False(t, p.Textures().HeightMax.Valid())
	assert.False(t, p.Flags().Has(FlagShadow))
	for _, v := range texels(t, p, p.Textures().Shadow, 0) {
		require.Equal(t, float32(1), v[0])
	}

	p.RequestShadowUpdate()
	p.SetLightDirection(mgl32.Vec3{0, 1, 0})
	assert.False(t, p.Flags().Has(FlagShadow))

	ran := p.Update()
	assert.Equal(t, FlagHeight|FlagNormal|FlagMaterial, ran)
	assert.Zero(t, dev.Stats().Hazards)
	assert.True(t, dev.Fenced())
}

func TestMaterialRules(t *testing.T) {
	all := DefaultMaterialRule()
	all.Material = 5
	p, _ := newTestPipeline(t, func(c *Config) {
		c.Material = MaterialSettings{Rules: []MaterialRule{all}}
	})
	p.Update()
	for _, v := range texels(t, p, p.Textures().Material, 0) {
		require.Equal(t, float32(5), v[0])
	}

	none := DefaultMaterialRule()
	none.Material = 4
	none.Height = [2]float32{2, 3}
	p.Material().SetSettings(MaterialSettings{Rules: []MaterialRule{none}})
	assert.Equal(t, FlagMaterial, p.Update())
	for _, v := range texels(t, p, p.Textures().Material, 0) {
		require.Equal(t, float32(0), v[0])
	}
}

func TestMaterialRulesTruncated(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	rules := make([]MaterialRule, MaxMaterialRules+3)
	p.Material().SetSettings(MaterialSettings{Rules: rules})
	assert.Len(t, p.Material().Settings().Rules, MaxMaterialRules)
}

func TestHeightSource(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	src := p.HeightSource()

	assert.Equal(t, testResolution, src.Resolution())
	assert.Equal(t, float32(1024), src.ScaleXZ())
	assert.Equal(t, float32(96), src.ScaleY())
	assert.NoError(t, src.BindAsImage(0, 0))
}
