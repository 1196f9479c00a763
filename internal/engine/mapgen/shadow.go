package mapgen

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// ShadowStage ray marches the height map towards the light. While shadows
// are disabled or unavailable the shadow map is fully lit.
type ShadowStage struct {
	p        *Pipeline
	settings ShadowSettings
}

// Settings returns the shadow settings.
func (s *ShadowStage) Settings() ShadowSettings { return s.settings }

// SetSettings replaces the shadow settings. Turning shadows off schedules a
// lit fill so stale shadows do not linger.
func (s *ShadowStage) SetSettings(ss ShadowSettings) {
	if ss == s.settings {
		return
	}
	wasEnabled := s.settings.Enabled
	s.settings = ss
	if !s.p.mips {
		if ss.Enabled && !wasEnabled {
			s.p.log.Warn("shadows requested but unavailable at this resolution",
				zap.Int("resolution", s.p.resolution))
		}
		return
	}
	if !ss.Enabled {
		s.p.flags |= FlagShadow
		return
	}
	s.p.invalidate(FlagShadow)
}

// SetEnabled toggles shadow tracing.
func (s *ShadowStage) SetEnabled(enabled bool) {
	ss := s.settings
	ss.Enabled = enabled
	s.SetSettings(ss)
}

func (s *ShadowStage) run() {
	p := s.p
	if !p.shadowsActive() {
		s.fillLit()
		return
	}
	height := p.sampled(p.tex.Height)
	heightMax := p.sampled(p.tex.HeightMax)
	target := p.writable(p.tex.Shadow, StageShadow)
	if height == nil || heightMax == nil || target == nil {
		return
	}
	k := p.dev.Kernel(kernelShadow)
	k.Bind()
	height.BindAsSampler(0)
	heightMax.BindAsSampler(1)
	target.BindAsImage(0, 0)
	k.SetUniform("u_Resolution", gpu.Int(p.resolution))
	k.SetUniform("u_HeightScale", gpu.Float(p.heightScale()))
	k.SetUniform("u_LightDir", gpu.Vec3(p.light))
	k.SetUniform("u_Steps", gpu.Int(s.settings.Quality.Steps()))
	k.SetUniform("u_Softness", gpu.Float(s.settings.Softness))
	k.SetUniform("u_MaxLod", gpu.Int(heightMax.MipLevels()-1))
	p.run(k, p.resolution)
}

func (s *ShadowStage) fillLit() {
	if target := s.p.writable(s.p.tex.Shadow, StageShadow); target != nil {
		s.p.fill(target, 1)
	}
}
