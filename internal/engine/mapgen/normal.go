package mapgen

import "github.com/Faultbox/midgard-terrain/internal/engine/gpu"

// NormalStage derives surface normals and ambient occlusion from the height
// map.
type NormalStage struct {
	p        *Pipeline
	settings NormalSettings
}

// Settings returns the ambient occlusion settings.
func (s *NormalStage) Settings() NormalSettings { return s.settings }

// SetSettings replaces the ambient occlusion settings.
func (s *NormalStage) SetSettings(ns NormalSettings) {
	if ns == s.settings {
		return
	}
	s.settings = ns
	s.p.invalidate(FlagNormal)
}

func (s *NormalStage) run() {
	p := s.p
	height := p.sampled(p.tex.Height)
	target := p.writable(p.tex.Normal, StageNormal)
	if height == nil || target == nil {
		return
	}
	k := p.dev.Kernel(kernelNormalAO)
	k.Bind()
	height.BindAsSampler(0)
	target.BindAsImage(0, 0)
	k.SetUniform("u_Resolution", gpu.Int(p.resolution))
	k.SetUniform("u_HeightScale", gpu.Float(p.heightScale()))
	k.SetUniform("u_AORadius", gpu.Float(s.settings.AORadius))
	k.SetUniform("u_AOSamples", gpu.Int(s.settings.AOSamples))
	k.SetUniform("u_AOStrength", gpu.Float(s.settings.AOStrength))
	p.run(k, p.resolution)
}
