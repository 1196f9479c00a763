package mapgen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// MaterialStage classifies texels by height, slope and curvature.
type MaterialStage struct {
	p        *Pipeline
	settings MaterialSettings
}

// Settings returns a copy of the rule list.
func (s *MaterialStage) Settings() MaterialSettings {
	rules := make([]MaterialRule, len(s.settings.Rules))
	copy(rules, s.settings.Rules)
	return MaterialSettings{Rules: rules}
}

// SetSettings replaces the rule list. Rules past MaxMaterialRules are
// dropped.
func (s *MaterialStage) SetSettings(ms MaterialSettings) {
	if n := len(ms.Rules); n > MaxMaterialRules {
		s.p.log.Warn("material rules truncated",
			zap.Int("rules", n), zap.Int("max", MaxMaterialRules))
		ms.Rules = ms.Rules[:MaxMaterialRules]
	}
	rules := make([]MaterialRule, len(ms.Rules))
	copy(rules, ms.Rules)
	s.settings = MaterialSettings{Rules: rules}
	s.p.invalidate(FlagMaterial)
}

func (s *MaterialStage) run() {
	p := s.p
	height := p.sampled(p.tex.Height)
	normal := p.sampled(p.tex.Normal)
	target := p.writable(p.tex.Material, StageMaterial)
	if height == nil || normal == nil || target == nil {
		return
	}
	rules := s.settings.Rules
	if len(rules) > MaxMaterialRules {
		rules = rules[:MaxMaterialRules]
	}

	k := p.dev.Kernel(kernelMaterial)
	k.Bind()
	height.BindAsSampler(0)
	normal.BindAsSampler(1)
	target.BindAsImage(0, 0)
	k.SetUniform("u_Resolution", gpu.Int(p.resolution))
	k.SetUniform("u_HeightScale", gpu.Float(p.heightScale()))
	k.SetUniform("u_RuleCount", gpu.Int(len(rules)))
	for i, r := range rules {
		k.SetUniform(fmt.Sprintf("u_RuleMaterial[%d]", i), gpu.Int(r.Material))
		k.SetUniform(fmt.Sprintf("u_RuleHeight[%d]", i), gpu.Vec2(r.Height))
		k.SetUniform(fmt.Sprintf("u_RuleSlope[%d]", i), gpu.Vec2(r.Slope))
		k.SetUniform(fmt.Sprintf("u_RuleCurvature[%d]", i), gpu.Vec2(r.Curvature))
	}
	p.run(k, p.resolution)
}
