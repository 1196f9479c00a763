package mapgen

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// DefaultResolution is the map edge length used when none is configured.
const DefaultResolution = 1024

// MaxMaterialRules bounds the material rule list.
const MaxMaterialRules = 8

// MaxMaterials is the size of the material palette. Rule material indices
// beyond it are clamped when shading.
const MaxMaterials = 8

// DefaultPalette colors materials 0 (fallback soil) through 3 (snow).
var DefaultPalette = [MaxMaterials]mgl32.Vec3{
	{0.42, 0.36, 0.28},
	{0.28, 0.45, 0.18},
	{0.45, 0.43, 0.40},
	{0.92, 0.94, 0.97},
	{0.76, 0.70, 0.50},
	{0.20, 0.30, 0.15},
	{0.35, 0.25, 0.20},
	{0.60, 0.60, 0.65},
}

// HeightSettings scale the normalized height map into world units.
type HeightSettings struct {
	ScaleXZ float32 `yaml:"scale_xz"` // world units covered by the map
	ScaleY  float32 `yaml:"scale_y"`  // world height of a normalized 1.0
	Seed    int     `yaml:"seed"`     // added to every procedure seed
}

// DefaultHeightSettings returns the documented height defaults.
func DefaultHeightSettings() HeightSettings {
	return HeightSettings{ScaleXZ: 1024, ScaleY: 96, Seed: 1337}
}

// NormalSettings control normal and ambient occlusion derivation.
type NormalSettings struct {
	AORadius   float32 `yaml:"ao_radius"` // texels
	AOSamples  int     `yaml:"ao_samples"`
	AOStrength float32 `yaml:"ao_strength"`
}

// DefaultNormalSettings returns the documented normal/AO defaults.
func DefaultNormalSettings() NormalSettings {
	return NormalSettings{AORadius: 8, AOSamples: 8, AOStrength: 1}
}

// ShadowQuality selects the ray march budget.
type ShadowQuality uint8

const (
	ShadowLow ShadowQuality = iota
	ShadowMedium
	ShadowHigh
)

var qualityNames = []string{"low", "medium", "high"}

func (q ShadowQuality) String() string {
	if int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("quality(%d)", q)
}

// Steps returns the maximum number of march steps per texel.
func (q ShadowQuality) Steps() int {
	switch q {
	case ShadowLow:
		return 32
	case ShadowHigh:
		return 128
	default:
		return 64
	}
}

// ParseShadowQuality resolves a quality by name.
func ParseShadowQuality(s string) (ShadowQuality, error) {
	for i, n := range qualityNames {
		if n == s {
			return ShadowQuality(i), nil
		}
	}
	return ShadowMedium, fmt.Errorf("unknown shadow quality %q", s)
}

func (q ShadowQuality) MarshalYAML() (interface{}, error) {
	return q.String(), nil
}

func (q *ShadowQuality) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := ParseShadowQuality(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*q = v
	return nil
}

// ShadowSettings control terrain self-shadowing.
type ShadowSettings struct {
	Enabled  bool          `yaml:"enabled"`
	Quality  ShadowQuality `yaml:"quality"`
	Softness float32       `yaml:"softness"` // 0 hard, 1 soft
}

// DefaultShadowSettings returns the documented shadow defaults.
func DefaultShadowSettings() ShadowSettings {
	return ShadowSettings{Enabled: true, Quality: ShadowMedium, Softness: 0.5}
}

// MaterialRule assigns Material to texels whose normalized height, slope in
// degrees and curvature all fall inside the inclusive ranges.
type MaterialRule struct {
	Material  int        `yaml:"material"`
	Height    [2]float32 `yaml:"height,flow"`
	Slope     [2]float32 `yaml:"slope,flow"`
	Curvature [2]float32 `yaml:"curvature,flow"`
}

// DefaultMaterialRule matches everything and selects material 0.
func DefaultMaterialRule() MaterialRule {
	return MaterialRule{
		Height:    [2]float32{0, 1},
		Slope:     [2]float32{0, 90},
		Curvature: [2]float32{-1e6, 1e6},
	}
}

// MaterialSettings is an ordered rule list; the first matching rule wins and
// texels matching none get material 0.
type MaterialSettings struct {
	Rules []MaterialRule `yaml:"rules"`
}

// DefaultMaterialSettings returns snow on high flats, rock on steep slopes
// and grass on the remaining mid heights.
func DefaultMaterialSettings() MaterialSettings {
	snow := DefaultMaterialRule()
	snow.Material, snow.Height, snow.Slope = 3, [2]float32{0.72, 1}, [2]float32{0, 40}

	rock := DefaultMaterialRule()
	rock.Material, rock.Slope = 2, [2]float32{35, 90}

	grass := DefaultMaterialRule()
	grass.Material, grass.Height, grass.Slope = 1, [2]float32{0.08, 0.72}, [2]float32{0, 35}

	return MaterialSettings{Rules: []MaterialRule{snow, rock, grass}}
}

// Config is everything needed to construct a Pipeline.
type Config struct {
	Resolution int
	Height     HeightSettings
	Normal     NormalSettings
	Shadow     ShadowSettings
	Material   MaterialSettings
	// Procedures defaults to DefaultProcedures when nil.
	Procedures []*Procedure
	// Light points towards the sun.
	Light mgl32.Vec3
}

// DefaultConfig returns a complete default configuration.
func DefaultConfig() Config {
	return Config{
		Resolution: DefaultResolution,
		Height:     DefaultHeightSettings(),
		Normal:     DefaultNormalSettings(),
		Shadow:     DefaultShadowSettings(),
		Material:   DefaultMaterialSettings(),
		Light:      mgl32.Vec3{-0.5, 0.6, -0.4}.Normalize(),
	}
}

// DefaultProcedures returns the procedure list used when none is given:
// fractal noise shaped by an island falloff.
func DefaultProcedures() []*Procedure {
	fbm, _ := NewProcedure("fbm")
	falloff, _ := NewProcedure("falloff")
	return []*Procedure{fbm, falloff}
}
