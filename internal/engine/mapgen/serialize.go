package mapgen

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/scenefile"
)

// Serializers returns the scene hooks of every stage.
func (p *Pipeline) Serializers() []scenefile.Serializer {
	return []scenefile.Serializer{p.height, p.normal, p.shadow, p.material}
}

func present(n *yaml.Node) bool {
	return n != nil && n.Kind != 0
}

type procedureDoc struct {
	Template string               `yaml:"template"`
	ID       string               `yaml:"id,omitempty"`
	Enabled  bool                 `yaml:"enabled"`
	Blend    string               `yaml:"blend,omitempty"`
	Weight   float32              `yaml:"weight"`
	Params   map[string]yaml.Node `yaml:"params,omitempty"`
}

type heightDoc struct {
	Settings   HeightSettings `yaml:"settings"`
	Procedures *[]yaml.Node   `yaml:"procedures"`
}

// Token implements scenefile.Serializer.
func (s *HeightStage) Token() string { return StageHeight }

// Serialize writes the height settings and procedure list.
func (s *HeightStage) Serialize(n *yaml.Node) error {
	procs := make([]yaml.Node, 0, len(s.procedures))
	for _, proc := range s.procedures {
		params := &yaml.Node{Kind: yaml.MappingNode}
		for _, prm := range proc.Params {
			params.Content = append(params.Content, scalar("", prm.Name), encodeValue(prm.Value))
		}
		doc := struct {
			Template string     `yaml:"template"`
			ID       string     `yaml:"id"`
			Enabled  bool       `yaml:"enabled"`
			Blend    string     `yaml:"blend"`
			Weight   float32    `yaml:"weight"`
			Params   *yaml.Node `yaml:"params"`
		}{proc.Template, proc.ID.String(), proc.Enabled, proc.Blend.String(), proc.Weight, params}

		var node yaml.Node
		if err := node.Encode(doc); err != nil {
			return fmt.Errorf("procedure %s: %w", proc.ID, err)
		}
		procs = append(procs, node)
	}
	return n.Encode(heightDoc{Settings: s.settings, Procedures: &procs})
}

// Deserialize replaces the height state. Missing keys take their defaults;
// procedures naming an unknown template are skipped.
func (s *HeightStage) Deserialize(n *yaml.Node) error {
	doc := heightDoc{Settings: DefaultHeightSettings()}
	if present(n) {
		if err := n.Decode(&doc); err != nil {
			return err
		}
	}

	var procs []*Procedure
	if doc.Procedures == nil {
		procs = DefaultProcedures()
	} else {
		procs = make([]*Procedure, 0, len(*doc.Procedures))
		for i := range *doc.Procedures {
			proc, err := s.decodeProcedure(&(*doc.Procedures)[i])
			if err != nil {
				return err
			}
			if proc != nil {
				procs = append(procs, proc)
			}
		}
	}

	s.settings = doc.Settings
	s.procedures = procs
	s.p.invalidate(FlagHeight)
	return nil
}

func (s *HeightStage) decodeProcedure(n *yaml.Node) (*Procedure, error) {
	log := s.p.log
	doc := procedureDoc{Enabled: true, Weight: 1}
	if err := n.Decode(&doc); err != nil {
		return nil, err
	}
	proc, err := NewProcedure(doc.Template)
	if err != nil {
		log.Debug("skipping procedure", zap.Int("line", n.Line), zap.Error(err))
		return nil, nil
	}
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("line %d: procedure id: %w", n.Line, err)
		}
		proc.ID = id
	}
	proc.Enabled = doc.Enabled
	proc.Weight = doc.Weight
	if doc.Blend != "" {
		mode, err := ParseBlendMode(doc.Blend)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		proc.Blend = mode
	}
	for i, prm := range proc.Params {
		pn, ok := doc.Params[prm.Name]
		if !ok {
			continue
		}
		v, err := decodeValue(prm.Value, &pn)
		if err != nil {
			log.Warn("procedure parameter reset to default",
				zap.String("template", proc.Template),
				zap.String("param", prm.Name),
				zap.Error(err))
			continue
		}
		proc.Params[i].Value = v
	}
	for name := range doc.Params {
		if _, ok := proc.Param(name); !ok {
			log.Debug("ignoring unknown parameter",
				zap.String("template", proc.Template), zap.String("param", name))
		}
	}
	return proc, nil
}

// Token implements scenefile.Serializer.
func (s *NormalStage) Token() string { return StageNormal }

// Serialize writes the ambient occlusion settings.
func (s *NormalStage) Serialize(n *yaml.Node) error { return n.Encode(s.settings) }

// Deserialize replaces the ambient occlusion settings.
func (s *NormalStage) Deserialize(n *yaml.Node) error {
	ns := DefaultNormalSettings()
	if present(n) {
		if err := n.Decode(&ns); err != nil {
			return err
		}
	}
	s.SetSettings(ns)
	return nil
}

// Token implements scenefile.Serializer.
func (s *ShadowStage) Token() string { return StageShadow }

// Serialize writes the shadow settings.
func (s *ShadowStage) Serialize(n *yaml.Node) error { return n.Encode(s.settings) }

// Deserialize replaces the shadow settings.
func (s *ShadowStage) Deserialize(n *yaml.Node) error {
	ss := DefaultShadowSettings()
	if present(n) {
		if err := n.Decode(&ss); err != nil {
			return err
		}
	}
	s.SetSettings(ss)
	return nil
}

// Token implements scenefile.Serializer.
func (s *MaterialStage) Token() string { return StageMaterial }

// Serialize writes the material rule list.
func (s *MaterialStage) Serialize(n *yaml.Node) error { return n.Encode(s.settings) }

// Deserialize replaces the material rules. Fields missing from a rule take
// the values of DefaultMaterialRule.
func (s *MaterialStage) Deserialize(n *yaml.Node) error {
	var doc struct {
		Rules *[]yaml.Node `yaml:"rules"`
	}
	if present(n) {
		if err := n.Decode(&doc); err != nil {
			return err
		}
	}
	if doc.Rules == nil {
		s.SetSettings(DefaultMaterialSettings())
		return nil
	}
	rules := make([]MaterialRule, 0, len(*doc.Rules))
	for i := range *doc.Rules {
		r := DefaultMaterialRule()
		if err := (*doc.Rules)[i].Decode(&r); err != nil {
			return err
		}
		rules = append(rules, r)
	}
	s.SetSettings(MaterialSettings{Rules: rules})
	return nil
}
