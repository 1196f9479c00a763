package terrain

import (
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
)

type clipmapSerializer struct {
	s *System
}

func (clipmapSerializer) Token() string { return "clipmap" }

func (c clipmapSerializer) Serialize(n *yaml.Node) error {
	return n.Encode(c.s.cm.Settings())
}

func (c clipmapSerializer) Deserialize(n *yaml.Node) error {
	cs := clipmap.DefaultSettings()
	if n != nil && n.Kind != 0 {
		if err := n.Decode(&cs); err != nil {
			return err
		}
	}
	return c.s.SetClipmapSettings(cs)
}
