// Package scenefile stores editable terrain state as one YAML document. Each
// sub-system owns a top-level key (its token) and reads and writes the node
// under it.
package scenefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// ErrDuplicateToken is returned when two serializers claim the same key.
var ErrDuplicateToken = errors.New("scenefile: duplicate token")

// Serializer reads and writes one sub-system's settings. Deserialize receives
// nil when the document has no entry for the token and must then restore
// defaults.
type Serializer interface {
	Token() string
	Serialize(n *yaml.Node) error
	Deserialize(n *yaml.Node) error
}

// Document is a parsed scene: one node per token, in file order.
type Document struct {
	order []string
	nodes map[string]*yaml.Node
}

// New returns an empty document.
func New() *Document {
	return &Document{nodes: make(map[string]*yaml.Node)}
}

// Parse reads a scene document. An empty input is an empty document.
func Parse(data []byte) (*Document, error) {
	d := New()
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return d, nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing scene: line %d: top level must be a mapping", m.Line)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		d.set(m.Content[i].Value, m.Content[i+1])
	}
	return d, nil
}

// Load reads and parses the scene at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Capture serializes every sub-system into a new document.
func Capture(ss ...Serializer) (*Document, error) {
	d := New()
	for _, s := range ss {
		if _, dup := d.nodes[s.Token()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateToken, s.Token())
		}
		n := &yaml.Node{}
		if err := s.Serialize(n); err != nil {
			return nil, fmt.Errorf("serializing %s: %w", s.Token(), err)
		}
		d.set(s.Token(), n)
	}
	return d, nil
}

// Apply hands each serializer its node. Tokens no serializer claims are
// kept in the document and logged.
func (d *Document) Apply(ss ...Serializer) error {
	log := logger.Named("scenefile")
	claimed := make(map[string]bool, len(ss))
	for _, s := range ss {
		tok := s.Token()
		if claimed[tok] {
			return fmt.Errorf("%w: %q", ErrDuplicateToken, tok)
		}
		claimed[tok] = true
		if err := s.Deserialize(d.nodes[tok]); err != nil {
			return fmt.Errorf("deserializing %s: %w", tok, err)
		}
	}
	for _, tok := range d.order {
		if !claimed[tok] {
			log.Debug("scene entry without serializer", zap.String("token", tok))
		}
	}
	return nil
}

// Tokens returns the document keys in order.
func (d *Document) Tokens() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Node returns the node stored under tok, or nil.
func (d *Document) Node(tok string) *yaml.Node { return d.nodes[tok] }

// Marshal renders the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, tok := range d.order {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: tok},
			d.nodes[tok])
	}
	return yaml.Marshal(root)
}

// Save writes the document to path, creating its directory.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating scene directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scene: %w", err)
	}
	return nil
}

func (d *Document) set(tok string, n *yaml.Node) {
	if _, ok := d.nodes[tok]; !ok {
		d.order = append(d.order, tok)
	}
	d.nodes[tok] = n
}
