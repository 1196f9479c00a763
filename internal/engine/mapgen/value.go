package mapgen

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Value is a procedure parameter. The implementations form a closed set:
// IntValue, FloatValue, Vec3Value and EnumValue. Every switch over Value
// in this package handles all four.
type Value interface {
	isValue()
}

// IntValue is an integer with an inclusive range.
type IntValue struct {
	V, Min, Max int
}

// FloatValue is a float with an inclusive range.
type FloatValue struct {
	V, Min, Max float32
}

// Vec3Value is an unbounded vector.
type Vec3Value struct {
	V mgl32.Vec3
}

// EnumValue selects one of a fixed list of options.
type EnumValue struct {
	Index   int
	Options []string
}

func (IntValue) isValue()   {}
func (FloatValue) isValue() {}
func (Vec3Value) isValue()  {}
func (EnumValue) isValue()  {}

// Selected returns the name of the selected option.
func (e EnumValue) Selected() string {
	if e.Index < 0 || e.Index >= len(e.Options) {
		return ""
	}
	return e.Options[e.Index]
}

// Param is a named procedure parameter.
type Param struct {
	Name  string
	Value Value
}

// Uniform returns the kernel name and value the parameter is uploaded as.
func (p Param) Uniform() (string, gpu.Uniform) {
	name := "u_" + p.Name
	switch v := p.Value.(type) {
	case IntValue:
		return name, gpu.Int(v.V)
	case FloatValue:
		return name, gpu.Float(v.V)
	case Vec3Value:
		return name, gpu.Vec3(v.V)
	case EnumValue:
		return name, gpu.Int(v.Index)
	}
	return name, gpu.Int(0)
}

// Describe renders the parameter for an editor property list.
func (p Param) Describe() string {
	switch v := p.Value.(type) {
	case IntValue:
		return fmt.Sprintf("%s: %d [%d..%d]", p.Name, v.V, v.Min, v.Max)
	case FloatValue:
		return fmt.Sprintf("%s: %.3f [%g..%g]", p.Name, v.V, v.Min, v.Max)
	case Vec3Value:
		return fmt.Sprintf("%s: (%.3f, %.3f, %.3f)", p.Name, v.V[0], v.V[1], v.V[2])
	case EnumValue:
		return fmt.Sprintf("%s: %s %v", p.Name, v.Selected(), v.Options)
	}
	return p.Name + ": ?"
}

// clampValue keeps next within the range declared by def and reports whether
// the kinds match.
func clampValue(def, next Value) (Value, bool) {
	switch d := def.(type) {
	case IntValue:
		n, ok := next.(IntValue)
		if !ok {
			return def, false
		}
		d.V = clampInt(n.V, d.Min, d.Max)
		return d, true
	case FloatValue:
		n, ok := next.(FloatValue)
		if !ok {
			return def, false
		}
		d.V = clampFloat(n.V, d.Min, d.Max)
		return d, true
	case Vec3Value:
		n, ok := next.(Vec3Value)
		if !ok {
			return def, false
		}
		return n, true
	case EnumValue:
		n, ok := next.(EnumValue)
		if !ok {
			return def, false
		}
		d.Index = clampInt(n.Index, 0, len(d.Options)-1)
		return d, true
	}
	return def, false
}

// encodeValue returns the YAML node for a value. Enums are stored by name.
func encodeValue(v Value) *yaml.Node {
	switch x := v.(type) {
	case IntValue:
		return scalar("", strconv.Itoa(x.V))
	case FloatValue:
		return scalar("", strconv.FormatFloat(float64(x.V), 'g', -1, 32))
	case Vec3Value:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, c := range x.V {
			seq.Content = append(seq.Content, scalar("", strconv.FormatFloat(float64(c), 'g', -1, 32)))
		}
		return seq
	case EnumValue:
		return scalar("!!str", x.Selected())
	}
	return scalar("!!null", "")
}

// decodeValue parses n using def for the kind, range and options.
func decodeValue(def Value, n *yaml.Node) (Value, error) {
	switch d := def.(type) {
	case IntValue:
		var i int
		if err := n.Decode(&i); err != nil {
			return def, err
		}
		d.V = clampInt(i, d.Min, d.Max)
		return d, nil
	case FloatValue:
		var f float32
		if err := n.Decode(&f); err != nil {
			return def, err
		}
		d.V = clampFloat(f, d.Min, d.Max)
		return d, nil
	case Vec3Value:
		var v []float32
		if err := n.Decode(&v); err != nil {
			return def, err
		}
		if len(v) != 3 {
			return def, fmt.Errorf("line %d: want 3 components, got %d", n.Line, len(v))
		}
		return Vec3Value{V: mgl32.Vec3{v[0], v[1], v[2]}}, nil
	case EnumValue:
		var s string
		if err := n.Decode(&s); err != nil {
			return def, err
		}
		for i, o := range d.Options {
			if o == s {
				d.Index = i
				return d, nil
			}
		}
		return def, fmt.Errorf("line %d: unknown option %q, want one of %v", n.Line, s, d.Options)
	}
	return def, fmt.Errorf("unsupported value %T", def)
}

// scalar builds a scalar node; an empty tag leaves the type to YAML's
// implicit resolution.
func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
