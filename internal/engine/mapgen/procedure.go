package mapgen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ErrUnknownProcedure is returned when a template name is not registered.
var ErrUnknownProcedure = errors.New("mapgen: unknown procedure")

// BlendMode combines a procedure's output with the height accumulated so far.
type BlendMode uint8

const (
	BlendAdd BlendMode = iota
	BlendMultiply
	BlendMax
	BlendMin
	BlendReplace
)

var blendNames = []string{"add", "multiply", "max", "min", "replace"}

func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return fmt.Sprintf("blend(%d)", b)
}

// ParseBlendMode resolves a blend mode by name.
func ParseBlendMode(s string) (BlendMode, error) {
	for i, n := range blendNames {
		if n == s {
			return BlendMode(i), nil
		}
	}
	return BlendAdd, fmt.Errorf("unknown blend mode %q", s)
}

// Template describes a procedure kind: the kernel it runs and its parameters
// with default values.
type Template struct {
	Name   string
	Kernel string
	Blend  BlendMode
	Params []Param
}

var templates = map[string]Template{}

func registerTemplate(t Template) {
	if _, dup := templates[t.Name]; dup {
		panic("mapgen: duplicate template " + t.Name)
	}
	templates[t.Name] = t
}

// LookupTemplate returns the template registered under name.
func LookupTemplate(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// TemplateNames returns the sorted names of every template.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Procedure is one configured instance of a template in the height list.
type Procedure struct {
	ID       uuid.UUID
	Template string
	Enabled  bool
	Blend    BlendMode
	Weight   float32
	Params   []Param
}

// NewProcedure instantiates a template with its default parameters.
func NewProcedure(template string) (*Procedure, error) {
	t, ok := LookupTemplate(template)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcedure, template)
	}
	params := make([]Param, len(t.Params))
	copy(params, t.Params)
	return &Procedure{
		ID:       uuid.New(),
		Template: template,
		Enabled:  true,
		Blend:    t.Blend,
		Weight:   1,
		Params:   params,
	}, nil
}

// Param returns the parameter with the given name.
func (p *Procedure) Param(name string) (Value, bool) {
	for _, prm := range p.Params {
		if prm.Name == name {
			return prm.Value, true
		}
	}
	return nil, false
}

// Set replaces a parameter value, clamped to the template's range.
func (p *Procedure) Set(name string, v Value) error {
	for i, prm := range p.Params {
		if prm.Name != name {
			continue
		}
		next, ok := clampValue(prm.Value, v)
		if !ok {
			return fmt.Errorf("parameter %q of %s: cannot assign %T to %T", name, p.Template, v, prm.Value)
		}
		p.Params[i].Value = next
		return nil
	}
	return fmt.Errorf("%s has no parameter %q", p.Template, name)
}

// Describe lists the instance settings for an editor.
func (p *Procedure) Describe() []string {
	out := []string{
		fmt.Sprintf("%s (%s)", p.Template, p.ID),
		fmt.Sprintf("blend: %s x %.2f", p.Blend, p.Weight),
	}
	for _, prm := range p.Params {
		out = append(out, prm.Describe())
	}
	return out
}

func init() {
	noise := func(octaves int) []Param {
		return []Param{
			{"seed", IntValue{V: 0, Min: 0, Max: 1 << 20}},
			{"octaves", IntValue{V: octaves, Min: 1, Max: 12}},
			{"frequency", FloatValue{V: 4, Min: 0.01, Max: 256}},
			{"persistence", FloatValue{V: 0.5, Min: 0, Max: 1}},
			{"lacunarity", FloatValue{V: 2, Min: 1, Max: 4}},
			{"offset", Vec3Value{V: mgl32.Vec3{}}},
		}
	}

	registerTemplate(Template{Name: "fbm", Kernel: "proc_fbm", Blend: BlendAdd, Params: noise(6)})
	registerTemplate(Template{
		Name:   "ridged",
		Kernel: "proc_ridged",
		Blend:  BlendMax,
		Params: append(noise(5), Param{"sharpness", FloatValue{V: 2, Min: 1, Max: 8}}),
	})
	registerTemplate(Template{Name: "simplex", Kernel: "proc_simplex", Blend: BlendAdd, Params: noise(4)})
	registerTemplate(Template{
		Name:   "terrace",
		Kernel: "proc_terrace",
		Blend:  BlendReplace,
		Params: []Param{
			{"steps", IntValue{V: 8, Min: 1, Max: 64}},
			{"sharpness", FloatValue{V: 0.5, Min: 0, Max: 1}},
		},
	})
	registerTemplate(Template{
		Name:   "falloff",
		Kernel: "proc_falloff",
		Blend:  BlendMultiply,
		Params: []Param{
			{"shape", EnumValue{Index: 0, Options: []string{"circle", "square"}}},
			{"radius", FloatValue{V: 0.45, Min: 0, Max: 1}},
			{"edge", FloatValue{V: 0.2, Min: 0.001, Max: 1}},
		},
	})
}
