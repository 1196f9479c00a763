// Package mapgen generates the terrain's height, normal, shadow and material
// maps from a list of procedures and keeps them consistent. Edits raise
// dirty flags; once per frame the pipeline runs the flagged stages in
// dependency order and clears their flags.
package mapgen

import "strings"

// Flags is a set of pending work items.
type Flags uint8

const (
	FlagHeight Flags = 1 << iota
	FlagNormal
	FlagShadow
	FlagMaterial
	// FlagGeometry asks the clipmap for a full displacement dispatch. The
	// pipeline raises it; the terrain system clears it.
	FlagGeometry

	// inputLight is a graph source for light direction changes, never set
	// as pending work.
	inputLight Flags = 1 << 7
)

// Has reports whether every flag in o is set.
func (f Flags) Has(o Flags) bool {
	return o != 0 && f&o == o
}

// Any reports whether any flag in o is set.
func (f Flags) Any(o Flags) bool {
	return f&o != 0
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		bit  Flags
		name string
	}{
		{FlagHeight, "height"},
		{FlagNormal, "normal"},
		{FlagShadow, "shadow"},
		{FlagMaterial, "material"},
		{FlagGeometry, "geometry"},
		{inputLight, "light"},
	} {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
