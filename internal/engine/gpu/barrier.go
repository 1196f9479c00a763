package gpu

import "strings"

// Barrier selects which kinds of memory access must observe writes issued
// before the barrier.
type Barrier uint8

const (
	BarrierStorage Barrier = 1 << iota
	BarrierImage
	BarrierTextureFetch
	BarrierVertexAttrib

	BarrierAll = BarrierStorage | BarrierImage | BarrierTextureFetch | BarrierVertexAttrib
)

// Has reports whether every bit of o is set in b.
func (b Barrier) Has(o Barrier) bool {
	return o != 0 && b&o == o
}

// Buffers reports whether the barrier makes buffer writes visible.
func (b Barrier) Buffers() bool {
	return b&(BarrierStorage|BarrierVertexAttrib) != 0
}

// Textures reports whether the barrier makes texture writes visible.
func (b Barrier) Textures() bool {
	return b&(BarrierImage|BarrierTextureFetch) != 0
}

func (b Barrier) String() string {
	if b == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  Barrier
		name string
	}{
		{BarrierStorage, "storage"},
		{BarrierImage, "image"},
		{BarrierTextureFetch, "texture-fetch"},
		{BarrierVertexAttrib, "vertex-attrib"},
	}
	for _, n := range names {
		if b&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
