package clipmap

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Kind distinguishes ring tiles from seam fills.
type Kind uint8

const (
	KindGrid Kind = iota
	KindFill
)

func (k Kind) String() string {
	if k == KindFill {
		return "fill"
	}
	return "grid"
}

// Orientation is the long axis of a fill tile.
type Orientation uint8

const (
	Horizontal Orientation = iota // along X
	Vertical                      // along Z
)

// IndexRange is a contiguous run of a tile's index buffer.
type IndexRange struct {
	First, Count int
}

// Tile is one mesh patch. Topology and placement never change after Build;
// the displacement kernel rewrites the y and w components of each vertex.
type Tile struct {
	Kind        Kind
	Orientation Orientation
	Level       int

	// Offset is the level-local position of the tile's minimum corner.
	Offset      mgl32.Vec2
	// Width and Rows are the vertex counts along X and Z.
	Width, Rows int
	Spacing     float32

	Vertices     gpu.Buffer
	Indices      gpu.Buffer
	VertexCount  int
	ElementCount int

	// Ranges holds one index range per trim variant. Grids and level 0
	// fills have a single range over the whole buffer; ring fills have four,
	// one for each side the finer level can lean towards.
	Ranges []IndexRange

	// Bounds is level-local with normalized height in [0, 1]. Fills carry
	// bounds too but are never culled.
	Bounds math.AABB
}

// Range returns the index range drawn for a trim variant.
func (t *Tile) Range(variant int) IndexRange {
	if variant < 0 || variant >= len(t.Ranges) {
		variant = 0
	}
	if len(t.Ranges) == 0 {
		return IndexRange{Count: t.ElementCount}
	}
	return t.Ranges[variant]
}

// lattice is a rectangular set of level vertices addressed by integer
// coordinates in units of spacing. Rows or columns need not be contiguous;
// quads only join neighbours one unit apart.
type lattice struct {
	xs, zs  []int
	spacing float32
}

func span(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		out = append(out, k)
	}
	return out
}

func (l lattice) origin() mgl32.Vec2 {
	return mgl32.Vec2{float32(l.xs[0]) * l.spacing, float32(l.zs[0]) * l.spacing}
}

func (l lattice) size() mgl32.Vec2 {
	return mgl32.Vec2{
		float32(l.xs[len(l.xs)-1]-l.xs[0]) * l.spacing,
		float32(l.zs[len(l.zs)-1]-l.zs[0]) * l.spacing,
	}
}

// vertices returns level-local positions in row-major order.
func (l lattice) vertices() []mgl32.Vec4 {
	verts := make([]mgl32.Vec4, 0, len(l.xs)*len(l.zs))
	for _, z := range l.zs {
		for _, x := range l.xs {
			verts = append(verts, mgl32.Vec4{float32(x) * l.spacing, 0, float32(z) * l.spacing, 0})
		}
	}
	return verts
}

// indices returns triangle-list indices wound counter-clockwise seen from
// +Y for every unit quad whose minimum corner passes keep. A nil keep keeps
// all quads.
func (l lattice) indices(keep func(x, z int) bool) []uint32 {
	w := len(l.xs)
	var out []uint32
	for r := 0; r+1 < len(l.zs); r++ {
		if l.zs[r+1]-l.zs[r] != 1 {
			continue
		}
		for c := 0; c+1 < w; c++ {
			if l.xs[c+1]-l.xs[c] != 1 {
				continue
			}
			if keep != nil && !keep(l.xs[c], l.zs[r]) {
				continue
			}
			a := uint32(r*w + c)
			b := a + 1
			d := a + uint32(w)
			e := d + 1
			out = append(out, a, d, b, b, d, e)
		}
	}
	return out
}
