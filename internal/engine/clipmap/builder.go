package clipmap

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Build allocates every tile of the clipmap through dev. Disabled settings
// (no subdivisions or no levels) produce an empty clipmap without error.
// The only errors are buffer allocation failures; buffers allocated before
// the failure are released.
func Build(dev gpu.Device, s Settings) (*Clipmap, error) {
	log := logger.Named("clipmap")
	cm := &Clipmap{settings: s}
	if !s.Enabled() {
		log.Warn("terrain disabled",
			zap.Int("subdivisions", s.Subdivisions),
			zap.Int("levels", s.Levels),
			zap.Float32("base_side_length", s.BaseSideLength))
		return cm, nil
	}

	b := builder{dev: dev, s: s}
	for l := 0; l < s.Levels; l++ {
		level, err := b.level(l)
		if level != nil {
			cm.levels = append(cm.levels, level)
		}
		if err != nil {
			cm.Release()
			return nil, fmt.Errorf("building clipmap level %d: %w", l, err)
		}
	}

	log.Info("clipmap built",
		zap.Int("levels", cm.LevelCount()),
		zap.Int("grids", cm.GridCount()),
		zap.Int("fills", cm.FillCount()),
		zap.Int("vertices", cm.VertexCount()))
	return cm, nil
}

type builder struct {
	dev gpu.Device
	s   Settings
}

// Coordinates below are in units of the level's vertex spacing. With m
// quads per ring tile every level spans [-2m, 2m+2] on both axes.
//
// Level 0 is a 2x2 core of tiles with 2m quads each, split by a two-quad
// cross owned by its fills. A ring splits each axis into
//
//	[-2m,-m] gap [-m+1,1] [1,m+1] gap [m+2,2m+2]
//
// and skips the inner 2x2. The finer level covers [-m+a, m+1+a] where a is
// its shift from InnerShift, so it always fills one gap per axis and the
// ring's fills draw the other.

// level returns the tiles built so far alongside any error so Build can
// release them.
func (b *builder) level(l int) (*Level, error) {
	level := &Level{Index: l}
	m := b.s.quads()
	g := b.s.Spacing(l)

	var starts []int
	size := m
	if l == 0 {
		starts, size = []int{-2 * m, 2}, 2*m
	} else {
		starts = []int{-2 * m, -m + 1, 1, m + 2}
	}
	for j, z := range starts {
		for i, x := range starts {
			if l > 0 && (i == 1 || i == 2) && (j == 1 || j == 2) {
				continue
			}
			t, err := b.grid(l, lattice{xs: span(x, x+size), zs: span(z, z+size), spacing: g})
			if err != nil {
				return level, err
			}
			level.Grids = append(level.Grids, t)
		}
	}

	for _, o := range []Orientation{Horizontal, Vertical} {
		t, err := b.fill(l, o)
		if err != nil {
			return level, err
		}
		level.Fills = append(level.Fills, t)
	}
	return level, nil
}

func (b *builder) grid(l int, lat lattice) (*Tile, error) {
	origin, size := lat.origin(), lat.size()
	t := &Tile{
		Kind:    KindGrid,
		Level:   l,
		Offset:  origin,
		Width:   len(lat.xs),
		Rows:    len(lat.zs),
		Spacing: lat.spacing,
		Bounds: math.AABBFromMinMax(
			mgl32.Vec3{origin[0], 0, origin[1]},
			mgl32.Vec3{origin[0] + size[0], 1, origin[1] + size[1]},
		),
	}
	indices := lat.indices(nil)
	t.Ranges = []IndexRange{{Count: len(indices)}}
	return t, b.upload(t, lat.vertices(), indices)
}

// fill builds the strips between the grids of a level. The horizontal fill
// owns the gap rows across the whole footprint; the vertical fill owns the
// gap columns between them. Ring fills carry one index range per inner
// shift, leaving out the quads the finer level covers.
func (b *builder) fill(l int, o Orientation) (*Tile, error) {
	m := b.s.quads()
	full := span(-2*m, 2*m+2)

	var strip []int
	var own func(x, z int) bool
	if l == 0 {
		strip = []int{0, 1, 2}
		if o == Vertical {
			own = func(_, z int) bool { return z < 0 || z >= 2 }
		}
	} else {
		strip = []int{-m, -m + 1, m + 1, m + 2}
		if o == Vertical {
			own = func(_, z int) bool { return z != -m && z != m+1 }
		}
	}

	lat := lattice{xs: full, zs: strip, spacing: b.s.Spacing(l)}
	if o == Vertical {
		lat.xs, lat.zs = strip, full
	}

	var indices []uint32
	var ranges []IndexRange
	if l == 0 {
		indices = lat.indices(own)
		ranges = []IndexRange{{Count: len(indices)}}
	} else {
		for v := 0; v < 4; v++ {
			ax, az := v&1, v>>1
			part := lat.indices(func(x, z int) bool {
				if own != nil && !own(x, z) {
					return false
				}
				return !(x >= -m+ax && x <= m+ax && z >= -m+az && z <= m+az)
			})
			ranges = append(ranges, IndexRange{First: len(indices), Count: len(part)})
			indices = append(indices, part...)
		}
	}

	origin, size := lat.origin(), lat.size()
	t := &Tile{
		Kind:        KindFill,
		Orientation: o,
		Level:       l,
		Offset:      origin,
		Width:       len(lat.xs),
		Rows:        len(lat.zs),
		Spacing:     lat.spacing,
		Ranges:      ranges,
		Bounds: math.AABBFromMinMax(
			mgl32.Vec3{origin[0], 0, origin[1]},
			mgl32.Vec3{origin[0] + size[0], 1, origin[1] + size[1]},
		),
	}
	return t, b.upload(t, lat.vertices(), indices)
}

func (b *builder) upload(t *Tile, verts []mgl32.Vec4, indices []uint32) error {
	vb, err := b.dev.NewVertexBuffer(verts)
	if err != nil {
		return fmt.Errorf("%s tile vertices: %w", t.Kind, err)
	}
	ib, err := b.dev.NewIndexBuffer(indices)
	if err != nil {
		vb.Release()
		return fmt.Errorf("%s tile indices: %w", t.Kind, err)
	}

	t.Vertices = vb
	t.Indices = ib
	t.VertexCount = len(verts)
	t.ElementCount = len(indices)
	return nil
}
