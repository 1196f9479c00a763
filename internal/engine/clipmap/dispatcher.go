package clipmap

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// HeightSource is the read side of the generated height map.
type HeightSource interface {
	BindAsSampler(slot int)
	ScaleXZ() float32
	Resolution() int
}

// Dispatcher rewrites tile heights and error metrics by sampling a height
// source at each vertex's world position. Vertices on the outer edge of a
// level take the heights of the coarser level around it, so neighbouring
// rings share their seam exactly.
type Dispatcher struct {
	dev    gpu.Device
	kernel gpu.Kernel
	log    *zap.Logger
}

// NewDispatcher resolves the displacement kernel. An invalid kernel is
// logged once; its dispatches are skipped.
func NewDispatcher(dev gpu.Device) *Dispatcher {
	d := &Dispatcher{
		dev:    dev,
		kernel: dev.Kernel(DisplaceKernel),
		log:    logger.Named("clipmap"),
	}
	if !d.kernel.Valid() {
		d.log.Error("displacement kernel unavailable, terrain will stay flat", zap.String("kernel", DisplaceKernel))
	}
	return d
}

// Full displaces every tile for the given viewer position and returns the
// number of tiles dispatched.
func (d *Dispatcher) Full(cm *Clipmap, src HeightSource, viewer mgl32.Vec2) int {
	n := 0
	for _, l := range cm.levels {
		n += d.level(cm, l, src, viewer)
	}
	return n
}

// Conditional displaces only the levels whose quantized viewer position
// changed between prev and curr, finest first. Untouched levels are not
// bound at all.
func (d *Dispatcher) Conditional(cm *Clipmap, src HeightSource, curr, prev mgl32.Vec2) int {
	n := 0
	for _, l := range cm.levels {
		if !cm.LevelShouldUpdate(l.Index, curr, prev) {
			continue
		}
		n += d.level(cm, l, src, curr)
	}
	return n
}

func (d *Dispatcher) level(cm *Clipmap, l *Level, src HeightSource, viewer mgl32.Vec2) int {
	if !d.kernel.Valid() {
		return 0
	}
	s := cm.settings

	lo, hi := s.Extent(l.Index)
	// Every level but the outermost meets a coarser one at its outer edge.
	pin := l.Index+1 < len(cm.levels)

	d.kernel.Bind()
	src.BindAsSampler(0)
	d.kernel.SetUniform("u_Offset", gpu.Vec2(s.Quantize(viewer, l.Index)))
	d.kernel.SetUniform("u_ScaleXZ", gpu.Float(src.ScaleXZ()))
	d.kernel.SetUniform("u_Spacing", gpu.Float(s.Spacing(l.Index)))
	d.kernel.SetUniform("u_Lod", gpu.Float(sampleLod(s.Spacing(l.Index), src)))
	d.kernel.SetUniform("u_EdgeLod", gpu.Float(sampleLod(s.Spacing(l.Index+1), src)))
	d.kernel.SetUniform("u_Lo", gpu.Float(lo))
	d.kernel.SetUniform("u_Hi", gpu.Float(hi))
	d.kernel.SetUniform("u_Pin", gpu.Bool(pin))

	tiles := l.Tiles()
	for _, t := range tiles {
		d.tile(t)
	}
	return len(tiles)
}

func (d *Dispatcher) tile(t *Tile) {
	t.Vertices.BindAsStorage(0)
	d.kernel.SetUniform("u_Width", gpu.Int(t.Width))
	d.kernel.SetUniform("u_Rows", gpu.Int(t.Rows))
	d.kernel.Dispatch(gpu.Groups(t.Width), gpu.Groups(t.Rows), 1)
	d.dev.MemoryBarrier(gpu.BarrierStorage | gpu.BarrierVertexAttrib)
}

// sampleLod picks the height mip whose texel size matches the vertex
// spacing, so coarse rings read prefiltered heights.
func sampleLod(spacing float32, src HeightSource) float32 {
	res := src.Resolution()
	scale := src.ScaleXZ()
	if res <= 0 || scale <= 0 {
		return 0
	}
	texel := scale / float32(res)
	ratio := spacing / texel
	if ratio <= 1 {
		return 0
	}
	return math.Clamp(math32.Log2(ratio), 0, float32(math.Log2(res)))
}
