package mapgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ErrNotPowerOfTwo is reported when mip chains are requested for a map whose
// resolution is not a power of two.
var ErrNotPowerOfTwo = errors.New("mapgen: resolution is not a power of two")

// Stage names double as arena writer identities.
const (
	StageHeight   = "height"
	StageNormal   = "normal"
	StageShadow   = "shadow"
	StageMaterial = "material"
)

// Textures are the arena handles of the generated maps.
type Textures struct {
	Height    gpu.Handle // normalized height with an average mip chain
	HeightMax gpu.Handle // max mip chain, zero when mips are unavailable
	Normal    gpu.Handle // xyz normal, w ambient occlusion
	Shadow    gpu.Handle // 1 lit, 0 shadowed
	Material  gpu.Handle // material index
}

// Pipeline owns the generated maps and the flags saying which are stale.
// All methods must be called from the thread issuing GPU work.
type Pipeline struct {
	dev   gpu.Device
	arena *gpu.Arena
	log   *zap.Logger

	resolution int
	mips       bool
	flags      Flags
	order      []Flags
	light      mgl32.Vec3
	tex        Textures

	height   *HeightStage
	normal   *NormalStage
	shadow   *ShadowStage
	material *MaterialStage
}

// New allocates the map textures and schedules a complete generation for
// the first Update. A resolution that is not a power of two is accepted with
// mips and shadow tracing disabled.
func New(dev gpu.Device, cfg Config) (*Pipeline, error) {
	order, err := stageGraph.order()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		dev:        dev,
		arena:      gpu.NewArena(dev),
		log:        logger.Named("mapgen"),
		resolution: cfg.Resolution,
		order:      order,
		light:      cfg.Light,
	}
	if p.resolution <= 0 {
		p.log.Warn("invalid map resolution, using default",
			zap.Int("resolution", p.resolution), zap.Int("default", DefaultResolution))
		p.resolution = DefaultResolution
	}
	p.mips = math.IsPowerOfTwo(p.resolution)
	if !p.mips {
		p.log.Warn("map resolution is not a power of two: mip chains and shadow tracing disabled",
			zap.Int("resolution", p.resolution))
	}

	procs := cfg.Procedures
	if procs == nil {
		procs = DefaultProcedures()
	}
	p.height = &HeightStage{p: p, settings: cfg.Height, procedures: procs}
	p.normal = &NormalStage{p: p, settings: cfg.Normal}
	p.shadow = &ShadowStage{p: p, settings: cfg.Shadow}
	p.material = &MaterialStage{p: p, settings: cfg.Material}

	if err := p.allocate(); err != nil {
		return nil, err
	}

	p.invalidate(FlagHeight)
	if p.mips {
		// Lit fill when disabled, traced otherwise.
		p.flags |= FlagShadow
	} else {
		p.shadow.fillLit()
	}

	p.log.Info("map pipeline ready",
		zap.Int("resolution", p.resolution),
		zap.Bool("mips", p.mips),
		zap.Stringer("order", flagList(order)))
	return p, nil
}

func (p *Pipeline) allocate() error {
	r := p.resolution
	specs := []struct {
		handle *gpu.Handle
		desc   gpu.TextureDesc
		writer string
	}{
		{&p.tex.Height, gpu.TextureDesc{Name: "height", Size: r, Format: gpu.FormatR32F, Mips: p.mips}, StageHeight},
		{&p.tex.Normal, gpu.TextureDesc{Name: "normal", Size: r, Format: gpu.FormatRGBA32F}, StageNormal},
		{&p.tex.Shadow, gpu.TextureDesc{Name: "shadow", Size: r, Format: gpu.FormatR32F}, StageShadow},
		{&p.tex.Material, gpu.TextureDesc{Name: "material", Size: r, Format: gpu.FormatR32F}, StageMaterial},
	}
	if p.mips {
		specs = append(specs, struct {
			handle *gpu.Handle
			desc   gpu.TextureDesc
			writer string
		}{&p.tex.HeightMax, gpu.TextureDesc{Name: "height_max", Size: r, Format: gpu.FormatR32F, Mips: true}, StageHeight})
	}

	for _, s := range specs {
		h, err := p.arena.Create(s.desc, s.writer)
		if err != nil {
			return fmt.Errorf("map pipeline: %w", err)
		}
		*s.handle = h
	}
	return nil
}

// Arena returns the texture arena holding the maps.
func (p *Pipeline) Arena() *gpu.Arena { return p.arena }

// Textures returns the map handles.
func (p *Pipeline) Textures() Textures { return p.tex }

// Resolution returns the edge length of every map.
func (p *Pipeline) Resolution() int { return p.resolution }

// Flags returns the pending work.
func (p *Pipeline) Flags() Flags { return p.flags }

// Height, Normal, Shadow and Material return the editable stages.
func (p *Pipeline) Height() *HeightStage     { return p.height }
func (p *Pipeline) Normal() *NormalStage     { return p.normal }
func (p *Pipeline) Shadow() *ShadowStage     { return p.shadow }
func (p *Pipeline) Material() *MaterialStage { return p.material }

// HeightSource returns the height map view consumed by the clipmap.
func (p *Pipeline) HeightSource() HeightSource { return HeightSource{p: p} }

// ShadowsAvailable reports whether the resolution allows shadow tracing.
func (p *Pipeline) ShadowsAvailable() bool { return p.mips }

func (p *Pipeline) shadowsActive() bool {
	return p.mips && p.shadow.settings.Enabled
}

// invalidate marks f and everything derived from it as stale. Shadow is
// only marked while shadows are active.
func (p *Pipeline) invalidate(f Flags) {
	mask := (f | stageGraph.downstream(f)) &^ inputLight
	if !p.shadowsActive() {
		mask &^= FlagShadow
	}
	p.flags |= mask
}

// SetLightDirection updates the direction towards the sun and marks the
// shadow map stale when it changed.
func (p *Pipeline) SetLightDirection(dir mgl32.Vec3) {
	if dir.ApproxEqual(p.light) {
		return
	}
	p.light = dir
	p.invalidate(inputLight)
}

// LightDirection returns the direction towards the sun.
func (p *Pipeline) LightDirection() mgl32.Vec3 { return p.light }

// RequestShadowUpdate retraces shadows on the next Update. The request is
// dropped with a warning when shadows cannot be traced.
func (p *Pipeline) RequestShadowUpdate() {
	switch {
	case !p.mips:
		p.log.Warn("shadow update dropped: resolution is not a power of two",
			zap.Int("resolution", p.resolution))
	case !p.shadow.settings.Enabled:
		p.log.Debug("shadow update ignored: shadows disabled")
	default:
		p.flags |= FlagShadow
	}
}

// GeometryShouldUpdate reports whether the clipmap needs a full dispatch.
func (p *Pipeline) GeometryShouldUpdate() bool { return p.flags.Has(FlagGeometry) }

// RequestFullGeometryUpdate forces a full clipmap dispatch.
func (p *Pipeline) RequestFullGeometryUpdate() { p.flags |= FlagGeometry }

// ClearGeometryUpdate is called by the clipmap owner after a full dispatch.
func (p *Pipeline) ClearGeometryUpdate() { p.flags &^= FlagGeometry }

// Update runs every flagged stage in dependency order and returns the
// stages that ran. Running Normal raises FlagGeometry.
func (p *Pipeline) Update() Flags {
	var ran Flags
	for _, f := range p.order {
		if !p.flags.Has(f) {
			continue
		}
		var run func()
		switch f {
		case FlagHeight:
			run = p.height.run
		case FlagNormal:
			run = p.normal.run
		case FlagShadow:
			run = p.shadow.run
		case FlagMaterial:
			run = p.material.run
		}
		if run == nil {
			continue
		}
		done := logger.Timed(p.log, "stage ran")
		run()
		done(zap.Stringer("stage", f))
		p.flags &^= f
		ran |= f
		if f == FlagNormal {
			p.flags |= FlagGeometry
		}
	}
	if ran != 0 {
		p.log.Debug("map stages ran", zap.Stringer("stages", ran))
	}
	return ran
}

// writable resolves a texture for the given stage. Failures are programming
// errors in the stage wiring and are logged.
func (p *Pipeline) writable(h gpu.Handle, stage string) gpu.Texture {
	t, err := p.arena.Writable(h, stage)
	if err != nil {
		p.log.Error("texture write denied", zap.String("stage", stage), zap.Error(err))
		return nil
	}
	return t
}

func (p *Pipeline) sampled(h gpu.Handle) gpu.Sampled {
	t, err := p.arena.Sampled(h)
	if err != nil {
		p.log.Error("texture lookup failed", zap.Error(err))
		return nil
	}
	return t
}

// run binds k and dispatches it over a size x size image, followed by a
// barrier making the writes visible to image loads and texture fetches.
func (p *Pipeline) run(k gpu.Kernel, size int) {
	k.Dispatch(gpu.Groups(size), gpu.Groups(size), 1)
	p.dev.MemoryBarrier(gpu.BarrierImage | gpu.BarrierTextureFetch)
}

// fill sets every texel of t's base level to v.
func (p *Pipeline) fill(t gpu.Texture, v float32) {
	k := p.dev.Kernel(kernelClear)
	k.Bind()
	t.BindAsImage(0, 0)
	k.SetUniform("u_Resolution", gpu.Int(p.resolution))
	k.SetUniform("u_Value", gpu.Float(v))
	p.run(k, p.resolution)
}

// heightScale converts normalized height to texel units.
func (p *Pipeline) heightScale() float32 {
	s := p.height.settings
	if s.ScaleXZ <= 0 {
		return 0
	}
	return s.ScaleY * float32(p.resolution) / s.ScaleXZ
}

type flagList []Flags

func (l flagList) String() string {
	parts := make([]string, len(l))
	for i, f := range l {
		parts[i] = f.String()
	}
	return strings.Join(parts, " > ")
}
