package mapgen

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// HeightStage accumulates the procedure list into the height map and builds
// its mip chains.
type HeightStage struct {
	p          *Pipeline
	settings   HeightSettings
	procedures []*Procedure
}

// Settings returns the height scales and global seed.
func (s *HeightStage) Settings() HeightSettings { return s.settings }

// SetSettings replaces the height settings and regenerates every map.
func (s *HeightStage) SetSettings(hs HeightSettings) {
	if hs == s.settings {
		return
	}
	s.settings = hs
	s.p.invalidate(FlagHeight)
}

// Procedures returns the procedure list in evaluation order. Callers must
// not modify it directly; use the editing methods so the maps regenerate.
func (s *HeightStage) Procedures() []*Procedure { return s.procedures }

// Add appends a new instance of template and returns it.
func (s *HeightStage) Add(template string) (*Procedure, error) {
	proc, err := NewProcedure(template)
	if err != nil {
		return nil, err
	}
	s.procedures = append(s.procedures, proc)
	s.p.invalidate(FlagHeight)
	return proc, nil
}

// Remove deletes the procedure with the given id.
func (s *HeightStage) Remove(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.procedures = append(s.procedures[:i], s.procedures[i+1:]...)
	s.p.invalidate(FlagHeight)
	return true
}

// Move places the procedure with the given id at position to.
func (s *HeightStage) Move(id uuid.UUID, to int) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("procedure %s not found", id)
	}
	if to < 0 || to >= len(s.procedures) {
		return fmt.Errorf("position %d out of range [0, %d)", to, len(s.procedures))
	}
	if i == to {
		return nil
	}
	proc := s.procedures[i]
	s.procedures = append(s.procedures[:i], s.procedures[i+1:]...)
	s.procedures = append(s.procedures[:to], append([]*Procedure{proc}, s.procedures[to:]...)...)
	s.p.invalidate(FlagHeight)
	return nil
}

// SetParam assigns a parameter of one procedure.
func (s *HeightStage) SetParam(id uuid.UUID, name string, v Value) error {
	proc, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := proc.Set(name, v); err != nil {
		return err
	}
	s.p.invalidate(FlagHeight)
	return nil
}

// SetBlend changes how a procedure combines with the heights before it.
func (s *HeightStage) SetBlend(id uuid.UUID, mode BlendMode, weight float32) error {
	proc, err := s.lookup(id)
	if err != nil {
		return err
	}
	proc.Blend, proc.Weight = mode, weight
	s.p.invalidate(FlagHeight)
	return nil
}

// SetEnabled toggles a procedure without removing it.
func (s *HeightStage) SetEnabled(id uuid.UUID, enabled bool) error {
	proc, err := s.lookup(id)
	if err != nil {
		return err
	}
	if proc.Enabled == enabled {
		return nil
	}
	proc.Enabled = enabled
	s.p.invalidate(FlagHeight)
	return nil
}

func (s *HeightStage) index(id uuid.UUID) int {
	for i, proc := range s.procedures {
		if proc.ID == id {
			return i
		}
	}
	return -1
}

func (s *HeightStage) lookup(id uuid.UUID) (*Procedure, error) {
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("procedure %s not found", id)
	}
	return s.procedures[i], nil
}

func (s *HeightStage) run() {
	p := s.p
	res := p.resolution
	target := p.writable(p.tex.Height, StageHeight)
	if target == nil {
		return
	}

	p.fill(target, 0)

	for _, proc := range s.procedures {
		if !proc.Enabled {
			continue
		}
		t, ok := LookupTemplate(proc.Template)
		if !ok {
			p.log.Debug("skipping unknown procedure", zap.String("template", proc.Template))
			continue
		}
		k := p.dev.Kernel(t.Kernel)
		if !k.Valid() {
			p.log.Debug("skipping procedure without kernel",
				zap.String("template", proc.Template), zap.String("kernel", t.Kernel))
			continue
		}
		k.Bind()
		target.BindAsImage(0, 0)
		k.SetUniform("u_Resolution", gpu.Int(res))
		k.SetUniform("u_Blend", gpu.Int(int(proc.Blend)))
		k.SetUniform("u_Weight", gpu.Float(proc.Weight))
		k.SetUniform("u_Seed", gpu.Int(s.settings.Seed))
		for _, prm := range proc.Params {
			k.SetUniform(prm.Uniform())
		}
		p.run(k, res)
	}

	finalize := p.dev.Kernel(kernelFinalize)
	finalize.Bind()
	target.BindAsImage(0, 0)
	finalize.SetUniform("u_Resolution", gpu.Int(res))
	p.run(finalize, res)

	if err := s.buildMips(target); err != nil {
		p.log.Debug("height mips skipped", zap.Error(err))
	}
}

// buildMips fills the average chain of the height map and the max chain of
// the height_max map used to skip empty space when tracing shadows.
func (s *HeightStage) buildMips(height gpu.Texture) error {
	p := s.p
	if !p.mips {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, p.resolution)
	}
	s.downsample(height, 0)

	heightMax := p.writable(p.tex.HeightMax, StageHeight)
	if heightMax == nil {
		return nil
	}
	cp := p.dev.Kernel(kernelMipCopy)
	cp.Bind()
	height.BindAsSampler(0)
	heightMax.BindAsImage(0, 0)
	cp.SetUniform("u_Size", gpu.Int(p.resolution))
	p.run(cp, p.resolution)

	s.downsample(heightMax, 1)
	return nil
}

func (s *HeightStage) downsample(t gpu.Texture, mode int) {
	p := s.p
	k := p.dev.Kernel(kernelDownsample)
	k.Bind()
	k.SetUniform("u_Mode", gpu.Int(mode))
	for mip := 0; mip+1 < t.MipLevels(); mip++ {
		size := max(p.resolution>>(mip+1), 1)
		t.BindAsSampler(0)
		t.BindAsImage(0, mip+1)
		k.SetUniform("u_Size", gpu.Int(size))
		k.SetUniform("u_SrcMip", gpu.Int(mip))
		p.run(k, size)
	}
}
