package mapgen

import "go.uber.org/zap"

// HeightSource is the height map as seen by geometry consumers.
type HeightSource struct {
	p *Pipeline
}

// BindAsSampler binds the height map's average chain to slot.
func (h HeightSource) BindAsSampler(slot int) {
	t := h.p.sampled(h.p.tex.Height)
	if t == nil {
		return
	}
	t.BindAsSampler(slot)
}

// BindAsImage binds one mip of the height map for writing. Only the height
// stage owns the map, so the request goes through its writer identity.
func (h HeightSource) BindAsImage(slot, mip int) error {
	t, err := h.p.arena.Writable(h.p.tex.Height, StageHeight)
	if err != nil {
		h.p.log.Error("height image bind failed", zap.Error(err))
		return err
	}
	t.BindAsImage(slot, mip)
	return nil
}

// Settings returns the height scales.
func (h HeightSource) Settings() HeightSettings { return h.p.height.settings }

// ScaleXZ returns the world extent covered by the map.
func (h HeightSource) ScaleXZ() float32 { return h.p.height.settings.ScaleXZ }

// ScaleY returns the world height of a normalized 1.0.
func (h HeightSource) ScaleY() float32 { return h.p.height.settings.ScaleY }

// Resolution returns the map edge length in texels.
func (h HeightSource) Resolution() int { return h.p.resolution }

var _ interface {
	BindAsSampler(int)
	ScaleXZ() float32
	Resolution() int
} = HeightSource{}
