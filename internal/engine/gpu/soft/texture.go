package soft

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Texture is a square texture stored as vec4 texels per mip level,
// regardless of format.
type Texture struct {
	dev  *Device
	desc gpu.TextureDesc
	mips [][]mgl32.Vec4
}

func newTexture(desc gpu.TextureDesc) *Texture {
	levels := 1
	if desc.Mips {
		levels = math.MipLevels(desc.Size)
	}
	t := &Texture{desc: desc, mips: make([][]mgl32.Vec4, levels)}
	for i := range t.mips {
		s := t.MipSize(i)
		t.mips[i] = make([]mgl32.Vec4, s*s)
	}
	return t
}

func (t *Texture) isBuffer() bool { return false }

func (t *Texture) Name() string       { return t.desc.Name }
func (t *Texture) Size() int          { return t.desc.Size }
func (t *Texture) Format() gpu.Format { return t.desc.Format }
func (t *Texture) MipLevels() int     { return len(t.mips) }

// MipSize returns the edge length of a mip level.
func (t *Texture) MipSize(mip int) int {
	s := t.desc.Size >> uint(mip)
	if s < 1 {
		s = 1
	}
	return s
}

func (t *Texture) BindAsSampler(slot int) {
	if t.dev != nil {
		t.dev.bindSampler(slot, t)
	}
}

func (t *Texture) BindAsImage(slot, mip int) {
	if t.dev != nil {
		t.dev.bindImage(slot, mip, t)
	}
}

// At returns a texel for host-side readback.
func (t *Texture) At(x, y, mip int) mgl32.Vec4 {
	if mip < 0 || mip >= len(t.mips) {
		return mgl32.Vec4{}
	}
	s := t.MipSize(mip)
	if x < 0 || y < 0 || x >= s || y >= s {
		return mgl32.Vec4{}
	}
	return t.mips[mip][y*s+x]
}

// Texels returns a copy of one mip level in row-major order.
func (t *Texture) Texels(mip int) []mgl32.Vec4 {
	if mip < 0 || mip >= len(t.mips) {
		return nil
	}
	out := make([]mgl32.Vec4, len(t.mips[mip]))
	copy(out, t.mips[mip])
	return out
}

// Upload replaces one mip level from host memory.
func (t *Texture) Upload(mip int, data []mgl32.Vec4) {
	if mip < 0 || mip >= len(t.mips) {
		return
	}
	copy(t.mips[mip], data)
}

// fetch reads a texel with repeat wrapping.
func (t *Texture) fetch(x, y, mip int) mgl32.Vec4 {
	mip = clampInt(mip, 0, len(t.mips)-1)
	s := t.MipSize(mip)
	x = math.FloorModInt(x, s)
	y = math.FloorModInt(y, s)
	return t.mips[mip][y*s+x]
}

// bilinear samples one mip level at normalized coordinates with repeat
// wrapping and texel centers at half-integers.
func (t *Texture) bilinear(uv mgl32.Vec2, mip int) mgl32.Vec4 {
	mip = clampInt(mip, 0, len(t.mips)-1)
	s := float32(t.MipSize(mip))
	fx := uv[0]*s - 0.5
	fy := uv[1]*s - 0.5
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix, iy := int(x0), int(y0)

	a := t.fetch(ix, iy, mip)
	b := t.fetch(ix+1, iy, mip)
	c := t.fetch(ix, iy+1, mip)
	d := t.fetch(ix+1, iy+1, mip)
	top := a.Mul(1 - tx).Add(b.Mul(tx))
	bottom := c.Mul(1 - tx).Add(d.Mul(tx))
	return top.Mul(1 - ty).Add(bottom.Mul(ty))
}

// sample filters trilinearly between the two mips around lod.
func (t *Texture) sample(uv mgl32.Vec2, lod float32) mgl32.Vec4 {
	maxLod := float32(len(t.mips) - 1)
	lod = math.Clamp(lod, 0, maxLod)
	lo := math32.Floor(lod)
	f := lod - lo
	v := t.bilinear(uv, int(lo))
	if f == 0 {
		return v
	}
	w := t.bilinear(uv, int(lo)+1)
	return v.Mul(1 - f).Add(w.Mul(f))
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

var _ gpu.Texture = (*Texture)(nil)
