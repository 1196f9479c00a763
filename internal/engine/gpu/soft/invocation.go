package soft

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Invocation is the view of the device a kernel function gets for one
// global invocation. Reads and writes through it are recorded for barrier
// tracking.
type Invocation struct {
	id       [3]int
	uniforms Uniforms
	bind     *binding
}

// GlobalID returns the global invocation coordinates.
func (inv *Invocation) GlobalID() (x, y, z int) {
	return inv.id[0], inv.id[1], inv.id[2]
}

func (inv *Invocation) Int(name string) int         { return inv.uniforms.Int(name) }
func (inv *Invocation) Float(name string) float32   { return inv.uniforms.Float(name) }
func (inv *Invocation) Bool(name string) bool       { return inv.uniforms.Bool(name) }
func (inv *Invocation) Vec2(name string) mgl32.Vec2 { return inv.uniforms.Vec2(name) }
func (inv *Invocation) Vec3(name string) mgl32.Vec3 { return inv.uniforms.Vec3(name) }
func (inv *Invocation) Vec4(name string) mgl32.Vec4 { return inv.uniforms.Vec4(name) }

// Sample filters the texture bound at a sampler slot.
func (inv *Invocation) Sample(slot int, uv mgl32.Vec2, lod float32) mgl32.Vec4 {
	t := inv.sampler(slot)
	if t == nil {
		return mgl32.Vec4{}
	}
	return t.sample(uv, lod)
}

// Fetch reads one texel of the texture bound at a sampler slot, wrapping
// out-of-range coordinates.
func (inv *Invocation) Fetch(slot, x, y, mip int) mgl32.Vec4 {
	t := inv.sampler(slot)
	if t == nil {
		return mgl32.Vec4{}
	}
	return t.fetch(x, y, mip)
}

// TextureSize returns the edge length of a mip of the sampled texture.
func (inv *Invocation) TextureSize(slot, mip int) int {
	if slot < 0 || slot >= MaxSlots || inv.bind.samplers[slot] == nil {
		return 0
	}
	return inv.bind.samplers[slot].MipSize(mip)
}

func (inv *Invocation) sampler(slot int) *Texture {
	if slot < 0 || slot >= MaxSlots {
		return nil
	}
	t := inv.bind.samplers[slot]
	if t != nil {
		inv.bind.acc.samplerRead[slot].Store(true)
	}
	return t
}

// ImageSize returns the edge length of the image bound at slot.
func (inv *Invocation) ImageSize(slot int) int {
	if slot < 0 || slot >= MaxSlots || inv.bind.images[slot].tex == nil {
		return 0
	}
	img := inv.bind.images[slot]
	return img.tex.MipSize(img.mip)
}

// ImageLoad reads a texel of the bound image. Out-of-range reads return zero.
func (inv *Invocation) ImageLoad(slot, x, y int) mgl32.Vec4 {
	if slot < 0 || slot >= MaxSlots {
		return mgl32.Vec4{}
	}
	img := inv.bind.images[slot]
	if img.tex == nil || img.mip >= len(img.tex.mips) {
		return mgl32.Vec4{}
	}
	inv.bind.acc.imageRead[slot].Store(true)
	s := img.tex.MipSize(img.mip)
	if x < 0 || y < 0 || x >= s || y >= s {
		return mgl32.Vec4{}
	}
	return img.tex.mips[img.mip][y*s+x]
}

// ImageStore writes a texel of the bound image. Out-of-range writes are
// dropped.
func (inv *Invocation) ImageStore(slot, x, y int, v mgl32.Vec4) {
	if slot < 0 || slot >= MaxSlots {
		return
	}
	img := inv.bind.images[slot]
	if img.tex == nil || img.mip >= len(img.tex.mips) {
		return
	}
	s := img.tex.MipSize(img.mip)
	if x < 0 || y < 0 || x >= s || y >= s {
		return
	}
	inv.bind.acc.imageWrite[slot].Store(true)
	img.tex.mips[img.mip][y*s+x] = v
}

// BufferLen returns the element count of the storage buffer at slot.
func (inv *Invocation) BufferLen(slot int) int {
	if slot < 0 || slot >= MaxSlots || inv.bind.storage[slot] == nil {
		return 0
	}
	return len(inv.bind.storage[slot].vec)
}

// Load reads an element of the storage buffer at slot.
func (inv *Invocation) Load(slot, i int) mgl32.Vec4 {
	if slot < 0 || slot >= MaxSlots {
		return mgl32.Vec4{}
	}
	b := inv.bind.storage[slot]
	if b == nil || i < 0 || i >= len(b.vec) {
		return mgl32.Vec4{}
	}
	inv.bind.acc.bufferRead[slot].Store(true)
	return b.vec[i]
}

// Store writes an element of the storage buffer at slot.
func (inv *Invocation) Store(slot, i int, v mgl32.Vec4) {
	if slot < 0 || slot >= MaxSlots {
		return
	}
	b := inv.bind.storage[slot]
	if b == nil || i < 0 || i >= len(b.vec) {
		return
	}
	inv.bind.acc.bufferWrite[slot].Store(true)
	b.vec[i] = v
}
