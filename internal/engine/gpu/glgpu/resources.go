package glgpu

import (
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Texture is a GL texture with immutable storage.
type Texture struct {
	id     uint32
	desc   gpu.TextureDesc
	levels int
	format uint32
}

func (t *Texture) Name() string       { return t.desc.Name }
func (t *Texture) Size() int          { return t.desc.Size }
func (t *Texture) Format() gpu.Format { return t.desc.Format }
func (t *Texture) MipLevels() int     { return t.levels }

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

func (t *Texture) BindAsSampler(slot int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

func (t *Texture) BindAsImage(slot, mip int) {
	gl.BindImageTexture(uint32(slot), t.id, int32(mip), false, 0, gl.READ_WRITE, t.format)
}

// Release deletes the GL texture.
func (t *Texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// Buffer is a GL buffer object.
type Buffer struct {
	id     uint32
	target uint32
	n      int
}

func (b *Buffer) Len() int { return b.n }

// ID returns the GL buffer name.
func (b *Buffer) ID() uint32 { return b.id }

func (b *Buffer) BindAsStorage(slot int) {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(slot), b.id)
}

// Release deletes the GL buffer.
func (b *Buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

var (
	_ gpu.Texture = (*Texture)(nil)
	_ gpu.Buffer  = (*Buffer)(nil)
)
