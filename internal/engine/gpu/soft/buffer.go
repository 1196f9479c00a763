package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Buffer is a software buffer holding either vec4 elements (vertex/storage)
// or uint32 indices.
type Buffer struct {
	dev   *Device
	vec   []mgl32.Vec4
	idx   []uint32
	index bool

	released bool
}

func (b *Buffer) isBuffer() bool { return true }

// Len returns the element count.
func (b *Buffer) Len() int {
	if b.index {
		return len(b.idx)
	}
	return len(b.vec)
}

// BindAsStorage binds a vertex buffer for kernel access. Index buffers
// cannot be bound as storage and are ignored.
func (b *Buffer) BindAsStorage(slot int) {
	if b.released {
		b.dev.log.Warn("released buffer bound as storage")
		return
	}
	if b.index {
		b.dev.log.Warn("index buffer bound as storage")
		return
	}
	b.dev.bindStorage(slot, b)
}

// Release drops the contents and the device's live count.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.vec, b.idx = nil, nil
	b.dev.live--
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool { return b.released }

// Data returns a copy of the vec4 contents.
func (b *Buffer) Data() []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(b.vec))
	copy(out, b.vec)
	return out
}

// Indices returns a copy of the index contents.
func (b *Buffer) Indices() []uint32 {
	out := make([]uint32, len(b.idx))
	copy(out, b.idx)
	return out
}

var _ gpu.Buffer = (*Buffer)(nil)
