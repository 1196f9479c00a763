// Package gpu defines the compute and resource abstraction shared by the
// terrain core. Backends live in subpackages: soft (CPU emulation) and
// glgpu (OpenGL 4.3).
package gpu

import "github.com/go-gl/mathgl/mgl32"

// LocalSize is the work group edge length every kernel is compiled with
// (LocalSize x LocalSize x 1 invocations per group).
const LocalSize = 32

// Groups returns the number of work groups needed to cover n invocations
// along one axis.
func Groups(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + LocalSize - 1) / LocalSize
}

// Format is a texel storage format.
type Format uint8

const (
	FormatR32F Format = iota
	FormatRG32F
	FormatRGBA32F
)

// String returns the GLSL image format qualifier for the format.
func (f Format) String() string {
	switch f {
	case FormatR32F:
		return "r32f"
	case FormatRG32F:
		return "rg32f"
	case FormatRGBA32F:
		return "rgba32f"
	}
	return "unknown"
}

// Channels returns the number of components stored per texel.
func (f Format) Channels() int {
	switch f {
	case FormatR32F:
		return 1
	case FormatRG32F:
		return 2
	default:
		return 4
	}
}

// TextureDesc describes a square 2D texture.
type TextureDesc struct {
	Name   string
	Size   int
	Format Format
	// Mips requests a full mip chain. Ignored when Size is not a power of two.
	Mips bool
}

// Sampled is the read-only view of a texture.
type Sampled interface {
	Name() string
	Size() int
	Format() Format
	MipLevels() int
	BindAsSampler(slot int)
}

// Texture is the writable view of a texture. Only the stage declared as the
// texture's writer receives one (see Arena).
type Texture interface {
	Sampled
	BindAsImage(slot, mip int)
}

// Buffer is a device buffer. Vertex buffers hold vec4 elements and can be
// bound as shader storage; index buffers hold uint32 elements.
type Buffer interface {
	Len() int
	BindAsStorage(slot int)
	// Release frees the device memory. Releasing twice is a no-op.
	Release()
}

// Kernel is a compute program. An invalid kernel (unknown name or failed
// compilation) accepts every call and does nothing.
type Kernel interface {
	Name() string
	Valid() bool
	Bind()
	SetUniform(name string, v Uniform)
	Dispatch(groupsX, groupsY, groupsZ int)
}

// Device creates resources and kernels and orders their memory accesses.
type Device interface {
	NewTexture(desc TextureDesc) (Texture, error)
	NewVertexBuffer(data []mgl32.Vec4) (Buffer, error)
	NewIndexBuffer(data []uint32) (Buffer, error)
	// Kernel returns the kernel registered under name. It never returns nil.
	Kernel(name string) Kernel
	MemoryBarrier(b Barrier)
}
