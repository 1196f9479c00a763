// Package glgpu implements the gpu abstraction on OpenGL 4.3 compute
// shaders. All calls must come from the thread owning the GL context.
package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Device is the OpenGL gpu.Device. Kernels are compiled lazily from the
// sources registered with gpu.RegisterSource and cached by name.
type Device struct {
	log     *zap.Logger
	kernels map[string]*Kernel
}

// New returns a device for the current GL context.
func New() *Device {
	return &Device{
		log:     logger.Named("gpu.gl"),
		kernels: make(map[string]*Kernel),
	}
}

func internalFormat(f gpu.Format) uint32 {
	switch f {
	case gpu.FormatR32F:
		return gl.R32F
	case gpu.FormatRG32F:
		return gl.RG32F
	default:
		return gl.RGBA32F
	}
}

// NewTexture allocates immutable storage for a texture and its mip chain.
func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("glgpu: texture %q has invalid size %d", desc.Name, desc.Size)
	}
	levels := 1
	if desc.Mips {
		levels = math.MipLevels(desc.Size)
	}

	t := &Texture{desc: desc, levels: levels, format: internalFormat(desc.Format)}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexStorage2D(gl.TEXTURE_2D, int32(levels), t.format, int32(desc.Size), int32(desc.Size))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if levels > 1 {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("NewTexture " + desc.Name); err != nil {
		gl.DeleteTextures(1, &t.id)
		return nil, err
	}
	return t, nil
}

// NewVertexBuffer uploads vec4 elements into a buffer usable both as a
// shader storage buffer and as a vertex attribute source.
func (d *Device) NewVertexBuffer(data []mgl32.Vec4) (gpu.Buffer, error) {
	b := &Buffer{target: gl.SHADER_STORAGE_BUFFER, n: len(data)}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data)*16, ptr, gl.DYNAMIC_COPY)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if err := glError("NewVertexBuffer"); err != nil {
		gl.DeleteBuffers(1, &b.id)
		return nil, err
	}
	return b, nil
}

// NewIndexBuffer uploads uint32 indices.
func (d *Device) NewIndexBuffer(data []uint32) (gpu.Buffer, error) {
	b := &Buffer{target: gl.ELEMENT_ARRAY_BUFFER, n: len(data)}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*4, ptr, gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	if err := glError("NewIndexBuffer"); err != nil {
		gl.DeleteBuffers(1, &b.id)
		return nil, err
	}
	return b, nil
}

// Kernel compiles the named source on first use. Unknown names and
// compile failures yield an invalid kernel.
func (d *Device) Kernel(name string) gpu.Kernel {
	if k, ok := d.kernels[name]; ok {
		return k
	}
	k := &Kernel{name: name, locations: make(map[string]int32)}
	d.kernels[name] = k

	src, ok := gpu.Source(name)
	if !ok {
		d.log.Debug("unknown kernel", zap.String("kernel", name))
		return k
	}
	program, err := shader.CompileCompute(name, src)
	if err != nil {
		d.log.Error("kernel compile failed", zap.String("kernel", name), zap.Error(err))
		return k
	}
	k.program = program
	d.log.Debug("kernel compiled", zap.String("kernel", name), zap.Uint32("program", program))
	return k
}

// MemoryBarrier maps barrier bits onto glMemoryBarrier.
func (d *Device) MemoryBarrier(b gpu.Barrier) {
	var bits uint32
	if b&gpu.BarrierStorage != 0 {
		bits |= gl.SHADER_STORAGE_BARRIER_BIT
	}
	if b&gpu.BarrierImage != 0 {
		bits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT
	}
	if b&gpu.BarrierTextureFetch != 0 {
		bits |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if b&gpu.BarrierVertexAttrib != 0 {
		bits |= gl.VERTEX_ATTRIB_ARRAY_BARRIER_BIT
	}
	if bits != 0 {
		gl.MemoryBarrier(bits)
	}
}

// Release deletes every compiled kernel program.
func (d *Device) Release() {
	for _, k := range d.kernels {
		if k.program != 0 {
			gl.DeleteProgram(k.program)
			k.program = 0
		}
	}
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glgpu: %s: GL error 0x%x", op, code)
	}
	return nil
}

var _ gpu.Device = (*Device)(nil)
