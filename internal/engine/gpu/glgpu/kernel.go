package glgpu

import (
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
)

// Kernel is a compiled compute program. Program 0 marks an invalid kernel.
type Kernel struct {
	name      string
	program   uint32
	locations map[string]int32
}

func (k *Kernel) Name() string { return k.name }
func (k *Kernel) Valid() bool  { return k.program != 0 }

func (k *Kernel) Bind() {
	if k.Valid() {
		gl.UseProgram(k.program)
	}
}

func (k *Kernel) location(name string) int32 {
	if loc, ok := k.locations[name]; ok {
		return loc
	}
	loc := shader.Uniform(k.program, name)
	k.locations[name] = loc
	return loc
}

// SetUniform writes a uniform on the program directly, so it does not need
// to be bound. Uniforms the compiler optimized away are ignored.
func (k *Kernel) SetUniform(name string, v gpu.Uniform) {
	if !k.Valid() {
		return
	}
	loc := k.location(name)
	if loc < 0 {
		return
	}
	switch u := v.(type) {
	case gpu.Int:
		gl.ProgramUniform1i(k.program, loc, int32(u))
	case gpu.Float:
		gl.ProgramUniform1f(k.program, loc, float32(u))
	case gpu.Bool:
		var i int32
		if u {
			i = 1
		}
		gl.ProgramUniform1i(k.program, loc, i)
	case gpu.Vec2:
		gl.ProgramUniform2f(k.program, loc, u[0], u[1])
	case gpu.Vec3:
		gl.ProgramUniform3f(k.program, loc, u[0], u[1], u[2])
	case gpu.Vec4:
		gl.ProgramUniform4f(k.program, loc, u[0], u[1], u[2], u[3])
	}
}

func (k *Kernel) Dispatch(gx, gy, gz int) {
	if !k.Valid() || gx <= 0 || gy <= 0 || gz <= 0 {
		return
	}
	gl.DispatchCompute(uint32(gx), uint32(gy), uint32(gz))
}

var _ gpu.Kernel = (*Kernel)(nil)
