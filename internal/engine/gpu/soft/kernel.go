package soft

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Uniforms holds the values set on a kernel, keyed by uniform name.
type Uniforms map[string]gpu.Uniform

// Func runs one invocation.
type Func func(inv *Invocation)

// Setup is called once per dispatch with the kernel's uniforms and returns
// the per-invocation function. Expensive per-dispatch state such as noise
// permutation tables belongs in the closure.
type Setup func(u Uniforms) Func

// Simple adapts a Func that needs no per-dispatch state.
func Simple(fn Func) Setup {
	return func(Uniforms) Func { return fn }
}

var (
	registryMu sync.RWMutex
	kernels    = make(map[string]Setup)
)

// RegisterKernel makes a Go reference kernel available under name. It is
// meant to be called from init and panics on duplicates.
func RegisterKernel(name string, setup Setup) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := kernels[name]; dup {
		panic(fmt.Sprintf("soft: RegisterKernel called twice for %q", name))
	}
	kernels[name] = setup
}

func lookupKernel(name string) (Setup, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := kernels[name]
	return s, ok
}

// Kernel is the software gpu.Kernel.
type Kernel struct {
	dev      *Device
	name     string
	setup    Setup
	uniforms Uniforms
}

func (k *Kernel) Name() string { return k.name }
func (k *Kernel) Valid() bool  { return k.setup != nil }

func (k *Kernel) Bind() {
	if k.Valid() {
		k.dev.bound = k
	}
}

func (k *Kernel) SetUniform(name string, v gpu.Uniform) {
	k.uniforms[name] = v
}

// Dispatch runs the kernel over the given work groups and returns when all
// invocations have completed.
func (k *Kernel) Dispatch(gx, gy, gz int) {
	if !k.Valid() {
		k.dev.stats.Skipped++
		return
	}
	if k.dev.bound != k {
		k.dev.stats.Skipped++
		k.dev.log.Warn("dispatch on unbound kernel", zap.String("kernel", k.name))
		return
	}
	k.dev.dispatch(k, gx, gy, gz)
}

func (u Uniforms) Int(name string) int {
	if v, ok := u[name].(gpu.Int); ok {
		return int(v)
	}
	return 0
}

func (u Uniforms) Float(name string) float32 {
	if v, ok := u[name].(gpu.Float); ok {
		return float32(v)
	}
	return 0
}

func (u Uniforms) Bool(name string) bool {
	if v, ok := u[name].(gpu.Bool); ok {
		return bool(v)
	}
	return false
}

func (u Uniforms) Vec2(name string) mgl32.Vec2 {
	if v, ok := u[name].(gpu.Vec2); ok {
		return mgl32.Vec2(v)
	}
	return mgl32.Vec2{}
}

func (u Uniforms) Vec3(name string) mgl32.Vec3 {
	if v, ok := u[name].(gpu.Vec3); ok {
		return mgl32.Vec3(v)
	}
	return mgl32.Vec3{}
}

func (u Uniforms) Vec4(name string) mgl32.Vec4 {
	if v, ok := u[name].(gpu.Vec4); ok {
		return mgl32.Vec4(v)
	}
	return mgl32.Vec4{}
}

var _ gpu.Kernel = (*Kernel)(nil)
