// Package soft is a CPU implementation of the gpu abstraction. Kernels are
// Go functions registered by name; a dispatch runs its work groups in
// parallel and returns once they have all finished. The device also tracks
// barriers so tests can assert that every write is fenced before it is read.
package soft

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// MaxSlots is the number of binding points per resource kind.
const MaxSlots = 16

// Stats counts device activity since creation or the last ResetStats.
type Stats struct {
	Dispatches  int
	Invocations int64
	Barriers    int
	// Hazards counts resources read by a dispatch while holding writes from
	// an earlier dispatch that no barrier has fenced yet.
	Hazards int
	// Unfenced counts dispatches issued while writes from an earlier
	// dispatch were still waiting for a barrier.
	Unfenced int
	// Skipped counts dispatches on invalid or unbound kernels.
	Skipped int
}

type resource interface {
	isBuffer() bool
}

type imageBinding struct {
	tex *Texture
	mip int
}

// Device is the software gpu.Device.
type Device struct {
	log *zap.Logger

	// Workers bounds the number of work groups run concurrently. Zero leaves
	// the group unbounded.
	Workers int

	samplers [MaxSlots]*Texture
	images   [MaxSlots]imageBinding
	storage  [MaxSlots]*Buffer

	bound   *Kernel
	kernels map[string]*Kernel
	pending map[resource]struct{}
	stats   Stats
	live    int
}

// New returns a software device.
func New() *Device {
	return &Device{
		log:     logger.Named("gpu.soft"),
		kernels: make(map[string]*Kernel),
		pending: make(map[resource]struct{}),
	}
}

// NewTexture allocates a texture with zeroed texels.
func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("soft: texture %q has invalid size %d", desc.Name, desc.Size)
	}
	t := newTexture(desc)
	t.dev = d
	return t, nil
}

// NewVertexBuffer copies data into a new storage buffer.
func (d *Device) NewVertexBuffer(data []mgl32.Vec4) (gpu.Buffer, error) {
	b := &Buffer{vec: make([]mgl32.Vec4, len(data))}
	copy(b.vec, data)
	b.dev = d
	d.live++
	return b, nil
}

// NewIndexBuffer copies data into a new index buffer.
func (d *Device) NewIndexBuffer(data []uint32) (gpu.Buffer, error) {
	b := &Buffer{idx: make([]uint32, len(data)), index: true}
	copy(b.idx, data)
	b.dev = d
	d.live++
	return b, nil
}

// Kernel returns the kernel registered under name, or an invalid kernel.
func (d *Device) Kernel(name string) gpu.Kernel {
	if k, ok := d.kernels[name]; ok {
		return k
	}
	setup, ok := lookupKernel(name)
	if !ok {
		d.log.Debug("unknown kernel", zap.String("kernel", name))
	}
	k := &Kernel{dev: d, name: name, setup: setup, uniforms: make(Uniforms)}
	d.kernels[name] = k
	return k
}

// MemoryBarrier fences pending writes of the kinds selected by b.
func (d *Device) MemoryBarrier(b gpu.Barrier) {
	d.stats.Barriers++
	for r := range d.pending {
		if (r.isBuffer() && b.Buffers()) || (!r.isBuffer() && b.Textures()) {
			delete(d.pending, r)
		}
	}
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats { return d.stats }

// LiveBuffers returns the number of buffers created and not yet released.
func (d *Device) LiveBuffers() int { return d.live }

// ResetStats zeroes the device counters.
func (d *Device) ResetStats() { d.stats = Stats{} }

// Fenced reports whether every write issued so far has been followed by a
// matching barrier.
func (d *Device) Fenced() bool { return len(d.pending) == 0 }

func (d *Device) bindSampler(slot int, t *Texture) {
	if slot < 0 || slot >= MaxSlots {
		d.log.Warn("sampler slot out of range", zap.Int("slot", slot))
		return
	}
	d.samplers[slot] = t
}

func (d *Device) bindImage(slot, mip int, t *Texture) {
	if slot < 0 || slot >= MaxSlots {
		d.log.Warn("image slot out of range", zap.Int("slot", slot))
		return
	}
	d.images[slot] = imageBinding{tex: t, mip: mip}
}

func (d *Device) bindStorage(slot int, b *Buffer) {
	if slot < 0 || slot >= MaxSlots {
		d.log.Warn("storage slot out of range", zap.Int("slot", slot))
		return
	}
	d.storage[slot] = b
}

// access records which bindings a dispatch touched.
type access struct {
	samplerRead [MaxSlots]atomic.Bool
	imageRead   [MaxSlots]atomic.Bool
	imageWrite  [MaxSlots]atomic.Bool
	bufferRead  [MaxSlots]atomic.Bool
	bufferWrite [MaxSlots]atomic.Bool
}

// binding is the resource table a dispatch runs against.
type binding struct {
	samplers [MaxSlots]*Texture
	images   [MaxSlots]imageBinding
	storage  [MaxSlots]*Buffer
	acc      *access
}

func (d *Device) dispatch(k *Kernel, gx, gy, gz int) {
	if gx <= 0 || gy <= 0 || gz <= 0 {
		return
	}
	if len(d.pending) > 0 {
		d.stats.Unfenced++
	}

	b := &binding{
		samplers: d.samplers,
		images:   d.images,
		storage:  d.storage,
		acc:      &access{},
	}
	fn := k.setup(k.uniforms)

	var g errgroup.Group
	if d.Workers > 0 {
		g.SetLimit(d.Workers)
	}
	var invocations atomic.Int64
	for z := 0; z < gz; z++ {
		for y := 0; y < gy; y++ {
			for x := 0; x < gx; x++ {
				group := [3]int{x, y, z}
				g.Go(func() error {
					inv := &Invocation{uniforms: k.uniforms, bind: b}
					for ly := 0; ly < gpu.LocalSize; ly++ {
						for lx := 0; lx < gpu.LocalSize; lx++ {
							inv.id = [3]int{
								group[0]*gpu.LocalSize + lx,
								group[1]*gpu.LocalSize + ly,
								group[2],
							}
							fn(inv)
						}
					}
					invocations.Add(gpu.LocalSize * gpu.LocalSize)
					return nil
				})
			}
		}
	}
	_ = g.Wait()

	d.stats.Dispatches++
	d.stats.Invocations += invocations.Load()
	d.track(b)
}

// track checks the reads of a finished dispatch against unfenced writes and
// records its own writes as pending.
func (d *Device) track(b *binding) {
	read := func(r resource) {
		if _, dirty := d.pending[r]; dirty {
			d.stats.Hazards++
			d.log.Debug("read before barrier", zap.String("resource", resourceName(r)))
		}
	}
	for i := 0; i < MaxSlots; i++ {
		if b.acc.samplerRead[i].Load() && b.samplers[i] != nil {
			read(b.samplers[i])
		}
		if b.acc.imageRead[i].Load() && b.images[i].tex != nil {
			read(b.images[i].tex)
		}
		if b.acc.bufferRead[i].Load() && b.storage[i] != nil {
			read(b.storage[i])
		}
	}
	for i := 0; i < MaxSlots; i++ {
		if b.acc.imageWrite[i].Load() && b.images[i].tex != nil {
			d.pending[b.images[i].tex] = struct{}{}
		}
		if b.acc.bufferWrite[i].Load() && b.storage[i] != nil {
			d.pending[b.storage[i]] = struct{}{}
		}
	}
}

func resourceName(r resource) string {
	switch v := r.(type) {
	case *Texture:
		return v.desc.Name
	case *Buffer:
		return fmt.Sprintf("buffer[%d]", v.Len())
	}
	return "?"
}

var _ gpu.Device = (*Device)(nil)
