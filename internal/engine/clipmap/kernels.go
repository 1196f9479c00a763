package clipmap

import (
	_ "embed"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
)

// DisplaceKernel is the name the displacement kernel is registered under.
const DisplaceKernel = "clipmap_displace"

//go:embed shaders/displace.comp
var displaceSource string

func init() {
	gpu.RegisterSource(DisplaceKernel, displaceSource)
	soft.RegisterKernel(DisplaceKernel, displaceSoft)
}

func displaceSoft(u soft.Uniforms) soft.Func {
	offset := u.Vec2("u_Offset")
	scaleXZ := u.Float("u_ScaleXZ")
	lod := u.Float("u_Lod")
	edgeLod := u.Float("u_EdgeLod")
	spacing := u.Float("u_Spacing")
	width := u.Int("u_Width")
	rows := u.Int("u_Rows")
	pin := u.Bool("u_Pin")
	if scaleXZ <= 0 {
		scaleXZ = 1
	}
	if spacing <= 0 {
		spacing = 1
	}
	index := func(c float32) int { return int(math32.Round(c / spacing)) }
	lo, hi := index(u.Float("u_Lo")), index(u.Float("u_Hi"))

	return func(inv *soft.Invocation) {
		x, y, _ := inv.GlobalID()
		if x >= width || y >= rows {
			return
		}
		heightAt := func(p mgl32.Vec2, lod float32) float32 {
			uv := mgl32.Vec2{p[0]/scaleXZ + 0.5, p[1]/scaleXZ + 0.5}
			return inv.Sample(0, uv, lod)[0]
		}

		i := y*width + x
		v := inv.Load(0, i)
		p := mgl32.Vec2{v[0] + offset[0], v[2] + offset[1]}
		ix, iz := index(v[0]), index(v[2])
		oddX, oddZ := ix&1 == 1, iz&1 == 1

		// Odd vertices vanish on the coarser lattice; a is the step to the
		// two even neighbours they would be interpolated from there.
		var a mgl32.Vec2
		switch {
		case oddX && oddZ:
			a = mgl32.Vec2{spacing, -spacing}
		case oddX:
			a = mgl32.Vec2{spacing, 0}
		case oddZ:
			a = mgl32.Vec2{0, spacing}
		}

		var h, errMetric float32
		if pin && (ix == lo || ix == hi || iz == lo || iz == hi) {
			if oddX || oddZ {
				h = 0.5 * (heightAt(p.Sub(a), edgeLod) + heightAt(p.Add(a), edgeLod))
			} else {
				h = heightAt(p, edgeLod)
			}
		} else {
			h = heightAt(p, lod)
			if oddX || oddZ {
				errMetric = h - 0.5*(heightAt(p.Sub(a), lod)+heightAt(p.Add(a), lod))
			}
		}

		inv.Store(0, i, mgl32.Vec4{v[0], h, v[2], errMetric})
	}
}
