package mapgen

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// CPU reference kernels. They mirror the GLSL sources operation for
// operation so a headless bake matches what the viewer renders.

func init() {
	soft.RegisterKernel("proc_fbm", procedureKernel(fbmSoft))
	soft.RegisterKernel("proc_ridged", procedureKernel(ridgedSoft))
	soft.RegisterKernel("proc_simplex", procedureKernel(simplexSoft))
	soft.RegisterKernel("proc_terrace", procedureKernel(terraceSoft))
	soft.RegisterKernel("proc_falloff", procedureKernel(falloffSoft))

	soft.RegisterKernel(kernelClear, soft.Simple(clearSoft))
	soft.RegisterKernel(kernelFinalize, soft.Simple(finalizeSoft))
	soft.RegisterKernel(kernelMipCopy, soft.Simple(mipCopySoft))
	soft.RegisterKernel(kernelDownsample, soft.Simple(downsampleSoft))
	soft.RegisterKernel(kernelNormalAO, normalAOSoft)
	soft.RegisterKernel(kernelShadow, shadowSoft)
	soft.RegisterKernel(kernelMaterial, materialSoft)
}

// evaluator maps a texel's uv and the current height to a procedure value.
type evaluator func(uv mgl32.Vec2, current float32) float32

func blend(mode BlendMode, current, value, weight float32) float32 {
	switch mode {
	case BlendAdd:
		return current + weight*value
	case BlendMultiply:
		return current * (1 - weight + weight*value)
	case BlendMax:
		return math32.Max(current, weight*value)
	case BlendMin:
		return math32.Min(current, weight*value)
	default:
		return glslMix(current, value, weight)
	}
}

func procedureKernel(build func(u soft.Uniforms) evaluator) soft.Setup {
	return func(u soft.Uniforms) soft.Func {
		eval := build(u)
		res := u.Int("u_Resolution")
		mode := BlendMode(u.Int("u_Blend"))
		weight := u.Float("u_Weight")
		return func(inv *soft.Invocation) {
			x, y, _ := inv.GlobalID()
			if x >= res || y >= res {
				return
			}
			uv := mgl32.Vec2{(float32(x) + 0.5) / float32(res), (float32(y) + 0.5) / float32(res)}
			current := inv.ImageLoad(0, x, y)[0]
			inv.ImageStore(0, x, y, mgl32.Vec4{blend(mode, current, eval(uv, current), weight)})
		}
	}
}

type octaves struct {
	count   int
	freq    float32
	persist float32
	lacun   float32
	offset  mgl32.Vec2
	seed    mgl32.Vec2
}

func readOctaves(u soft.Uniforms) octaves {
	off := u.Vec3("u_offset")
	sx, sy := seedOffset(u.Int("u_Seed") + u.Int("u_seed"))
	return octaves{
		count:   max(u.Int("u_octaves"), 1),
		freq:    u.Float("u_frequency"),
		persist: u.Float("u_persistence"),
		lacun:   u.Float("u_lacunarity"),
		offset:  mgl32.Vec2{off[0], off[2]},
		seed:    mgl32.Vec2{sx, sy},
	}
}

// sum accumulates count octaves of noise with geometric amplitude falloff
// and returns the amplitude-normalized result.
func (o octaves) sum(uv mgl32.Vec2, noise func(x, y float32) float32) float32 {
	p := uv.Mul(o.freq).Add(o.offset).Add(o.seed)
	amp, total, norm := float32(1), float32(0), float32(0)
	for i := 0; i < o.count; i++ {
		total += amp * noise(p[0], p[1])
		norm += amp
		amp *= o.persist
		p = p.Mul(o.lacun)
	}
	return total / math32.Max(norm, 1e-6)
}

func fbmSoft(u soft.Uniforms) evaluator {
	o := readOctaves(u)
	return func(uv mgl32.Vec2, _ float32) float32 {
		return math.Clamp(0.5+0.5*o.sum(uv, gradientNoise), 0, 1)
	}
}

func ridgedSoft(u soft.Uniforms) evaluator {
	o := readOctaves(u)
	sharp := u.Float("u_sharpness")
	return func(uv mgl32.Vec2, _ float32) float32 {
		n := o.sum(uv, func(x, y float32) float32 {
			r := 1 - math32.Abs(gradientNoise(x, y))
			return math32.Pow(math.Clamp(r, 0, 1), sharp)
		})
		return math.Clamp(n, 0, 1)
	}
}

func simplexSoft(u soft.Uniforms) evaluator {
	o := readOctaves(u)
	return func(uv mgl32.Vec2, _ float32) float32 {
		return math.Clamp(0.5+0.5*o.sum(uv, simplexNoise), 0, 1)
	}
}

func terraceSoft(u soft.Uniforms) evaluator {
	steps := float32(max(u.Int("u_steps"), 1))
	sharp := u.Float("u_sharpness")
	return func(_ mgl32.Vec2, current float32) float32 {
		t := current * steps
		i := math32.Floor(t)
		f := t - i
		if sharp >= 0.999 {
			if f >= 0.5 {
				f = 1
			} else {
				f = 0
			}
		} else {
			f = math.Clamp((f-0.5*sharp)/(1-sharp), 0, 1)
		}
		return (i + f) / steps
	}
}

func falloffSoft(u soft.Uniforms) evaluator {
	shape := u.Int("u_shape")
	radius := u.Float("u_radius")
	edge := u.Float("u_edge")
	return func(uv mgl32.Vec2, _ float32) float32 {
		dx := math32.Abs(uv[0] - 0.5)
		dy := math32.Abs(uv[1] - 0.5)
		var d float32
		if shape == 0 {
			d = math32.Sqrt(dx*dx + dy*dy)
		} else {
			d = math32.Max(dx, dy)
		}
		return 1 - math.Smoothstep(radius, radius+edge, d)
	}
}

func clearSoft(inv *soft.Invocation) {
	x, y, _ := inv.GlobalID()
	res := inv.Int("u_Resolution")
	if x >= res || y >= res {
		return
	}
	inv.ImageStore(0, x, y, mgl32.Vec4{inv.Float("u_Value")})
}

func finalizeSoft(inv *soft.Invocation) {
	x, y, _ := inv.GlobalID()
	res := inv.Int("u_Resolution")
	if x >= res || y >= res {
		return
	}
	h := inv.ImageLoad(0, x, y)[0]
	inv.ImageStore(0, x, y, mgl32.Vec4{math.Clamp(h, 0, 1)})
}

func mipCopySoft(inv *soft.Invocation) {
	x, y, _ := inv.GlobalID()
	size := inv.Int("u_Size")
	if x >= size || y >= size {
		return
	}
	inv.ImageStore(0, x, y, inv.Fetch(0, x, y, 0))
}

func downsampleSoft(inv *soft.Invocation) {
	x, y, _ := inv.GlobalID()
	size := inv.Int("u_Size")
	if x >= size || y >= size {
		return
	}
	mip := inv.Int("u_SrcMip")
	a := inv.Fetch(0, 2*x, 2*y, mip)[0]
	b := inv.Fetch(0, 2*x+1, 2*y, mip)[0]
	c := inv.Fetch(0, 2*x, 2*y+1, mip)[0]
	d := inv.Fetch(0, 2*x+1, 2*y+1, mip)[0]
	var v float32
	if inv.Int("u_Mode") == 1 {
		v = math32.Max(math32.Max(a, b), math32.Max(c, d))
	} else {
		v = 0.25 * (a + b + c + d)
	}
	inv.ImageStore(0, x, y, mgl32.Vec4{v})
}

func normalAOSoft(u soft.Uniforms) soft.Func {
	res := u.Int("u_Resolution")
	hs := u.Float("u_HeightScale")
	radius := u.Float("u_AORadius")
	samples := u.Int("u_AOSamples")
	strength := u.Float("u_AOStrength")

	return func(inv *soft.Invocation) {
		x, y, _ := inv.GlobalID()
		if x >= res || y >= res {
			return
		}
		h := func(px, py int) float32 { return inv.Fetch(0, px, py, 0)[0] }
		c := h(x, y)
		dx := (h(x+1, y) - h(x-1, y)) * hs * 0.5
		dz := (h(x, y+1) - h(x, y-1)) * hs * 0.5
		n := mgl32.Vec3{-dx, 1, -dz}.Normalize()

		ao := float32(1)
		if samples > 0 {
			var occlusion float32
			for k := 0; k < samples; k++ {
				a := 2 * math32.Pi * float32(k) / float32(samples)
				dir := mgl32.Vec2{math32.Cos(a), math32.Sin(a)}
				var horizon float32
				for s := 1; s <= 3; s++ {
					dist := radius * float32(s) / 3
					qx := x + int(math32.Floor(dir[0]*dist+0.5))
					qy := y + int(math32.Floor(dir[1]*dist+0.5))
					slope := (h(qx, qy) - c) * hs / math32.Max(dist, 1)
					horizon = math32.Max(horizon, math32.Atan(slope)/(0.5*math32.Pi))
				}
				occlusion += horizon
			}
			ao = math.Clamp(1-strength*occlusion/float32(samples), 0, 1)
		}
		inv.ImageStore(0, x, y, mgl32.Vec4{n[0], n[1], n[2], ao})
	}
}

func shadowSoft(u soft.Uniforms) soft.Func {
	res := u.Int("u_Resolution")
	hs := u.Float("u_HeightScale")
	steps := u.Int("u_Steps")
	k := math.Lerp(64, 4, u.Float("u_Softness"))
	maxLod := u.Int("u_MaxLod")
	l := u.Vec3("u_LightDir")
	if l.Len() > 0 {
		l = l.Normalize()
	}
	planar := math32.Sqrt(l[0]*l[0] + l[2]*l[2])

	return func(inv *soft.Invocation) {
		x, y, _ := inv.GlobalID()
		if x >= res || y >= res {
			return
		}
		lit := float32(1)
		switch {
		case l[1] <= 0:
			lit = 0
		case planar > 1e-4:
			dir := mgl32.Vec2{l[0] / planar, l[2] / planar}
			rise := l[1] / planar
			origin := mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}
			h0 := inv.Fetch(0, x, y, 0)[0]*hs + 0.01
			fetch := func(slot int, p mgl32.Vec2, lod int) float32 {
				cell := float32(int(1) << uint(lod))
				return inv.Fetch(slot, int(math32.Floor(p[0]/cell)), int(math32.Floor(p[1]/cell)), lod)[0]
			}
			t := float32(1)
			for i := 0; i < steps && lit > 0; i++ {
				p := origin.Add(dir.Mul(t))
				ray := h0 + rise*t
				lod := clampLod(int(math32.Floor(math32.Log2(math32.Max(t, 1))))-1, maxLod)
				if fetch(1, p, lod)*hs < ray {
					t += float32(int(1) << uint(lod))
					continue
				}
				hp := fetch(0, p, 0) * hs
				if hp >= ray {
					lit = 0
				} else {
					lit = math32.Min(lit, k*(ray-hp)/t)
				}
				t++
			}
		}
		inv.ImageStore(0, x, y, mgl32.Vec4{math.Clamp(lit, 0, 1)})
	}
}

func clampLod(lod, maxLod int) int {
	if lod < 0 {
		return 0
	}
	if lod > maxLod {
		return maxLod
	}
	return lod
}

type ruleUniform struct {
	material  float32
	height    mgl32.Vec2
	slope     mgl32.Vec2
	curvature mgl32.Vec2
}

func materialSoft(u soft.Uniforms) soft.Func {
	res := u.Int("u_Resolution")
	hs := u.Float("u_HeightScale")
	count := min(u.Int("u_RuleCount"), MaxMaterialRules)
	rules := make([]ruleUniform, count)
	for i := range rules {
		rules[i] = ruleUniform{
			material:  float32(u.Int(fmt.Sprintf("u_RuleMaterial[%d]", i))),
			height:    u.Vec2(fmt.Sprintf("u_RuleHeight[%d]", i)),
			slope:     u.Vec2(fmt.Sprintf("u_RuleSlope[%d]", i)),
			curvature: u.Vec2(fmt.Sprintf("u_RuleCurvature[%d]", i)),
		}
	}
	within := func(v float32, r mgl32.Vec2) bool { return v >= r[0] && v <= r[1] }

	return func(inv *soft.Invocation) {
		x, y, _ := inv.GlobalID()
		if x >= res || y >= res {
			return
		}
		h := func(px, py int) float32 { return inv.Fetch(0, px, py, 0)[0] }
		c := h(x, y)
		n := inv.Fetch(1, x, y, 0)
		slope := mgl32.RadToDeg(math32.Acos(math.Clamp(n[1], -1, 1)))
		curvature := (h(x+1, y) + h(x-1, y) + h(x, y+1) + h(x, y-1) - 4*c) * hs

		var material float32
		for _, r := range rules {
			if within(c, r.height) && within(slope, r.slope) && within(curvature, r.curvature) {
				material = r.material
				break
			}
		}
		inv.ImageStore(0, x, y, mgl32.Vec4{material})
	}
}
