package mapgen

import (
	"embed"
	"strings"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Kernel names registered by this package.
const (
	kernelClear      = "height_clear"
	kernelFinalize   = "height_finalize"
	kernelMipCopy    = "mip_copy"
	kernelDownsample = "mip_downsample"
	kernelNormalAO   = "normal_ao"
	kernelShadow     = "shadow_trace"
	kernelMaterial   = "material_select"
)

//go:embed shaders
var shaderFS embed.FS

func shaderFile(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		panic("mapgen: missing embedded shader " + name)
	}
	return string(b)
}

func compose(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(shaderFile(p))
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	for _, t := range []struct{ kernel, body string }{
		{"proc_fbm", "fbm.glsl"},
		{"proc_ridged", "ridged.glsl"},
		{"proc_simplex", "simplex.glsl"},
		{"proc_terrace", "terrace.glsl"},
		{"proc_falloff", "falloff.glsl"},
	} {
		gpu.RegisterSource(t.kernel, compose("header.glsl", "noise.glsl", "procedure.glsl", t.body))
	}

	for kernel, file := range map[string]string{
		kernelClear:      "clear.comp",
		kernelFinalize:   "finalize.comp",
		kernelMipCopy:    "mip_copy.comp",
		kernelDownsample: "mip_downsample.comp",
		kernelNormalAO:   "normal_ao.comp",
		kernelShadow:     "shadow.comp",
		kernelMaterial:   "material.comp",
	} {
		gpu.RegisterSource(kernel, compose("header.glsl", file))
	}
}
