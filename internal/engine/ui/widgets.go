package ui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
)

// Vec3Range bounds the sliders of unbounded vector parameters.
const Vec3Range = 100

// EditValue draws the widget for one procedure parameter and returns the
// edited value and whether it changed. id keeps labels unique across
// procedures.
func EditValue(name, id string, v mapgen.Value) (mapgen.Value, bool) {
	label := name + "##" + id
	switch x := v.(type) {
	case mapgen.IntValue:
		i := int32(x.V)
		if imgui.SliderIntV(label, &i, int32(x.Min), int32(x.Max), "%d", imgui.SliderFlagsNone) {
			x.V = int(i)
			return x, true
		}
	case mapgen.FloatValue:
		f := x.V
		if imgui.SliderFloatV(label, &f, x.Min, x.Max, "%.3f", imgui.SliderFlagsNone) {
			x.V = f
			return x, true
		}
	case mapgen.Vec3Value:
		changed := false
		for i, axis := range []string{"x", "y", "z"} {
			c := x.V[i]
			if imgui.SliderFloatV(name+"."+axis+"##"+id, &c, -Vec3Range, Vec3Range, "%.2f", imgui.SliderFlagsNone) {
				x.V[i] = c
				changed = true
			}
		}
		return x, changed
	case mapgen.EnumValue:
		if i, ok := EnumSlider(label, x.Index, x.Options); ok {
			x.Index = i
			return x, true
		}
	}
	return v, false
}

// EnumSlider picks one of options with a slider showing the option name.
func EnumSlider(label string, index int, options []string) (int, bool) {
	if len(options) == 0 {
		return index, false
	}
	i := int32(index)
	if imgui.SliderIntV(label, &i, 0, int32(len(options)-1), OptionLabel(options, index), imgui.SliderFlagsNone) {
		return int(i), true
	}
	return index, false
}

// OptionLabel returns the option at index, escaped for use as an ImGui
// format string.
func OptionLabel(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return "?"
	}
	out := make([]rune, 0, len(options[index]))
	for _, r := range options[index] {
		if r == '%' {
			out = append(out, '%')
		}
		out = append(out, r)
	}
	return string(out)
}

// Range edits a [lo, hi] pair as two sliders and keeps lo <= hi.
func Range(name, id string, r [2]float32, min, max float32) ([2]float32, bool) {
	lo, hi := r[0], r[1]
	changed := imgui.SliderFloatV(name+" min##"+id, &lo, min, max, "%.2f", imgui.SliderFlagsNone)
	if imgui.SliderFloatV(name+" max##"+id, &hi, min, max, "%.2f", imgui.SliderFlagsNone) {
		changed = true
	}
	return OrderedRange(lo, hi), changed
}

// OrderedRange returns the pair sorted ascending.
func OrderedRange(lo, hi float32) [2]float32 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return [2]float32{lo, hi}
}

// ColoredText draws text in an RGB color.
func ColoredText(c mgl32.Vec3, text string) {
	imgui.TextColored(imgui.NewVec4(c[0], c[1], c[2], 1), text)
}

// FitViewport scales an image of the given aspect to fit inside the
// available area.
func FitViewport(availW, availH, aspect float32) (w, h float32) {
	if availW <= 0 || availH <= 0 || aspect <= 0 {
		return 0, 0
	}
	w, h = availW, availW/aspect
	if h > availH {
		h = availH
		w = h * aspect
	}
	return w, h
}
