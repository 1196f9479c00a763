package editor

import (
	"fmt"
	"os"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
	"github.com/Faultbox/midgard-terrain/internal/engine/ui"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

var blendOptions = []string{"add", "multiply", "max", "min", "replace"}

func (e *Editor) drawMenuBar() {
	if !imgui.BeginMainMenuBar() {
		return
	}
	if imgui.BeginMenu("File") {
		if imgui.MenuItemBoolV("Save Scene", "Ctrl+S", false, true) {
			e.saveScene()
		}
		if imgui.MenuItemBoolV("Reload Scene", "", false, true) {
			e.reloadScene()
		}
		if imgui.MenuItemBoolV("Save Settings", "", false, true) {
			e.saveConfig()
		}
		if imgui.MenuItemBoolV("Screenshot", "F12", false, true) {
			e.screenshot()
		}
		imgui.Separator()
		if imgui.MenuItemBool("Exit") {
			e.Close()
			logger.Sync()
			os.Exit(0)
		}
		imgui.EndMenu()
	}
	if imgui.BeginMenu("View") {
		imgui.Checkbox("Wireframe (F1)", &e.scene.Wireframe)
		imgui.Checkbox("Tile Bounds (F2)", &e.scene.ShowBounds)
		imgui.Checkbox("Level Footprints (F3)", &e.scene.ShowFootprints)
		imgui.EndMenu()
	}
	if imgui.BeginMenu("Maps") {
		if imgui.MenuItemBoolV("Retrace Shadows", "L", false, e.sys.Maps().ShadowsAvailable()) {
			e.sys.RequestShadowUpdate()
		}
		if imgui.MenuItemBoolV("Displace All Tiles", "G", false, true) {
			e.sys.RequestFullGeometryUpdate()
		}
		imgui.EndMenu()
	}
	imgui.EndMainMenuBar()
}

func (e *Editor) drawTerrainPanel() {
	maps := e.sys.Maps()
	if section("Height") {
		e.drawHeight(maps.Height())
	}
	if section("Procedures") {
		e.drawProcedures(maps.Height())
	}
	if section("Normals & AO") {
		e.drawNormal(maps.Normal())
	}
	if section("Shadows") {
		e.drawShadow(maps)
	}
	if section("Sun") {
		e.drawSun()
	}
	if section("Materials") {
		e.drawMaterials(maps.Material())
	}
	if section("Clipmap") {
		e.drawClipmap()
	}
}

// section opens a collapsing header that starts expanded.
func section(label string) bool {
	return imgui.CollapsingHeaderTreeNodeFlagsV(label, imgui.TreeNodeFlagsDefaultOpen)
}

func (e *Editor) drawHeight(h *mapgen.HeightStage) {
	hs := h.Settings()
	changed := imgui.SliderFloatV("Horizontal Scale", &hs.ScaleXZ, 64, 8192, "%.0f", imgui.SliderFlagsLogarithmic)
	if imgui.SliderFloatV("Vertical Scale", &hs.ScaleY, 1, 1024, "%.0f", imgui.SliderFlagsLogarithmic) {
		changed = true
	}
	seed := int32(hs.Seed)
	if imgui.InputInt("Seed", &seed) {
		hs.Seed = int(seed)
		changed = true
	}
	if changed {
		h.SetSettings(hs)
	}
}

func (e *Editor) drawProcedures(h *mapgen.HeightStage) {
	procs := h.Procedures()
	var action procAction
	for i, proc := range procs {
		id := proc.ID.String()
		imgui.PushIDStr(id)
		open := imgui.TreeNodeExStrV(fmt.Sprintf("%d. %s", i+1, proc.Template), imgui.TreeNodeFlagsDefaultOpen)

		imgui.SameLine()
		if imgui.SmallButton("^") {
			action = procAction{kind: actionMove, id: proc.ID, to: i - 1}
		}
		imgui.SameLine()
		if imgui.SmallButton("v") {
			action = procAction{kind: actionMove, id: proc.ID, to: i + 1}
		}
		imgui.SameLine()
		if imgui.SmallButton("x") {
			action = procAction{kind: actionRemove, id: proc.ID}
		}

		if open {
			e.drawProcedure(h, proc, id)
			imgui.TreePop()
		}
		imgui.PopID()
	}

	imgui.Spacing()
	names := mapgen.TemplateNames()
	if len(names) > 0 {
		e.addTemplate = min(e.addTemplate, len(names)-1)
		if i, ok := ui.EnumSlider("##template", e.addTemplate, names); ok {
			e.addTemplate = i
		}
		imgui.SameLine()
		if imgui.Button("Add") {
			action = procAction{kind: actionAdd, template: names[e.addTemplate]}
		}
	}

	// Applied after the loop so the list is not reshaped while iterating.
	if err := action.apply(h); err != nil {
		e.log.Warn("editing procedures", zap.Error(err))
		e.status.set(time.Now(), err.Error(), statusDuration)
	}
}

func (e *Editor) drawProcedure(h *mapgen.HeightStage, proc *mapgen.Procedure, id string) {
	enabled := proc.Enabled
	if imgui.Checkbox("Enabled##"+id, &enabled) {
		e.report(h.SetEnabled(proc.ID, enabled))
	}

	mode, weight := int(proc.Blend), proc.Weight
	blendChanged := false
	if i, ok := ui.EnumSlider("Blend##"+id, mode, blendOptions); ok {
		mode, blendChanged = i, true
	}
	if imgui.SliderFloatV("Weight##"+id, &weight, 0, 2, "%.2f", imgui.SliderFlagsNone) {
		blendChanged = true
	}
	if blendChanged {
		e.report(h.SetBlend(proc.ID, mapgen.BlendMode(mode), weight))
	}

	for _, prm := range proc.Params {
		if v, ok := ui.EditValue(prm.Name, id, prm.Value); ok {
			e.report(h.SetParam(proc.ID, prm.Name, v))
		}
	}
}

func (e *Editor) drawNormal(n *mapgen.NormalStage) {
	ns := n.Settings()
	samples := int32(ns.AOSamples)
	changed := imgui.SliderFloatV("AO Radius", &ns.AORadius, 0, 64, "%.1f texels", imgui.SliderFlagsNone)
	if imgui.SliderIntV("AO Samples", &samples, 0, 32, "%d", imgui.SliderFlagsNone) {
		ns.AOSamples = int(samples)
		changed = true
	}
	if imgui.SliderFloatV("AO Strength", &ns.AOStrength, 0, 4, "%.2f", imgui.SliderFlagsNone) {
		changed = true
	}
	if changed {
		n.SetSettings(ns)
	}
}

func (e *Editor) drawShadow(p *mapgen.Pipeline) {
	if !p.ShadowsAvailable() {
		imgui.TextDisabled(fmt.Sprintf("Unavailable at %dx%d", p.Resolution(), p.Resolution()))
		return
	}
	s := p.Shadow()
	ss := s.Settings()
	changed := imgui.Checkbox("Enabled##shadow", &ss.Enabled)
	if i, ok := ui.EnumSlider("Quality", int(ss.Quality), []string{"low", "medium", "high"}); ok {
		ss.Quality = mapgen.ShadowQuality(i)
		changed = true
	}
	if imgui.SliderFloatV("Softness", &ss.Softness, 0, 1, "%.2f", imgui.SliderFlagsNone) {
		changed = true
	}
	if changed {
		s.SetSettings(ss)
	}
	if imgui.Button("Retrace") {
		e.sys.RequestShadowUpdate()
	}
}

func (e *Editor) drawSun() {
	az, el := e.sun.Azimuth, e.sun.Elevation
	changed := imgui.SliderFloatV("Azimuth", &az, 0, 359, "%.0f deg", imgui.SliderFlagsNone)
	if imgui.SliderFloatV("Elevation", &el, 0, 90, "%.0f deg", imgui.SliderFlagsNone) {
		changed = true
	}
	if changed && e.sun.Set(az, el) {
		e.sys.SetLightDirection(e.sun.Direction())
	}
	imgui.SliderFloatV("Ambient", &e.sun.Ambient, 0, 1, "%.2f", imgui.SliderFlagsNone)
}

func (e *Editor) drawMaterials(m *mapgen.MaterialStage) {
	ms := m.Settings()
	changed := false
	remove := -1
	for i := range ms.Rules {
		r := &ms.Rules[i]
		id := fmt.Sprintf("rule%d", i)
		ui.ColoredText(mapgen.DefaultPalette[max(0, min(r.Material, mapgen.MaxMaterials-1))], fmt.Sprintf("Rule %d", i+1))
		imgui.SameLine()
		if imgui.SmallButton("x##" + id) {
			remove = i
		}

		mat := int32(r.Material)
		if imgui.SliderIntV("Material##"+id, &mat, 0, mapgen.MaxMaterials-1, "%d", imgui.SliderFlagsNone) {
			r.Material = int(mat)
			changed = true
		}
		var ok bool
		if r.Height, ok = ui.Range("Height", id, r.Height, 0, 1); ok {
			changed = true
		}
		if r.Slope, ok = ui.Range("Slope", id, r.Slope, 0, 90); ok {
			changed = true
		}
		if r.Curvature, ok = ui.Range("Curvature", id, r.Curvature, -1, 1); ok {
			changed = true
		}
		imgui.Separator()
	}
	if remove >= 0 {
		ms.Rules = append(ms.Rules[:remove], ms.Rules[remove+1:]...)
		changed = true
	}
	if len(ms.Rules) < mapgen.MaxMaterialRules && imgui.Button("Add Rule") {
		ms.Rules = append(ms.Rules, mapgen.DefaultMaterialRule())
		changed = true
	}
	if changed {
		m.SetSettings(ms)
	}
}

func (e *Editor) drawClipmap() {
	d := &e.clipmapDraft
	levels, subdiv := int32(d.Levels), int32(d.Subdivisions)
	if imgui.SliderIntV("Levels", &levels, 0, 12, "%d", imgui.SliderFlagsNone) {
		d.Levels = int(levels)
	}
	if imgui.SliderIntV("Subdivisions", &subdiv, 1, 128, "%d", imgui.SliderFlagsNone) {
		d.Subdivisions = int(subdiv)
	}
	imgui.SliderFloatV("Base Side", &d.BaseSideLength, 0.5, 64, "%.1f", imgui.SliderFlagsNone)

	current := e.sys.Clipmap().Settings()
	if *d != current {
		if imgui.Button("Apply") {
			if err := e.sys.SetClipmapSettings(*d); err != nil {
				e.report(err)
			} else {
				e.log.Info("clipmap rebuilt", zap.Int("tiles", e.sys.Clipmap().TileCount()))
			}
		}
		imgui.SameLine()
		if imgui.Button("Revert") {
			*d = current
		}
	}

	cm := e.sys.Clipmap()
	imgui.TextDisabled(fmt.Sprintf("%d tiles (%d grids, %d fills), %d vertices",
		cm.TileCount(), cm.GridCount(), cm.FillCount(), cm.VertexCount()))
}

// report logs and surfaces a failed edit.
func (e *Editor) report(err error) {
	if err == nil {
		return
	}
	e.log.Warn("edit rejected", zap.Error(err))
	e.status.set(time.Now(), err.Error(), statusDuration)
}

type actionKind uint8

const (
	actionNone actionKind = iota
	actionAdd
	actionRemove
	actionMove
)

// procAction is a structural edit of the procedure list queued while the
// list is drawn.
type procAction struct {
	kind     actionKind
	id       uuid.UUID
	to       int
	template string
}

func (a procAction) apply(h *mapgen.HeightStage) error {
	switch a.kind {
	case actionAdd:
		_, err := h.Add(a.template)
		return err
	case actionRemove:
		if !h.Remove(a.id) {
			return fmt.Errorf("procedure %s not found", a.id)
		}
	case actionMove:
		// Moving past either end is a no-op, not an error.
		if a.to < 0 || a.to >= len(h.Procedures()) {
			return nil
		}
		return h.Move(a.id, a.to)
	}
	return nil
}
