package iso

import (
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
)

const (
	zoneAlpha  = 0.25
	lineAlpha  = 0.7
	labelSize  = 12.0
	labelLift  = 6.0 // pixels between head and name sprite
	zoneHeight = 0.01
)

// Render emits the current frame
func (r *Renderer) Render(dl *render.DrawList) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dl.Reset(r.width, r.height, render.RgbBackground)
	if r.life.Ended() {
		return
	}
	r.drawGround(dl)
	r.drawZones(dl)
	r.drawSelection(dl)
	r.drawLines(dl)
	r.drawMeshes(dl)
	r.drawLabels(dl)
}

func (r *Renderer) polygon(pts []vmath.Vec3F) []vmath.Vec2 {
	out := make([]vmath.Vec2, len(pts))
	for i, p := range pts {
		out[i] = r.cam.project(p)
	}
	return out
}

func (r *Renderer) drawGround(dl *render.DrawList) {
	ground := render.RgbGround
	if r.manifest != nil && !theme.IsImagePath(r.manifest.Canvas.Background) {
		ground = render.ParseColor(r.manifest.Canvas.Background, render.RgbGround)
	}
	up := vmath.Vec3F{Y: 1}
	dl.Polygon(r.layers.Z(render.LayerBackground), r.polygon(r.floorCorners()), r.light.shade(ground, up), 1, "ground")
}

func (r *Renderer) drawZones(dl *render.DrawList) {
	if !r.themed() {
		return
	}
	z := r.layers.Z(render.LayerZones)
	labelZ := r.layers.Z(render.LayerOverlay)
	up := vmath.Vec3F{Y: 1}
	for _, zone := range r.manifest.Zones {
		b := zone.Bounds
		corners := []vmath.Vec3F{
			r.toWorld(b.X, b.Y, zoneHeight),
			r.toWorld(b.X+b.Width, b.Y, zoneHeight),
			r.toWorld(b.X+b.Width, b.Y+b.Height, zoneHeight),
			r.toWorld(b.X, b.Y+b.Height, zoneHeight),
		}
		c := render.ZoneColor(zone)
		dl.Polygon(z, r.polygon(corners), r.light.shade(c, up), zoneAlpha, zone.ID)
		// labels face the viewer regardless of camera
		center := r.cam.project(r.toWorld(b.X+b.Width/2, b.Y+b.Height/2, zoneHeight))
		dl.Text(labelZ, center, zone.Label(), c.Lerp(render.RgbLabel, 0.5), labelSize, render.AlignCenter, zone.ID)
	}
}

func (r *Renderer) drawSelection(dl *render.DrawList) {
	tr, ok := r.tracks.Get(r.selected)
	if !ok {
		return
	}
	p := r.cam.project(r.toWorld(tr.Pos.X, tr.Pos.Y, 0))
	rad := r.cam.scale * bodyRadius * 1.6
	z := r.layers.Z(render.LayerLines)
	dl.Glow(z, p, rad, render.RgbSelection, 0.35, r.selected)
	dl.StrokeCircle(z, p, rad, render.RgbSelection, 0.9, 2, r.selected)
}

func (r *Renderer) drawLines(dl *render.DrawList) {
	z := r.layers.Z(render.LayerLines)
	for _, p := range agent.CollaborationPairs(r.agents) {
		a, okA := r.tracks.Get(p.A)
		b, okB := r.tracks.Get(p.B)
		if !okA || !okB {
			continue
		}
		pa := r.cam.project(r.toWorld(a.Pos.X, a.Pos.Y, botHeight/2))
		pb := r.cam.project(r.toWorld(b.Pos.X, b.Pos.Y, botHeight/2))
		dl.Line(z, pa, pb, render.RgbLine, lineAlpha, 2, p.A+"|"+p.B)
	}
}

// drawMeshes paints static and agent meshes back to front on one layer
func (r *Renderer) drawMeshes(dl *render.DrawList) {
	z := r.layers.Z(render.LayerCharacters)
	var ds []drawable
	for _, n := range r.statics {
		ds = append(ds, drawable{depth: r.cam.depth(n.box.Center()), n: n})
	}
	for _, n := range r.agentMeshes() {
		ds = append(ds, drawable{depth: r.cam.depth(n.box.Center()), n: n, tag: n.owner()})
	}
	sortBackToFront(ds)

	toCamera := vmath.V3FScale(r.cam.forward, -1)
	for _, d := range ds {
		n := d.n
		if !n.mesh() {
			continue
		}
		if n.sphere > 0 {
			center := r.cam.project(n.box.Center())
			dl.FillCircle(z, center, n.sphere*r.cam.scale, r.light.shade(n.color, toCamera), 1, d.tag)
			continue
		}
		for _, f := range boxFaces(n.box, r.cam.forward) {
			dl.Polygon(z, r.polygon(f.corners[:]), r.light.shade(n.color, f.normal), 1, d.tag)
		}
	}
}

// drawLabels draws name sprites above each agent, always facing the viewer
func (r *Renderer) drawLabels(dl *render.DrawList) {
	z := r.layers.Z(render.LayerOverlay)
	for _, id := range r.tracks.IDs() {
		v := r.visuals[id]
		tr, _ := r.tracks.Get(id)
		if v == nil || tr == nil || v.label == nil {
			continue
		}
		top := 2 * bodyRadius
		if v.model != nil {
			top = botHeight
		}
		head := r.cam.project(r.toWorld(tr.Pos.X, tr.Pos.Y, top+4*statusRadius))
		b := v.label.Bounds()
		w, h := float64(b.Dx()), float64(b.Dy())
		dl.Image(z, vmath.Rect{X: head.X - w/2, Y: head.Y - h - labelLift, W: w, H: h}, v.label, 1, id)
	}
}
