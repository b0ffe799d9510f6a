package canvas

import (
	"image"
	"math"
	"strings"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/seat"
	"github.com/lixenwraith/vi-office/vmath"
)

const (
	zoneFillAlpha   = 0.12
	zoneStrokeAlpha = 0.45
	lineAlpha       = 0.6
	labelSize       = 12.0
)

// Render emits the current frame
func (r *Renderer) Render(dl *render.DrawList) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dl.Reset(r.width, r.height, render.RgbBackground)
	if r.life.Ended() {
		return
	}
	if r.themed() {
		r.drawBackground(dl)
		r.drawZones(dl)
		r.drawEffects(dl)
	} else {
		r.drawBands(dl)
	}
	r.drawLines(dl)
	r.drawAgents(dl)
}

func (r *Renderer) stageRect() vmath.Rect {
	c := r.manifest.Canvas
	return r.xf.Rect(vmath.Rect{W: c.Width, H: c.Height})
}

// hasImagery reports whether any backdrop image loaded
func (r *Renderer) hasImagery() bool {
	return r.background != nil || len(r.layerImages) > 0
}

func (r *Renderer) drawBackground(dl *render.DrawList) {
	z := r.layers.Z(render.LayerBackground)
	stage := r.stageRect()
	bg := render.ParseColor(r.manifest.Canvas.Background, render.RgbBackground)
	dl.Background = bg
	if r.background != nil {
		dl.Image(z, stage, r.background, 1, "")
	} else {
		dl.FillRect(z, stage, bg, 1, "")
	}
	for _, l := range r.layers.Layers() {
		if img, ok := r.layerImages[l.ID]; ok {
			dl.Image(r.layers.Z(l.ID), stage, img, 1, "")
		}
	}
}

func (r *Renderer) drawZones(dl *render.DrawList) {
	z := r.layers.Z(render.LayerZones)
	labelZ := r.layers.Z(render.LayerOverlay)
	fills := !r.hasImagery()
	for _, zone := range r.manifest.Zones {
		b := zone.Bounds
		rect := r.xf.Rect(vmath.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height})
		c := render.ZoneColor(zone)
		if fills {
			dl.FillRect(z, rect, c, zoneFillAlpha, zone.ID)
			dl.StrokeRect(z, rect, c, zoneStrokeAlpha, 2, zone.ID)
		}
		dl.Text(labelZ, vmath.V2(rect.X+8, rect.Y+14), zone.Label(), c.Lerp(render.RgbLabel, 0.5), labelSize, render.AlignLeft, zone.ID)
	}
}

func (r *Renderer) drawBands(dl *render.DrawList) {
	z := r.layers.Z(render.LayerZones)
	for _, b := range seat.Bands(r.width, r.height) {
		c := render.RgbZoneCustom
		switch b.Zone {
		case "work":
			c = render.RgbZoneWork
		case "meeting":
			c = render.RgbZoneMeeting
		case "lounge":
			c = render.RgbZoneLounge
		}
		dl.FillRect(z, b.Rect, c, zoneFillAlpha, "band:"+b.Name)
		dl.Line(z, vmath.V2(b.Rect.X, b.Rect.Y), vmath.V2(b.Rect.X+b.Rect.W, b.Rect.Y), c, zoneStrokeAlpha, 1, "band:"+b.Name)
		dl.Text(z, vmath.V2(b.Rect.X+8, b.Rect.Y+14), strings.ToUpper(b.Name), c, labelSize, render.AlignLeft, "band:"+b.Name)
	}
}

// drawLines connects collaborating pairs once each, from interpolated positions
func (r *Renderer) drawLines(dl *render.DrawList) {
	z := r.layers.Z(render.LayerLines)
	for _, p := range agent.CollaborationPairs(r.agents) {
		a, okA := r.tracks.Get(p.A)
		b, okB := r.tracks.Get(p.B)
		if !okA || !okB {
			continue
		}
		dl.Line(z, r.xf.Point(a.Pos), r.xf.Point(b.Pos), render.RgbLine, lineAlpha, 2, p.A+"|"+p.B)
	}
}

func (r *Renderer) drawAgents(dl *render.DrawList) {
	z := r.layers.Z(render.LayerCharacters)
	rad := r.radius()
	secs := r.elapsed.Seconds()

	for _, id := range r.drawOrder() {
		v := r.visuals[id]
		tr, _ := r.tracks.Get(id)
		if v == nil || tr == nil {
			continue
		}
		a := v.agent
		p := r.xf.Point(tr.Pos)
		statusColor := render.StatusColor(r.manifest, a.Status)

		if id == r.selected {
			dl.Glow(z, p, rad*1.6, render.RgbSelection, 0.35, id)
		}
		dl.StrokeCircle(z, p, rad+3, statusColor, 1, 3, id)

		if frame := r.spriteFrame(v); frame != nil {
			b := frame.Bounds()
			scale := 1.0
			if s := r.manifest.Characters.Scale; s > 0 {
				scale = s
			}
			w, h := r.xf.Len(float64(b.Dx())*scale), r.xf.Len(float64(b.Dy())*scale)
			dl.Image(z, vmath.Rect{X: p.X - w/2, Y: p.Y - h/2, W: w, H: h}, frame, 1, id)
		} else {
			dl.FillCircle(z, p, rad, render.AgentColor(a, r.manifest), 1, id)
			dl.Text(z, p, a.DisplayEmoji(), render.RGBWhite, rad, render.AlignCenter, id)
		}

		label := a.DisplayName()
		dl.Text(z, vmath.V2(p.X, p.Y+rad+labelSize), label, render.RgbLabel, labelSize, render.AlignCenter, id)
		dl.Text(z, vmath.V2(p.X, p.Y+rad+2*labelSize+2), string(a.Status), statusColor, labelSize*0.85, render.AlignCenter, id)

		switch a.Status {
		case agent.StatusBlocked:
			badge := vmath.V2(p.X+rad*0.8, p.Y-rad*0.8)
			dl.FillCircle(z, badge, 7, render.RgbWarning, 1, id)
			dl.Text(z, badge, "!", render.RGBBlack, 10, render.AlignCenter, id)
		case agent.StatusWorking:
			// three dots bobbing above the head
			for i := 0; i < 3; i++ {
				bob := math.Sin((secs+v.phase)*2*math.Pi+float64(i)*0.8) * 2
				dot := vmath.V2(p.X+float64(i-1)*6, p.Y-rad-8+bob)
				dl.FillCircle(z, dot, 2, statusColor, 0.9, id)
			}
		}
	}
}

func (r *Renderer) spriteFrame(v *agentVisual) image.Image {
	if v.anim == nil {
		return nil
	}
	return v.anim.Frame()
}
