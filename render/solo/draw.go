package solo

import (
	"math"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
)

// z order within the scene
const (
	zBackground = iota
	zOverlay
	zCaption
)

const captionSize = 14.0

var stateColors = map[State]render.RGB{
	StateWorking:  {R: 38, G: 44, B: 66},
	StateIdle:     {R: 52, G: 46, B: 40},
	StateSleeping: {R: 14, G: 16, B: 30},
}

// Render emits the current frame
func (r *Renderer) Render(dl *render.DrawList) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dl.Reset(r.width, r.height, render.RgbBackground)
	if r.life.Ended() {
		return
	}
	t := r.fade()
	if r.fading && r.prev != "" {
		r.drawBackground(dl, r.prev, 1)
		r.drawOverlays(dl, r.prev, 1-t)
	}
	r.drawBackground(dl, r.state, t)
	r.drawOverlays(dl, r.state, t)
	r.drawCaption(dl)
}

func (r *Renderer) sceneRect() vmath.Rect {
	return r.xf.Rect(vmath.Rect{W: r.scene.Width, H: r.scene.Height})
}

func (r *Renderer) drawBackground(dl *render.DrawList, s State, alpha float64) {
	tag := "bg:" + string(s)
	if img, ok := r.backgrounds[s]; ok {
		dl.Image(zBackground, r.sceneRect(), img, alpha, tag)
		return
	}
	c := stateColors[s]
	if rel, ok := r.scene.Backgrounds[string(s)]; ok && !theme.IsImagePath(rel) {
		c = render.ParseColor(rel, c)
	}
	dl.FillRect(zBackground, r.sceneRect(), c, alpha, tag)
}

func (r *Renderer) drawCaption(dl *render.DrawList) {
	if r.agent == nil {
		return
	}
	id := r.agent.ID
	hit := r.hitRect()
	if r.selected == id {
		dl.StrokeRect(zCaption, hit, render.RgbSelection, 0.9, 2, id)
	}
	status := render.StatusColor(r.manifest, r.agent.Status)
	pos := vmath.V2(hit.X+hit.W/2, hit.Y+hit.H-captionSize)
	dl.Text(zCaption, pos, r.agent.DisplayName(), render.RgbLabel, captionSize, render.AlignCenter, id)
	dl.FillCircle(zCaption, vmath.V2(pos.X, pos.Y+captionSize), 4, status, 1, id)
}

// ===== OVERLAYS =====

var defaultPeriods = map[string]float64{
	"thought-bubble": 3,
	"sleep-z":        2.4,
	"music-notes":    2,
	"led":            1,
	"screen-glow":    4,
	"light-rays":     6,
}

var defaultOverlayColors = map[string]render.RGB{
	"thought-bubble": render.RGBWhite,
	"sleep-z":        {R: 186, G: 200, B: 255},
	"music-notes":    {R: 250, G: 204, B: 21},
	"led":            render.RgbStatusWorking,
	"screen-glow":    {R: 96, G: 165, B: 250},
	"light-rays":     {R: 255, G: 241, B: 196},
}

// cycle is the overlay's position in its own loop, phase-shifted per index
func cycle(elapsed, period float64, index int) float64 {
	v := elapsed/period + float64(index)*0.37
	return v - math.Floor(v)
}

// drawOverlays renders the state's mood widgets at alpha, unknown types are ignored
func (r *Renderer) drawOverlays(dl *render.DrawList, s State, alpha float64) {
	if alpha <= 0 {
		return
	}
	secs := r.elapsed.Seconds()
	for i, o := range r.scene.Effects[string(s)] {
		period := o.Period
		if period <= 0 {
			period = defaultPeriods[o.Type]
		}
		if period <= 0 {
			period = 2
		}
		k := cycle(secs, period, i)
		rect := r.percentRect(o.Rect)
		c := render.ParseColor(o.Color, defaultOverlayColors[o.Type])
		tag := "overlay:" + o.Type

		switch o.Type {
		case "thought-bubble":
			drawThought(dl, rect, c, alpha, k, tag)
		case "sleep-z":
			drawRising(dl, rect, "z", c, alpha, k, 3, tag)
		case "music-notes":
			drawRising(dl, rect, "♪", c, alpha, k, 2, tag)
		case "led":
			on := 0.25
			if k < 0.5 {
				on = 1
			}
			dl.FillCircle(zOverlay, rect.Center(), math.Max(2, math.Min(rect.W, rect.H)/2), c, alpha*on, tag)
		case "screen-glow":
			pulse := 0.18 + 0.1*math.Sin(k*2*math.Pi)
			dl.Push(render.Cmd{Kind: render.KindRect, Z: zOverlay, Rect: rect, Color: c, Alpha: alpha * pulse, Blend: render.BlendAdd, Tag: tag})
		case "light-rays":
			drawRays(dl, rect, c, alpha, k, tag)
		}
	}
}

func drawThought(dl *render.DrawList, rect vmath.Rect, c render.RGB, alpha, k float64, tag string) {
	bob := math.Sin(k*2*math.Pi) * rect.H * 0.04
	// trail of small puffs toward the bubble
	for i := 0; i < 3; i++ {
		f := float64(i+1) / 4
		p := vmath.V2(rect.X+rect.W*f*0.4, rect.Y+rect.H*(1-f*0.5)+bob)
		dl.FillCircle(zOverlay, p, rect.H*0.04*float64(i+1), c, alpha*0.9, tag)
	}
	center := vmath.V2(rect.X+rect.W*0.65, rect.Y+rect.H*0.35+bob)
	rad := math.Min(rect.W, rect.H) * 0.3
	dl.FillCircle(zOverlay, center, rad, c, alpha*0.95, tag)
	dots := int(k*3) + 1
	text := "..."[:dots]
	dl.Push(render.Cmd{Kind: render.KindText, Z: zOverlay, Center: center, Text: text, Color: render.RGBBlack, Alpha: alpha, Size: rad, Tag: tag})
}

// drawRising floats n glyphs up and across the rect, fading as they climb
func drawRising(dl *render.DrawList, rect vmath.Rect, glyph string, c render.RGB, alpha, k float64, n int, tag string) {
	for i := 0; i < n; i++ {
		f := k + float64(i)/float64(n)
		f -= math.Floor(f)
		sway := math.Sin(f*3*math.Pi) * rect.W * 0.08
		p := vmath.V2(rect.X+rect.W*(0.2+0.6*f)+sway, rect.Y+rect.H*(1-f))
		size := rect.H * (0.15 + 0.2*f)
		dl.Push(render.Cmd{Kind: render.KindText, Z: zOverlay, Center: p, Text: glyph, Color: c, Alpha: alpha * (1 - f), Size: size, Tag: tag})
	}
}

func drawRays(dl *render.DrawList, rect vmath.Rect, c render.RGB, alpha, k float64, tag string) {
	sway := math.Sin(k*2*math.Pi) * rect.W * 0.05
	top := rect.Y
	for i := 0; i < 3; i++ {
		x := rect.X + rect.W*(0.2+0.3*float64(i))
		spread := rect.W * 0.12
		pts := []vmath.Vec2{
			{X: x - spread*0.2, Y: top},
			{X: x + spread*0.2, Y: top},
			{X: x + spread + sway, Y: rect.Y + rect.H},
			{X: x - spread + sway, Y: rect.Y + rect.H},
		}
		dl.Polygon(zOverlay, pts, c, alpha*0.12, tag)
	}
}
