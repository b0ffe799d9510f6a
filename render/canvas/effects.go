package canvas

import (
	"math"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
)

const (
	defaultDustCount = 24
	dustSpeed        = 6.0 // stage units per second
)

// drawEffects renders manifest effects, unknown types are ignored
func (r *Renderer) drawEffects(dl *render.DrawList) {
	for _, e := range r.manifest.Effects {
		layer := e.Layer
		if layer == "" {
			layer = render.LayerOverlay
		}
		z := r.layers.Z(layer)
		c := render.ParseColor(e.Color, render.RGBWhite)
		intensity := e.Intensity
		if intensity <= 0 {
			intensity = 0.3
		}

		switch e.Type {
		case "tint":
			dl.FillRect(z, r.stageRect(), c, intensity, e.ID)
		case "spotlight":
			radius := e.Radius
			if radius <= 0 {
				radius = 120
			}
			dl.Glow(z, r.xf.Point(vmath.V2(e.X, e.Y)), r.xf.Len(radius), c, intensity, e.ID)
		case "dust":
			r.drawDust(dl, z, e, c, intensity)
		}
	}
}

// drawDust drifts particles upward, wrapping within the canvas
func (r *Renderer) drawDust(dl *render.DrawList, z int, e theme.Effect, c render.RGB, intensity float64) {
	n := e.Count
	if n <= 0 {
		n = defaultDustCount
	}
	w, h := r.manifest.Canvas.Width, r.manifest.Canvas.Height
	t := r.elapsed.Seconds()
	for i := 0; i < n; i++ {
		x := noise(float64(i)*1.7) * w
		y := noise(float64(i)*3.1+11) * h
		speed := dustSpeed * (0.5 + noise(float64(i)*0.3+5))
		y = math.Mod(y-t*speed, h)
		if y < 0 {
			y += h
		}
		x += math.Sin(t*0.5+float64(i)) * 4
		twinkle := 0.5 + 0.5*math.Sin(t*1.3+float64(i)*2.1)
		dl.FillCircle(z, r.xf.Point(vmath.V2(x, y)), r.xf.Len(1.5), c, intensity*twinkle, e.ID)
	}
}

// noise is a deterministic hash in [0,1)
func noise(x float64) float64 {
	v := math.Sin(x*12.9898) * 43758.5453
	return v - math.Floor(v)
}
