package iso

import (
	"math"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
)

var (
	defaultCameraPos = vmath.Vec3F{X: 20, Y: 20, Z: 20}
	worldUp          = vmath.Vec3F{Y: 1}
)

// camera is an orthographic view with an orthonormal basis
type camera struct {
	pos     vmath.Vec3F
	target  vmath.Vec3F
	forward vmath.Vec3F
	right   vmath.Vec3F
	up      vmath.Vec3F
	zoom    float64
	scale   float64 // pixels per world unit
	cx, cy  float64 // viewport center
}

func newCamera(c *theme.Camera) *camera {
	cam := &camera{pos: defaultCameraPos, zoom: 1}
	if c != nil {
		p := vmath.Vec3F{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
		t := vmath.Vec3F{X: c.Target[0], Y: c.Target[1], Z: c.Target[2]}
		if vmath.V3FMagSq(vmath.V3FSub(t, p)) > vmath.Epsilon {
			cam.pos, cam.target = p, t
		}
		if c.Zoom > 0 {
			cam.zoom = c.Zoom
		}
	}
	cam.forward = vmath.V3FNormalize(vmath.V3FSub(cam.target, cam.pos))
	right := vmath.V3FCross(cam.forward, worldUp)
	if vmath.V3FMagSq(right) < vmath.Epsilon {
		// looking straight down
		right = vmath.Vec3F{X: 1}
	}
	cam.right = vmath.V3FNormalize(right)
	cam.up = vmath.V3FCross(cam.right, cam.forward)
	return cam
}

// fit sizes the projection so the given world corners fill the viewport
func (c *camera) fit(corners []vmath.Vec3F, width, height float64) {
	c.cx, c.cy = width/2, height/2
	var ex, ey float64
	for _, p := range corners {
		d := vmath.V3FSub(p, c.target)
		ex = math.Max(ex, math.Abs(vmath.V3FDot(d, c.right)))
		ey = math.Max(ey, math.Abs(vmath.V3FDot(d, c.up)))
	}
	if ex < vmath.Epsilon || ey < vmath.Epsilon {
		c.scale = 50 * c.zoom
		return
	}
	c.scale = c.zoom * 0.9 * math.Min(width/(2*ex), height/(2*ey))
}

// project maps a world point to viewport coordinates
func (c *camera) project(p vmath.Vec3F) vmath.Vec2 {
	d := vmath.V3FSub(p, c.target)
	return vmath.Vec2{
		X: c.cx + vmath.V3FDot(d, c.right)*c.scale,
		Y: c.cy - vmath.V3FDot(d, c.up)*c.scale,
	}
}

// depth is the distance along the view direction, larger is farther
func (c *camera) depth(p vmath.Vec3F) float64 {
	return vmath.V3FDot(vmath.V3FSub(p, c.pos), c.forward)
}

// ray builds the pick ray through a viewport point
func (c *camera) ray(x, y float64) vmath.Ray {
	sx := (x - c.cx) / c.scale
	sy := -(y - c.cy) / c.scale
	onPlane := vmath.V3FAdd(c.target, vmath.V3FAdd(vmath.V3FScale(c.right, sx), vmath.V3FScale(c.up, sy)))
	back := vmath.V3FScale(c.forward, -1000)
	return vmath.Ray{Origin: vmath.V3FAdd(onPlane, back), Dir: c.forward}
}

// lights accumulates per-channel light factors
type lights struct {
	ambient    [3]float64
	sky        [3]float64
	ground     [3]float64
	hemi       float64
	dirColor   [3]float64
	dir        vmath.Vec3F // direction the light travels
	dirEnabled bool
}

func channels(c render.RGB, intensity float64) [3]float64 {
	return [3]float64{float64(c.R) / 255 * intensity, float64(c.G) / 255 * intensity, float64(c.B) / 255 * intensity}
}

func newLights(l *theme.Lighting) *lights {
	out := &lights{
		ambient:    channels(render.RGBWhite, 0.45),
		sky:        channels(render.RGB{R: 200, G: 220, B: 255}, 1),
		ground:     channels(render.RGB{R: 60, G: 50, B: 40}, 1),
		hemi:       0.35,
		dirColor:   channels(render.RGBWhite, 0.6),
		dir:        vmath.V3FNormalize(vmath.Vec3F{X: -0.5, Y: -1, Z: -0.3}),
		dirEnabled: true,
	}
	if l == nil {
		return out
	}
	if a := l.Ambient; a != nil {
		out.ambient = channels(render.ParseColor(a.Color, render.RGBWhite), a.Intensity)
	}
	if h := l.Hemisphere; h != nil {
		out.sky = channels(render.ParseColor(h.Color, render.RGBWhite), 1)
		out.ground = channels(render.ParseColor(h.Ground, render.RgbGround), 1)
		out.hemi = h.Intensity
	}
	if d := l.Directional; d != nil {
		out.dirColor = channels(render.ParseColor(d.Color, render.RGBWhite), d.Intensity)
		dir := vmath.Vec3F{X: d.Direction[0], Y: d.Direction[1], Z: d.Direction[2]}
		if vmath.V3FMagSq(dir) > vmath.Epsilon {
			out.dir = vmath.V3FNormalize(dir)
		}
		out.dirEnabled = d.Intensity > 0
	}
	return out
}

// shade lights a surface of color base facing n
func (l *lights) shade(base render.RGB, n vmath.Vec3F) render.RGB {
	t := (n.Y + 1) / 2
	var f [3]float64
	for i := 0; i < 3; i++ {
		f[i] = l.ambient[i] + l.hemi*vmath.Lerp(l.ground[i], l.sky[i], t)
	}
	if l.dirEnabled {
		lambert := math.Max(0, -vmath.V3FDot(n, l.dir))
		for i := 0; i < 3; i++ {
			f[i] += l.dirColor[i] * lambert
		}
	}
	return render.RGB{
		R: channel(base.R, f[0]),
		G: channel(base.G, f[1]),
		B: channel(base.B, f[2]),
	}
}

func channel(c uint8, f float64) uint8 {
	return uint8(vmath.Clamp(float64(c)*f, 0, 255))
}
