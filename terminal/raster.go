package terminal

import (
	"image"
	"math"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/vmath"
	"github.com/mattn/go-runewidth"
)

// upperHalf shows the top sub-pixel as foreground and the bottom one as background
const upperHalf = '▀'

type glyph struct {
	r    rune
	fg   render.RGB
	bold bool
	wide bool
}

// Raster turns draw commands into a grid of two sub-pixels per cell
type Raster struct {
	cols, rows int
	px         []render.RGB // cols x rows*2
	glyphs     map[int]glyph
	sx, sy     float64 // viewport units per sub-pixel
}

// NewRaster creates a raster for a cols by rows cell grid
func NewRaster(cols, rows int) *Raster {
	r := &Raster{glyphs: make(map[int]glyph)}
	r.Resize(cols, rows)
	return r
}

// Resize changes the cell grid
func (r *Raster) Resize(cols, rows int) {
	r.cols, r.rows = max(cols, 0), max(rows, 0)
	if n := r.cols * r.rows * 2; cap(r.px) < n {
		r.px = make([]render.RGB, n)
	} else {
		r.px = r.px[:n]
	}
}

// Draw rasterizes dl, scaling its viewport onto the grid
func (r *Raster) Draw(dl *render.DrawList) {
	for i := range r.px {
		r.px[i] = dl.Background
	}
	clear(r.glyphs)
	if r.cols == 0 || r.rows == 0 || dl.Width <= 0 || dl.Height <= 0 {
		return
	}
	r.sx = dl.Width / float64(r.cols)
	r.sy = dl.Height / float64(r.rows*2)

	for _, c := range dl.Cmds() {
		switch c.Kind {
		case render.KindRect:
			r.rect(c)
		case render.KindCircle:
			r.circle(c)
		case render.KindLine:
			r.line(c)
		case render.KindPolygon:
			r.polygon(c)
		case render.KindImage:
			r.image(c)
		case render.KindText:
			r.text(c)
		}
	}
}

// Pixel returns the sub-pixel color at column x, sub-row y
func (r *Raster) Pixel(x, y int) render.RGB {
	if x < 0 || y < 0 || x >= r.cols || y >= r.rows*2 {
		return render.RGB{}
	}
	return r.px[y*r.cols+x]
}

// Compose writes the raster into the top rows of buf
func (r *Raster) Compose(buf *Buffer) {
	w, h := buf.Size()
	cols, rows := min(r.cols, w), min(r.rows, h)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := r.px[(2*y)*r.cols+x]
			bottom := r.px[(2*y+1)*r.cols+x]
			idx := y*r.cols + x
			if g, ok := r.glyphs[idx]; ok {
				buf.Set(x, y, Cell{Rune: g.r, Fg: g.fg, Bg: top.Lerp(bottom, 0.5), Bold: g.bold})
				if g.wide {
					x++
					buf.Set(x, y, Cell{Rune: 0, Bg: top.Lerp(bottom, 0.5)})
				}
				continue
			}
			buf.Set(x, y, Cell{Rune: upperHalf, Fg: top, Bg: bottom})
		}
	}
}

// ===== SHAPES =====

// fill blends c into every sub-pixel inside the bounding box that passes inside
func (r *Raster) fill(c render.Cmd, minX, minY, maxX, maxY float64, inside func(x, y float64) bool) {
	x0 := max(int(math.Floor(minX/r.sx)), 0)
	x1 := min(int(math.Ceil(maxX/r.sx)), r.cols-1)
	y0 := max(int(math.Floor(minY/r.sy)), 0)
	y1 := min(int(math.Ceil(maxY/r.sy)), r.rows*2-1)
	for py := y0; py <= y1; py++ {
		cy := (float64(py) + 0.5) * r.sy
		for px := x0; px <= x1; px++ {
			cx := (float64(px) + 0.5) * r.sx
			if !inside(cx, cy) {
				continue
			}
			i := py*r.cols + px
			r.px[i] = c.Blend.Apply(r.px[i], c.Color, c.Alpha)
			// shapes drawn later cover text underneath
			delete(r.glyphs, (py/2)*r.cols+px)
		}
	}
}

// halfPixel is the minimum stroke half-width so thin outlines stay visible
func (r *Raster) halfPixel() float64 {
	return math.Max(r.sx, r.sy) / 2
}

func (r *Raster) rect(c render.Cmd) {
	rc := c.Rect
	if c.Filled() {
		r.fill(c, rc.X, rc.Y, rc.X+rc.W, rc.Y+rc.H, func(x, y float64) bool {
			return x >= rc.X && x < rc.X+rc.W && y >= rc.Y && y < rc.Y+rc.H
		})
		return
	}
	sw := math.Max(c.Stroke, r.halfPixel()*2)
	r.fill(c, rc.X, rc.Y, rc.X+rc.W, rc.Y+rc.H, func(x, y float64) bool {
		if x < rc.X || x >= rc.X+rc.W || y < rc.Y || y >= rc.Y+rc.H {
			return false
		}
		return x < rc.X+sw || x >= rc.X+rc.W-sw || y < rc.Y+sw || y >= rc.Y+rc.H-sw
	})
}

func (r *Raster) circle(c render.Cmd) {
	cx, cy, rad := c.Center.X, c.Center.Y, c.Radius
	if c.Filled() {
		// at least one sub-pixel for tiny discs
		rad = math.Max(rad, r.halfPixel())
		r.fill(c, cx-rad, cy-rad, cx+rad, cy+rad, func(x, y float64) bool {
			return (x-cx)*(x-cx)+(y-cy)*(y-cy) <= rad*rad
		})
		return
	}
	half := math.Max(c.Stroke/2, r.halfPixel())
	outer := rad + half
	r.fill(c, cx-outer, cy-outer, cx+outer, cy+outer, func(x, y float64) bool {
		return math.Abs(math.Hypot(x-cx, y-cy)-rad) <= half
	})
}

func (r *Raster) line(c render.Cmd) {
	if len(c.Points) < 2 {
		return
	}
	a, b := c.Points[0], c.Points[1]
	half := math.Max(c.Stroke/2, r.halfPixel())
	r.fill(c, math.Min(a.X, b.X)-half, math.Min(a.Y, b.Y)-half, math.Max(a.X, b.X)+half, math.Max(a.Y, b.Y)+half, func(x, y float64) bool {
		return segmentDist(vmath.V2(x, y), a, b) <= half
	})
}

func segmentDist(p, a, b vmath.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := vmath.Clamp(((p.X-a.X)*ab.X+(p.Y-a.Y)*ab.Y)/l2, 0, 1)
	return p.Dist(a.Add(ab.Scale(t)))
}

func (r *Raster) polygon(c render.Cmd) {
	pts := c.Points
	if len(pts) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	r.fill(c, minX, minY, maxX, maxY, func(x, y float64) bool {
		return pointInPolygon(x, y, pts)
	})
}

// pointInPolygon is the even-odd crossing test
func pointInPolygon(x, y float64, pts []vmath.Vec2) bool {
	in := false
	j := len(pts) - 1
	for i := range pts {
		pi, pj := pts[i], pts[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
		j = i
	}
	return in
}

// image samples the nearest source pixel per sub-pixel
func (r *Raster) image(c render.Cmd) {
	img := c.Image
	if img == nil || c.Rect.W <= 0 || c.Rect.H <= 0 {
		return
	}
	b := img.Bounds()
	rc := c.Rect
	x0 := max(int(math.Floor(rc.X/r.sx)), 0)
	x1 := min(int(math.Ceil((rc.X+rc.W)/r.sx)), r.cols-1)
	y0 := max(int(math.Floor(rc.Y/r.sy)), 0)
	y1 := min(int(math.Ceil((rc.Y+rc.H)/r.sy)), r.rows*2-1)
	for py := y0; py <= y1; py++ {
		cy := (float64(py) + 0.5) * r.sy
		if cy < rc.Y || cy >= rc.Y+rc.H {
			continue
		}
		sy := b.Min.Y + int((cy-rc.Y)/rc.H*float64(b.Dy()))
		for px := x0; px <= x1; px++ {
			cx := (float64(px) + 0.5) * r.sx
			if cx < rc.X || cx >= rc.X+rc.W {
				continue
			}
			sx := b.Min.X + int((cx-rc.X)/rc.W*float64(b.Dx()))
			col, a := sample(img, sx, sy)
			if a == 0 {
				continue
			}
			i := py*r.cols + px
			r.px[i] = c.Blend.Apply(r.px[i], col, c.Alpha*a)
			delete(r.glyphs, (py/2)*r.cols+px)
		}
	}
}

func sample(img image.Image, x, y int) (render.RGB, float64) {
	_, _, _, a := img.At(x, y).RGBA()
	if a == 0 {
		return render.RGB{}, 0
	}
	return render.FromColor(img.At(x, y)), float64(a) / 0xffff
}

// text places runes on whole cells, anchored by alignment
func (r *Raster) text(c render.Cmd) {
	if c.Text == "" || c.Alpha <= 0 {
		return
	}
	row := int(c.Center.Y / (r.sy * 2))
	if row < 0 || row >= r.rows {
		return
	}
	width := runewidth.StringWidth(c.Text)
	col := int(c.Center.X / r.sx)
	switch c.Align {
	case render.AlignCenter:
		col -= width / 2
	case render.AlignRight:
		col -= width
	}
	bold := c.Size >= 14
	for _, ch := range c.Text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if col >= 0 && col+w <= r.cols {
			idx := row*r.cols + col
			fg := c.Color
			if c.Alpha < 1 {
				under := r.px[(2*row)*r.cols+col].Lerp(r.px[(2*row+1)*r.cols+col], 0.5)
				fg = under.Blend(c.Color, c.Alpha)
			}
			r.glyphs[idx] = glyph{r: ch, fg: fg, bold: bold, wide: w == 2}
			if w == 2 {
				delete(r.glyphs, idx+1)
			}
		}
		col += w
	}
}
