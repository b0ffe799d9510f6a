package render

import (
	"image"

	"github.com/lixenwraith/vi-office/vmath"
)

// Kind is the primitive a command draws
type Kind uint8

const (
	KindRect Kind = iota
	KindCircle
	KindLine
	KindPolygon
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Align positions text relative to its anchor
type Align uint8

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Cmd is one primitive in viewport coordinates
type Cmd struct {
	Kind  Kind
	Z     int
	Tag   string // owning agent or zone id, empty for scenery
	Color RGB
	Alpha float64
	Blend BlendMode

	Rect   vmath.Rect   // rect bounds, image destination
	Center vmath.Vec2   // circle center, text anchor
	Radius float64      // circle radius
	Points []vmath.Vec2 // line endpoints, polygon vertices
	Stroke float64      // outline width, 0 fills

	Text  string
	Size  float64
	Align Align
	Image image.Image

	seq int
}

// Filled reports whether the shape is filled rather than outlined
func (c Cmd) Filled() bool {
	return c.Stroke <= 0
}

// DrawList is the ordered output of one frame
// Commands are kept sorted by Z, then by push order
type DrawList struct {
	Width      float64
	Height     float64
	Background RGB

	cmds []Cmd
	seq  int
}

// NewDrawList creates an empty list for a viewport
func NewDrawList(width, height float64) *DrawList {
	return &DrawList{Width: width, Height: height, Background: RgbBackground, cmds: make([]Cmd, 0, 64)}
}

// Reset clears commands, keeping capacity
func (dl *DrawList) Reset(width, height float64, bg RGB) {
	dl.Width = width
	dl.Height = height
	dl.Background = bg
	dl.cmds = dl.cmds[:0]
	dl.seq = 0
}

// Push inserts c keeping Z order stable
func (dl *DrawList) Push(c Cmd) {
	c.seq = dl.seq
	dl.seq++

	// Insertion: find the first command with a higher Z
	pos := len(dl.cmds)
	for pos > 0 && dl.cmds[pos-1].Z > c.Z {
		pos--
	}
	dl.cmds = append(dl.cmds, Cmd{})
	copy(dl.cmds[pos+1:], dl.cmds[pos:])
	dl.cmds[pos] = c
}

// Cmds returns the ordered commands, the slice is owned by the list
func (dl *DrawList) Cmds() []Cmd {
	return dl.cmds
}

func (dl *DrawList) Len() int { return len(dl.cmds) }

// Filter returns commands matching fn in draw order
func (dl *DrawList) Filter(fn func(Cmd) bool) []Cmd {
	var out []Cmd
	for _, c := range dl.cmds {
		if fn(c) {
			out = append(out, c)
		}
	}
	return out
}

// Tagged returns the commands belonging to tag
func (dl *DrawList) Tagged(tag string) []Cmd {
	return dl.Filter(func(c Cmd) bool { return c.Tag == tag })
}

// ===== PRIMITIVES =====

// FillRect pushes a filled rectangle
func (dl *DrawList) FillRect(z int, r vmath.Rect, c RGB, alpha float64, tag string) {
	dl.Push(Cmd{Kind: KindRect, Z: z, Rect: r, Color: c, Alpha: alpha, Tag: tag})
}

// StrokeRect pushes a rectangle outline
func (dl *DrawList) StrokeRect(z int, r vmath.Rect, c RGB, alpha, width float64, tag string) {
	dl.Push(Cmd{Kind: KindRect, Z: z, Rect: r, Color: c, Alpha: alpha, Stroke: width, Tag: tag})
}

// FillCircle pushes a disc
func (dl *DrawList) FillCircle(z int, center vmath.Vec2, radius float64, c RGB, alpha float64, tag string) {
	dl.Push(Cmd{Kind: KindCircle, Z: z, Center: center, Radius: radius, Color: c, Alpha: alpha, Tag: tag})
}

// StrokeCircle pushes a ring
func (dl *DrawList) StrokeCircle(z int, center vmath.Vec2, radius float64, c RGB, alpha, width float64, tag string) {
	dl.Push(Cmd{Kind: KindCircle, Z: z, Center: center, Radius: radius, Color: c, Alpha: alpha, Stroke: width, Tag: tag})
}

// Glow pushes an additive disc
func (dl *DrawList) Glow(z int, center vmath.Vec2, radius float64, c RGB, alpha float64, tag string) {
	dl.Push(Cmd{Kind: KindCircle, Z: z, Center: center, Radius: radius, Color: c, Alpha: alpha, Blend: BlendAdd, Tag: tag})
}

// Line pushes a segment
func (dl *DrawList) Line(z int, a, b vmath.Vec2, c RGB, alpha, width float64, tag string) {
	dl.Push(Cmd{Kind: KindLine, Z: z, Points: []vmath.Vec2{a, b}, Color: c, Alpha: alpha, Stroke: width, Tag: tag})
}

// Polygon pushes a filled convex polygon
func (dl *DrawList) Polygon(z int, pts []vmath.Vec2, c RGB, alpha float64, tag string) {
	dl.Push(Cmd{Kind: KindPolygon, Z: z, Points: pts, Color: c, Alpha: alpha, Tag: tag})
}

// Text pushes a label anchored at pos
func (dl *DrawList) Text(z int, pos vmath.Vec2, text string, c RGB, size float64, align Align, tag string) {
	dl.Push(Cmd{Kind: KindText, Z: z, Center: pos, Text: text, Color: c, Alpha: 1, Size: size, Align: align, Tag: tag})
}

// Image pushes img scaled into dst
func (dl *DrawList) Image(z int, dst vmath.Rect, img image.Image, alpha float64, tag string) {
	if img == nil {
		return
	}
	dl.Push(Cmd{Kind: KindImage, Z: z, Rect: dst, Image: img, Alpha: alpha, Tag: tag})
}
