package render

import (
	"math"

	"github.com/lixenwraith/vi-office/vmath"
)

// Transform maps stage units to viewport units: v = s*scale + offset
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Identity leaves coordinates unchanged
var Identity = Transform{Scale: 1}

// Fit scales a src-sized stage to fit inside dst, centered, aspect preserved
func Fit(srcW, srcH, dstW, dstH float64) Transform {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Identity
	}
	s := math.Min(dstW/srcW, dstH/srcH)
	return Transform{
		Scale:   s,
		OffsetX: (dstW - srcW*s) / 2,
		OffsetY: (dstH - srcH*s) / 2,
	}
}

// Cover scales a src-sized stage to cover dst entirely, centered
func Cover(srcW, srcH, dstW, dstH float64) Transform {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Identity
	}
	s := math.Max(dstW/srcW, dstH/srcH)
	return Transform{
		Scale:   s,
		OffsetX: (dstW - srcW*s) / 2,
		OffsetY: (dstH - srcH*s) / 2,
	}
}

// Point maps a stage point to the viewport
func (t Transform) Point(p vmath.Vec2) vmath.Vec2 {
	return vmath.Vec2{X: p.X*t.Scale + t.OffsetX, Y: p.Y*t.Scale + t.OffsetY}
}

// Rect maps a stage rectangle to the viewport
func (t Transform) Rect(r vmath.Rect) vmath.Rect {
	p := t.Point(vmath.Vec2{X: r.X, Y: r.Y})
	return vmath.Rect{X: p.X, Y: p.Y, W: r.W * t.Scale, H: r.H * t.Scale}
}

// Len maps a stage distance
func (t Transform) Len(d float64) float64 {
	return d * t.Scale
}

// Inverse maps a viewport point back to stage units
func (t Transform) Inverse(p vmath.Vec2) vmath.Vec2 {
	if t.Scale == 0 {
		return p
	}
	return vmath.Vec2{X: (p.X - t.OffsetX) / t.Scale, Y: (p.Y - t.OffsetY) / t.Scale}
}
