package vmath

import "math"

// Vec2 is a point or direction in stage units
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 { return Vec2{x, y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

func (a Vec2) Len() float64 { return math.Hypot(a.X, a.Y) }

// Dist returns the euclidean distance between a and b
func (a Vec2) Dist(b Vec2) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// LerpV2 moves a toward b by fraction t
func LerpV2(a, b Vec2, t float64) Vec2 {
	return Vec2{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)}
}

// Rect is an axis-aligned rectangle in stage units
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, edges inclusive
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the midpoint of r
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.W/2, r.Y + r.H/2}
}
