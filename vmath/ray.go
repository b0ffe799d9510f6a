package vmath

import "math"

// Ray is a half-line with normalized direction
type Ray struct {
	Origin Vec3F
	Dir    Vec3F
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) Vec3F {
	return V3FAdd(r.Origin, V3FScale(r.Dir, t))
}

// Box is an axis-aligned bounding box
type Box struct {
	Min, Max Vec3F
}

// EmptyBox returns an inverted box that any Extend call will replace
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: Vec3F{inf, inf, inf},
		Max: Vec3F{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box encloses nothing
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows b to enclose o
func (b Box) Extend(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return Box{
		Min: Vec3F{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3F{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Transform scales then translates the box
func (b Box) Transform(scale, offset Vec3F) Box {
	if b.IsEmpty() {
		return b
	}
	lo := V3FAdd(V3FMul(b.Min, scale), offset)
	hi := V3FAdd(V3FMul(b.Max, scale), offset)
	return Box{
		Min: Vec3F{math.Min(lo.X, hi.X), math.Min(lo.Y, hi.Y), math.Min(lo.Z, hi.Z)},
		Max: Vec3F{math.Max(lo.X, hi.X), math.Max(lo.Y, hi.Y), math.Max(lo.Z, hi.Z)},
	}
}

// Center returns the box midpoint
func (b Box) Center() Vec3F {
	return V3FScale(V3FAdd(b.Min, b.Max), 0.5)
}

// Size returns the box extents
func (b Box) Size() Vec3F {
	return V3FSub(b.Max, b.Min)
}

// RayBox intersects r with b using the slab method
// Returns the entry distance; a ray starting inside the box reports the exit distance
func RayBox(r Ray, b Box) (float64, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < Epsilon {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (lo[i] - origin[i]) * inv
		t2 := (hi[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// RaySphere intersects r with a sphere, returns the nearest non-negative distance
func RaySphere(r Ray, center Vec3F, radius float64) (float64, bool) {
	oc := V3FSub(r.Origin, center)
	b := V3FDot(oc, r.Dir)
	c := V3FMagSq(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
