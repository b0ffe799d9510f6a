package iso

import (
	"math"
	"sort"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/vmath"
)

// node is one element of the scene graph
// Meshes carry world bounds, groups carry the agent id they stand for
type node struct {
	name    string
	agentID string
	parent  *node
	box     vmath.Box
	sphere  float64 // radius when the mesh is a sphere around box center
	color   render.RGB
}

func (n *node) mesh() bool {
	return !n.box.IsEmpty()
}

// owner walks up the parent chain to the agent group
func (n *node) owner() string {
	for p := n; p != nil; p = p.parent {
		if p.agentID != "" {
			return p.agentID
		}
	}
	return ""
}

func sphereNode(name string, parent *node, center vmath.Vec3F, radius float64, c render.RGB) *node {
	ext := vmath.Vec3F{X: radius, Y: radius, Z: radius}
	return &node{
		name:   name,
		parent: parent,
		box:    vmath.Box{Min: vmath.V3FSub(center, ext), Max: vmath.V3FAdd(center, ext)},
		sphere: radius,
		color:  c,
	}
}

// toWorld maps manifest coordinates onto the floor plane, height h up
func (r *Renderer) toWorld(x, y, h float64) vmath.Vec3F {
	w, d := r.stageSize()
	return vmath.Vec3F{X: (x - w/2) / unitsPerWorld, Y: h, Z: (y - d/2) / unitsPerWorld}
}

func (r *Renderer) floorCorners() []vmath.Vec3F {
	w, d := r.stageSize()
	return []vmath.Vec3F{
		r.toWorld(0, 0, 0),
		r.toWorld(w, 0, 0),
		r.toWorld(w, d, 0),
		r.toWorld(0, d, 0),
	}
}

// rotateBox rotates b around the Y axis through pivot and returns the enclosing box
func rotateBox(b vmath.Box, pivot vmath.Vec3F, angle float64) vmath.Box {
	if angle == 0 || b.IsEmpty() {
		return b
	}
	out := vmath.EmptyBox()
	for i := 0; i < 8; i++ {
		c := vmath.Vec3F{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		c = vmath.V3FAdd(vmath.V3FRotateY(vmath.V3FSub(c, pivot), angle), pivot)
		out = out.Extend(vmath.Box{Min: c, Max: c})
	}
	return out
}

// staticMeshes places room and furniture parts in world space
func (r *Renderer) staticMeshes(placed []placedModel) []*node {
	var out []*node
	for _, p := range placed {
		m := p.model
		scale := vmath.Vec3F{X: p.scale, Y: p.scale, Z: p.scale}
		var offset, pivot vmath.Vec3F
		if !p.origin {
			// stand the model on the floor centered on its anchor
			c := m.Bounds.Center()
			pivot = r.toWorld(p.pos[0], p.pos[1], 0)
			offset = vmath.V3FSub(pivot, vmath.Vec3F{X: c.X * p.scale, Y: m.Bounds.Min.Y * p.scale, Z: c.Z * p.scale})
		}
		group := &node{name: m.Name}
		for i, part := range m.Parts {
			box := rotateBox(part.Box.Transform(scale, offset), pivot, vmath.Deg2Rad(p.rotation))
			out = append(out, &node{
				name:   part.Name,
				parent: group,
				box:    box,
				color:  render.FromColor(m.PartColor(i, render.RgbGround.NRGBA(255))),
			})
		}
	}
	return out
}

// agentMeshes builds the pickable meshes of every agent at its current position
func (r *Renderer) agentMeshes() []*node {
	var out []*node
	for _, id := range r.tracks.IDs() {
		v := r.visuals[id]
		tr, _ := r.tracks.Get(id)
		if v == nil || tr == nil {
			continue
		}
		group := &node{name: "agent:" + id, agentID: id}
		base := r.toWorld(tr.Pos.X, tr.Pos.Y, 0)
		c := render.AgentColor(v.agent, r.manifest)

		top := 2 * bodyRadius
		if m := v.model; m != nil {
			size := m.Bounds.Size()
			s := 1.0
			if size.Y > vmath.Epsilon {
				s = botHeight / size.Y
			}
			center := m.Bounds.Center()
			offset := vmath.V3FSub(base, vmath.Vec3F{X: center.X * s, Y: m.Bounds.Min.Y * s, Z: center.Z * s})
			for i, part := range m.Parts {
				out = append(out, &node{
					name:   part.Name,
					parent: group,
					box:    part.Box.Transform(vmath.Vec3F{X: s, Y: s, Z: s}, offset),
					color:  render.FromColor(m.PartColor(i, c.NRGBA(255))),
				})
			}
			top = botHeight
		} else {
			out = append(out, sphereNode("body", group, vmath.V3FAdd(base, vmath.Vec3F{Y: bodyRadius}), bodyRadius, c))
		}
		status := render.StatusColor(r.manifest, v.agent.Status)
		out = append(out, sphereNode("status", group, vmath.V3FAdd(base, vmath.Vec3F{Y: top + 2*statusRadius}), statusRadius, status))
	}
	return out
}

// pick returns the agent owning the nearest mesh under the viewport point
func (r *Renderer) pick(x, y float64) string {
	if r.life.Ended() {
		return ""
	}
	ray := r.cam.ray(x, y)
	var nearest *node
	best := math.Inf(1)
	for _, n := range r.agentMeshes() {
		var t float64
		var ok bool
		if n.sphere > 0 {
			t, ok = vmath.RaySphere(ray, n.box.Center(), n.sphere)
		} else {
			t, ok = vmath.RayBox(ray, n.box)
		}
		if ok && t < best {
			best, nearest = t, n
		}
	}
	if nearest == nil {
		return ""
	}
	return nearest.owner()
}

// ===== FACES =====

type face struct {
	normal  vmath.Vec3F
	corners [4]vmath.Vec3F
}

// boxFaces returns the faces of b turned toward the camera
func boxFaces(b vmath.Box, forward vmath.Vec3F) []face {
	lo, hi := b.Min, b.Max
	all := []face{
		{vmath.Vec3F{Y: 1}, [4]vmath.Vec3F{{X: lo.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z}}},
		{vmath.Vec3F{Y: -1}, [4]vmath.Vec3F{{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z}, {X: lo.X, Y: lo.Y, Z: hi.Z}}},
		{vmath.Vec3F{X: 1}, [4]vmath.Vec3F{{X: hi.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z}}},
		{vmath.Vec3F{X: -1}, [4]vmath.Vec3F{{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: lo.Y, Z: hi.Z}}},
		{vmath.Vec3F{Z: 1}, [4]vmath.Vec3F{{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z}}},
		{vmath.Vec3F{Z: -1}, [4]vmath.Vec3F{{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z}}},
	}
	out := all[:0]
	for _, f := range all {
		if vmath.V3FDot(f.normal, forward) < 0 {
			out = append(out, f)
		}
	}
	return out
}

// drawable is one depth-sorted mesh
type drawable struct {
	depth float64
	n     *node
	tag   string
}

// sortBackToFront orders meshes for the painter's algorithm
func sortBackToFront(ds []drawable) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].depth > ds[j].depth })
}
