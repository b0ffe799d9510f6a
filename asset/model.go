package asset

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/lixenwraith/vi-office/vmath"
	"github.com/qmuntal/gltf"
)

// Material is the shading input of one model part
type Material struct {
	Name    string
	Color   color.NRGBA
	Opacity float64
}

// Part is one mesh primitive reduced to its bounds
type Part struct {
	Name     string
	Box      vmath.Box
	Material int // index into Model.Materials, -1 when unset
}

// Model is a glTF scene reduced to boxes with base colors
// It is shared read-only through the cache, use Clone for per-instance edits
type Model struct {
	Name      string
	Parts     []Part
	Materials []Material
	Bounds    vmath.Box
}

// Clone deep-copies parts and materials so tinting stays per instance
func (m *Model) Clone() *Model {
	out := &Model{Name: m.Name, Bounds: m.Bounds}
	out.Parts = append([]Part(nil), m.Parts...)
	out.Materials = append([]Material(nil), m.Materials...)
	return out
}

// PartColor returns the material color of part i or fallback
func (m *Model) PartColor(i int, fallback color.NRGBA) color.NRGBA {
	if i < 0 || i >= len(m.Parts) {
		return fallback
	}
	mi := m.Parts[i].Material
	if mi < 0 || mi >= len(m.Materials) {
		return fallback
	}
	return m.Materials[mi].Color
}

// Tint replaces every material color with c, keeping opacity
func (m *Model) Tint(c color.NRGBA) {
	for i := range m.Materials {
		c.A = m.Materials[i].Color.A
		m.Materials[i].Color = c
	}
}

var defaultMaterial = Material{Name: "default", Color: color.NRGBA{200, 200, 200, 255}, Opacity: 1}

// DecodeModel parses a .glb or .gltf document
// Node translation and scale are applied to part bounds, rotation is ignored
func DecodeModel(data []byte) (*Model, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	m := &Model{Bounds: vmath.EmptyBox()}
	for _, mat := range doc.Materials {
		out := defaultMaterial
		out.Name = mat.Name
		if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			f := *pbr.BaseColorFactor
			out.Color = color.NRGBA{
				R: unit8(f[0]), G: unit8(f[1]), B: unit8(f[2]), A: unit8(f[3]),
			}
			out.Opacity = f[3]
		}
		m.Materials = append(m.Materials, out)
	}

	roots := sceneRoots(&doc)
	one := vmath.Vec3F{X: 1, Y: 1, Z: 1}
	for _, idx := range roots {
		m.walk(&doc, idx, one, vmath.Vec3F{}, 0)
	}
	if len(m.Parts) == 0 {
		return nil, fmt.Errorf("decode model: no mesh geometry")
	}
	if len(doc.Scenes) > 0 && doc.Scenes[0].Name != "" {
		m.Name = doc.Scenes[0].Name
	}
	return m, nil
}

const maxNodeDepth = 64

func (m *Model) walk(doc *gltf.Document, idx int, scale, offset vmath.Vec3F, depth int) {
	if idx < 0 || idx >= len(doc.Nodes) || depth > maxNodeDepth {
		return
	}
	n := doc.Nodes[idx]

	localScale := vmath.Vec3F{X: n.Scale[0], Y: n.Scale[1], Z: n.Scale[2]}
	if localScale == (vmath.Vec3F{}) {
		localScale = vmath.Vec3F{X: 1, Y: 1, Z: 1}
	}
	t := vmath.Vec3F{X: n.Translation[0], Y: n.Translation[1], Z: n.Translation[2]}
	worldOffset := vmath.V3FAdd(offset, vmath.V3FMul(t, scale))
	worldScale := vmath.V3FMul(scale, localScale)

	if n.Mesh != nil && int(*n.Mesh) < len(doc.Meshes) {
		mesh := doc.Meshes[*n.Mesh]
		for pi, prim := range mesh.Primitives {
			box, ok := positionBounds(doc, prim)
			if !ok {
				continue
			}
			box = box.Transform(worldScale, worldOffset)
			mat := -1
			if prim.Material != nil {
				mat = int(*prim.Material)
			}
			name := n.Name
			if name == "" {
				name = fmt.Sprintf("%s#%d", mesh.Name, pi)
			}
			m.Parts = append(m.Parts, Part{Name: name, Box: box, Material: mat})
			m.Bounds = m.Bounds.Extend(box)
		}
	}
	for _, child := range n.Children {
		m.walk(doc, int(child), worldScale, worldOffset, depth+1)
	}
}

func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		si := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			si = int(*doc.Scene)
		}
		nodes := doc.Scenes[si].Nodes
		roots := make([]int, len(nodes))
		for i, n := range nodes {
			roots[i] = int(n)
		}
		return roots
	}
	// No scene: treat nodes nobody references as roots
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[int(c)] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func positionBounds(doc *gltf.Document, prim *gltf.Primitive) (vmath.Box, bool) {
	ai, ok := prim.Attributes["POSITION"]
	if !ok || int(ai) >= len(doc.Accessors) {
		return vmath.Box{}, false
	}
	acc := doc.Accessors[ai]
	if len(acc.Min) < 3 || len(acc.Max) < 3 {
		return vmath.Box{}, false
	}
	return vmath.Box{
		Min: vmath.Vec3F{X: acc.Min[0], Y: acc.Min[1], Z: acc.Min[2]},
		Max: vmath.Vec3F{X: acc.Max[0], Y: acc.Max[1], Z: acc.Max[2]},
	}, true
}

func unit8(f float64) uint8 {
	return uint8(vmath.Clamp(f, 0, 1)*255 + 0.5)
}
