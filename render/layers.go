package render

import (
	"sort"

	"github.com/lixenwraith/vi-office/theme"
)

// Default layer ids, bottom to top
const (
	LayerBackground = "background"
	LayerZones      = "zones"
	LayerFurniture  = "furniture"
	LayerLines      = "lines"
	LayerCharacters = "characters"
	LayerOverlay    = "overlay"
)

// DefaultLayers is used when a theme declares none
var DefaultLayers = []theme.Layer{
	{ID: LayerBackground, ZIndex: 0},
	{ID: LayerZones, ZIndex: 10},
	{ID: LayerFurniture, ZIndex: 20},
	{ID: LayerLines, ZIndex: 30},
	{ID: LayerCharacters, ZIndex: 40},
	{ID: LayerOverlay, ZIndex: 50},
}

// LayerStack resolves layer ids to draw order
// Theme layers come first in zIndex order, stable for ties; default ids the theme
// omits are stacked above them in default order
type LayerStack struct {
	layers []theme.Layer
	order  map[string]int
}

// NewLayerStack orders layers, nil or empty means DefaultLayers
func NewLayerStack(layers []theme.Layer) *LayerStack {
	if len(layers) == 0 {
		layers = DefaultLayers
	}
	sorted := append([]theme.Layer(nil), layers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZIndex < sorted[j].ZIndex })

	s := &LayerStack{order: make(map[string]int, len(sorted)+len(DefaultLayers))}
	for _, l := range sorted {
		if _, dup := s.order[l.ID]; dup {
			continue
		}
		s.order[l.ID] = len(s.layers)
		s.layers = append(s.layers, l)
	}
	for _, l := range DefaultLayers {
		if _, ok := s.order[l.ID]; !ok {
			s.order[l.ID] = len(s.layers)
			s.layers = append(s.layers, l)
		}
	}
	return s
}

// Z returns the draw position of id, unknown ids draw on top
func (s *LayerStack) Z(id string) int {
	if z, ok := s.order[id]; ok {
		return z
	}
	return len(s.layers)
}

// Layers returns the resolved stack bottom to top
func (s *LayerStack) Layers() []theme.Layer {
	return append([]theme.Layer(nil), s.layers...)
}

// IDs returns layer ids bottom to top
func (s *LayerStack) IDs() []string {
	ids := make([]string, len(s.layers))
	for i, l := range s.layers {
		ids[i] = l.ID
	}
	return ids
}
