// Package theme loads and validates declarative office stage descriptions
package theme

import (
	"path"
	"sort"
	"strings"
)

// RendererKind selects the backend a manifest is drawn with
type RendererKind string

const (
	RendererPixi    RendererKind = "pixi"
	RendererThreeJS RendererKind = "threejs"
	RendererSprite  RendererKind = "sprite"
)

// ZoneType is the semantic role of a zone
type ZoneType string

const (
	ZoneWork    ZoneType = "work"
	ZoneMeeting ZoneType = "meeting"
	ZoneLounge  ZoneType = "lounge"
	ZoneCustom  ZoneType = "custom"
)

// Manifest is the declarative description of one theme
type Manifest struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Version    string       `json:"version"`
	Author     string       `json:"author,omitempty"`
	Renderer   RendererKind `json:"renderer,omitempty"`
	Canvas     Canvas       `json:"canvas"`
	Layers     []Layer      `json:"layers"`
	Zones      []Zone       `json:"zones"`
	Characters Characters   `json:"characters"`
	Effects    []Effect     `json:"effects,omitempty"`

	Room     *Room     `json:"room,omitempty"`
	Camera   *Camera   `json:"camera,omitempty"`
	Lighting *Lighting `json:"lighting,omitempty"`

	Scene *Scene `json:"scene,omitempty"`
}

// Canvas is the stage size in manifest units and its backdrop
// Background is either a #rrggbb color or a theme-relative image path
type Canvas struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background"`
}

// Layer is a named draw target ordered by ZIndex
type Layer struct {
	ID     string `json:"id"`
	ZIndex int    `json:"zIndex"`
	Image  string `json:"image,omitempty"`
}

// Bounds is a rectangle in manifest units
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Zone is a named region holding an ordered seat list
type Zone struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Type     ZoneType `json:"type,omitempty"`
	Bounds   Bounds   `json:"bounds"`
	Capacity int      `json:"capacity,omitempty"`
	Color    string   `json:"color,omitempty"`
	Seats    []Seat   `json:"seats"`
}

// Label returns the display name of the zone
func (z Zone) Label() string {
	if z.Name != "" {
		return z.Name
	}
	return z.ID
}

// Seat is one placement slot inside a zone
type Seat struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction string  `json:"direction,omitempty"`
}

// FrameDef describes one animation row of the character atlas
type FrameDef struct {
	Row   int     `json:"row"`
	Count int     `json:"count"`
	FPS   float64 `json:"fps,omitempty"`
}

// Characters configures agent visuals
type Characters struct {
	Atlas       string              `json:"atlas,omitempty"`
	FrameWidth  int                 `json:"frameWidth,omitempty"`
	FrameHeight int                 `json:"frameHeight,omitempty"`
	Scale       float64             `json:"scale,omitempty"`
	Frames      map[string]FrameDef `json:"frames,omitempty"`
	StatusBadge StatusBadge         `json:"statusBadge"`
}

// StatusBadge maps agent statuses to badge colors
type StatusBadge struct {
	Colors map[string]string `json:"colors"`
}

// Effect is a decorative stage effect
type Effect struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Layer     string  `json:"layer,omitempty"`
	Color     string  `json:"color,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	Count     int     `json:"count,omitempty"`
}

// Room holds 3D scene assets
type Room struct {
	Model     string      `json:"model"`
	Scale     float64     `json:"scale,omitempty"`
	BotModel  string      `json:"botModel,omitempty"`
	Furniture []Furniture `json:"furniture,omitempty"`
}

// Furniture places one model at manifest coordinates
type Furniture struct {
	ID       string  `json:"id,omitempty"`
	Model    string  `json:"model"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Camera configures the orthographic view
type Camera struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Zoom     float64    `json:"zoom,omitempty"`
}

// Light is a colored intensity
type Light struct {
	Color     string     `json:"color,omitempty"`
	Intensity float64    `json:"intensity"`
	Direction [3]float64 `json:"direction,omitempty"`
	Ground    string     `json:"groundColor,omitempty"`
}

// Lighting lists the scene lights
type Lighting struct {
	Ambient     *Light `json:"ambient,omitempty"`
	Hemisphere  *Light `json:"hemisphere,omitempty"`
	Directional *Light `json:"directional,omitempty"`
}

// PercentRect is a rectangle in percentages of the scene size
type PercentRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlay is one animated widget of a single-character scene
type Overlay struct {
	Type   string      `json:"type"`
	Rect   PercentRect `json:"rect"`
	Color  string      `json:"color,omitempty"`
	Period float64     `json:"period,omitempty"`
}

// Scene describes a single-character theme
type Scene struct {
	Width             float64                `json:"width"`
	Height            float64                `json:"height"`
	Backgrounds       map[string]string      `json:"backgrounds"`
	Effects           map[string][]Overlay   `json:"effects,omitempty"`
	HitArea           map[string]PercentRect `json:"hitArea,omitempty"`
	SleepAfterSeconds float64                `json:"sleepAfterSeconds,omitempty"`
}

// Kind returns the backend selector, defaulting to the 2D layered renderer
func (m *Manifest) Kind() RendererKind {
	if m == nil {
		return RendererPixi
	}
	switch m.Renderer {
	case RendererThreeJS, RendererSprite:
		return m.Renderer
	default:
		return RendererPixi
	}
}

// SortedLayers returns layers ordered by ZIndex, stable for equal values
func (m *Manifest) SortedLayers() []Layer {
	out := append([]Layer(nil), m.Layers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Zone returns the zone with the given id
func (m *Manifest) Zone(id string) (Zone, bool) {
	for _, z := range m.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// BadgeColor returns the configured color for a status, or fallback
func (m *Manifest) BadgeColor(status, fallback string) string {
	if m == nil {
		return fallback
	}
	if c, ok := m.Characters.StatusBadge.Colors[status]; ok && c != "" {
		return c
	}
	return fallback
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// IsImagePath reports whether s names an image asset rather than a color
func IsImagePath(s string) bool {
	if strings.HasPrefix(s, "#") {
		return false
	}
	return imageExts[strings.ToLower(path.Ext(s))]
}

// AssetURL resolves a theme-relative path to /themes/{themeID}/{rel}
// Absolute URLs pass through unchanged
func AssetURL(themeID, rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel
	}
	clean := path.Clean("/" + strings.TrimPrefix(rel, "/"))
	return "/themes/" + themeID + clean
}

// ManifestURL is the location of a theme's manifest
func ManifestURL(themeID string) string {
	return AssetURL(themeID, "theme.json")
}
