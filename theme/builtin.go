package theme

// BuiltinID is the id of the built-in theme
const BuiltinID = "classic-office"

// Builtin returns the built-in classic office theme
// A fresh value is returned on every call so callers may seed it freely
func Builtin() *Manifest {
	return &Manifest{
		ID:       BuiltinID,
		Name:     "Classic Office",
		Version:  "1.0.0",
		Renderer: RendererPixi,
		Canvas:   Canvas{Width: 1200, Height: 800, Background: "#1a1b26"},
		Layers: []Layer{
			{ID: "background", ZIndex: 0},
			{ID: "zones", ZIndex: 10},
			{ID: "furniture", ZIndex: 20},
			{ID: "lines", ZIndex: 30},
			{ID: "characters", ZIndex: 40},
			{ID: "overlay", ZIndex: 50},
		},
		Zones: []Zone{
			{
				ID: "desks", Name: "Desks", Type: ZoneWork, Capacity: 6,
				Bounds: Bounds{X: 40, Y: 40, Width: 700, Height: 420},
				Seats: []Seat{
					{ID: "desk-1", X: 160, Y: 150, Direction: "down"},
					{ID: "desk-2", X: 390, Y: 150, Direction: "down"},
					{ID: "desk-3", X: 620, Y: 150, Direction: "down"},
					{ID: "desk-4", X: 160, Y: 350, Direction: "up"},
					{ID: "desk-5", X: 390, Y: 350, Direction: "up"},
					{ID: "desk-6", X: 620, Y: 350, Direction: "up"},
				},
			},
			{
				ID: "meeting-room", Name: "Meeting Room", Type: ZoneMeeting, Capacity: 4,
				Bounds: Bounds{X: 780, Y: 40, Width: 380, Height: 420},
				Seats: []Seat{
					{ID: "meet-1", X: 880, Y: 170, Direction: "right"},
					{ID: "meet-2", X: 1060, Y: 170, Direction: "left"},
					{ID: "meet-3", X: 880, Y: 330, Direction: "right"},
					{ID: "meet-4", X: 1060, Y: 330, Direction: "left"},
				},
			},
			{
				ID: "lounge", Name: "Lounge", Type: ZoneLounge, Capacity: 4,
				Bounds: Bounds{X: 40, Y: 500, Width: 1120, Height: 260},
				Seats: []Seat{
					{ID: "sofa-1", X: 200, Y: 630, Direction: "down"},
					{ID: "sofa-2", X: 460, Y: 630, Direction: "down"},
					{ID: "sofa-3", X: 720, Y: 630, Direction: "down"},
					{ID: "sofa-4", X: 980, Y: 630, Direction: "down"},
				},
			},
		},
		Characters: Characters{
			StatusBadge: StatusBadge{Colors: map[string]string{
				"working":       "#22c55e",
				"idle":          "#eab308",
				"blocked":       "#ef4444",
				"collaborating": "#3b82f6",
			}},
		},
		Effects: []Effect{
			{ID: "lamp", Type: "spotlight", Layer: "overlay", Color: "#fff3c4", Intensity: 0.15, X: 960, Y: 250, Radius: 160},
		},
	}
}
