package seat

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
)

const (
	AvatarRadius = 20.0
	Gap          = 16.0

	// labelInset keeps the first slot row clear of the band title
	labelInset = 28.0
	sideInset  = 12.0
)

// Band is one horizontal strip of the procedural layout
type Band struct {
	Name string
	Zone string // status-derived zone type the band hosts
	Rect vmath.Rect
}

var bandSpec = []struct {
	name, zone  string
	top, bottom float64
}{
	{"work", "work", 0, 0.45},
	{"meeting", "meeting", 0.45, 0.70},
	{"break", "lounge", 0.70, 1},
}

// Bands returns the three layout strips for a viewport
func Bands(width, height float64) []Band {
	out := make([]Band, len(bandSpec))
	for i, b := range bandSpec {
		out[i] = Band{
			Name: b.name,
			Zone: b.zone,
			Rect: vmath.Rect{X: 0, Y: height * b.top, W: width, H: height * (b.bottom - b.top)},
		}
	}
	return out
}

func bandIndex(s agent.Status) int {
	switch TargetZoneType(s) {
	case theme.ZoneMeeting:
		return 1
	case theme.ZoneLounge:
		return 2
	default:
		return 0
	}
}

// Cell is the slot pitch, wide enough that neighbouring avatars never touch
func Cell() float64 {
	return 2*AvatarRadius + Gap
}

// Legacy lays agents out in row-major grids inside their status band
func Legacy(agents []agent.Agent, width, height float64) map[string]Placement {
	out := make(map[string]Placement, len(agents))
	if width <= 0 || height <= 0 {
		return out
	}
	bands := Bands(width, height)
	cell := Cell()
	cols := int(math.Floor((width - 2*sideInset) / cell))
	if cols < 1 {
		cols = 1
	}

	count := make([]int, len(bands))
	for _, a := range agents {
		bi := bandIndex(a.Status)
		b := bands[bi]
		i := count[bi]
		count[bi]++

		row, col := i/cols, i%cols
		out[a.ID] = Placement{
			X:      b.Rect.X + sideInset + cell*(float64(col)+0.5),
			Y:      b.Rect.Y + labelInset + cell*(float64(row)+0.5),
			SeatID: fmt.Sprintf("legacy:%s:%d", b.Name, i),
			ZoneID: b.Zone,
		}
	}
	return out
}
