// Package seat maps agents to seats, either from manifest zones or a procedural layout
package seat

import (
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/theme"
)

// Placement is where one agent sits
type Placement struct {
	X, Y   float64
	SeatID string
	ZoneID string
}

// TargetZoneType maps a status to the zone type it gravitates to
func TargetZoneType(s agent.Status) theme.ZoneType {
	switch s {
	case agent.StatusCollaborating:
		return theme.ZoneMeeting
	case agent.StatusIdle:
		return theme.ZoneLounge
	default:
		return theme.ZoneWork
	}
}

// PickZone returns the index of the first zone of the target type, else 0
// Returns -1 when zones is empty
func PickZone(s agent.Status, zones []theme.Zone) int {
	if len(zones) == 0 {
		return -1
	}
	want := TargetZoneType(s)
	for i, z := range zones {
		if z.Type == want {
			return i
		}
	}
	return 0
}

// Assign places agents in arrival order, sharing seats round-robin within a zone
// An agent whose zone has no seats goes to the first zone that has some
func Assign(agents []agent.Agent, zones []theme.Zone) map[string]Placement {
	out := make(map[string]Placement, len(agents))
	seated := firstSeated(zones)
	if seated < 0 {
		return out
	}
	next := make([]int, len(zones))
	for _, a := range agents {
		zi := PickZone(a.Status, zones)
		if len(zones[zi].Seats) == 0 {
			zi = seated
		}
		z := zones[zi]
		s := z.Seats[next[zi]%len(z.Seats)]
		next[zi]++
		out[a.ID] = Placement{X: s.X, Y: s.Y, SeatID: s.ID, ZoneID: z.ID}
	}
	return out
}

// HasSeats reports whether any zone can receive an agent
func HasSeats(zones []theme.Zone) bool {
	return firstSeated(zones) >= 0
}

func firstSeated(zones []theme.Zone) int {
	for i, z := range zones {
		if len(z.Seats) > 0 {
			return i
		}
	}
	return -1
}
