// Package motion interpolates agent positions toward their assigned seats
package motion

import (
	"sort"

	"github.com/lixenwraith/vi-office/seat"
	"github.com/lixenwraith/vi-office/vmath"
)

const (
	// Blend is the fraction of the remaining distance covered per tick
	Blend = 0.15
	// Epsilon is the arrival distance in stage units
	Epsilon = 1.0
)

// Track is the interpolation state of one agent
type Track struct {
	Pos     vmath.Vec2
	Target  vmath.Vec2
	SeatID  string
	ZoneID  string
	Walking bool
	Walks   int // number of walks started
}

// NewTrack places a new agent directly on its seat
func NewTrack(p seat.Placement) *Track {
	pos := vmath.V2(p.X, p.Y)
	return &Track{Pos: pos, Target: pos, SeatID: p.SeatID, ZoneID: p.ZoneID}
}

// Retarget points the track at p
// Walking starts only when the seat changed, otherwise the target moves silently
func (t *Track) Retarget(p seat.Placement) bool {
	t.Target = vmath.V2(p.X, p.Y)
	t.ZoneID = p.ZoneID
	if p.SeatID == t.SeatID {
		return false
	}
	t.SeatID = p.SeatID
	t.Walking = true
	t.Walks++
	return true
}

// Step eases Pos toward Target, returns true on the tick a walk arrives
func (t *Track) Step() bool {
	t.Pos = vmath.LerpV2(t.Pos, t.Target, Blend)
	if t.Pos.Dist(t.Target) >= Epsilon {
		return false
	}
	t.Pos = t.Target
	if t.Walking {
		t.Walking = false
		return true
	}
	return false
}

// Heading is -1 when moving left, 1 otherwise
func (t *Track) Heading() int {
	if t.Target.X < t.Pos.X {
		return -1
	}
	return 1
}

// Tracks is the id-keyed set of live tracks
type Tracks struct {
	byID map[string]*Track
}

// NewTracks creates an empty set
func NewTracks() *Tracks {
	return &Tracks{byID: make(map[string]*Track)}
}

// Sync applies a placement map: new ids appear on their seat, missing ids are dropped,
// survivors retarget. Returned id lists are sorted
func (ts *Tracks) Sync(placements map[string]seat.Placement) (added, removed, walking []string) {
	for id := range ts.byID {
		if _, ok := placements[id]; !ok {
			delete(ts.byID, id)
			removed = append(removed, id)
		}
	}
	for id, p := range placements {
		tr, ok := ts.byID[id]
		if !ok {
			ts.byID[id] = NewTrack(p)
			added = append(added, id)
			continue
		}
		if tr.Retarget(p) {
			walking = append(walking, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(walking)
	return added, removed, walking
}

// Step advances every track, returning the ids that arrived this tick, sorted
func (ts *Tracks) Step() []string {
	var arrived []string
	for id, tr := range ts.byID {
		if tr.Step() {
			arrived = append(arrived, id)
		}
	}
	sort.Strings(arrived)
	return arrived
}

// Get returns the track for id
func (ts *Tracks) Get(id string) (*Track, bool) {
	tr, ok := ts.byID[id]
	return tr, ok
}

func (ts *Tracks) Len() int { return len(ts.byID) }

// IDs returns live ids, sorted
func (ts *Tracks) IDs() []string {
	ids := make([]string, 0, len(ts.byID))
	for id := range ts.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Positions snapshots the current positions
func (ts *Tracks) Positions() map[string]vmath.Vec2 {
	out := make(map[string]vmath.Vec2, len(ts.byID))
	for id, tr := range ts.byID {
		out[id] = tr.Pos
	}
	return out
}

// Clear drops every track
func (ts *Tracks) Clear() {
	ts.byID = make(map[string]*Track)
}
