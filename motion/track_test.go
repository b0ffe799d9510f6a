package motion

import (
	"testing"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/seat"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackStartsSeated(t *testing.T) {
	tr := NewTrack(seat.Placement{X: 10, Y: 20, SeatID: "s1"})
	assert.Equal(t, vmath.V2(10, 20), tr.Pos)
	assert.False(t, tr.Walking)
	assert.False(t, tr.Step())
}

func TestRetargetSameSeatDoesNotWalk(t *testing.T) {
	tr := NewTrack(seat.Placement{X: 10, Y: 20, SeatID: "s1"})
	assert.False(t, tr.Retarget(seat.Placement{X: 50, Y: 20, SeatID: "s1"}))
	assert.False(t, tr.Walking)
	assert.Equal(t, vmath.V2(50, 20), tr.Target)

	tr.Step()
	assert.InDelta(t, 16, tr.Pos.X, 1e-9)
}

// s1=(100,100) in work, s2=(600,400) in meeting
func TestWorkingToCollaboratingConverges(t *testing.T) {
	zones := []theme.Zone{
		{ID: "work", Type: theme.ZoneWork, Seats: []theme.Seat{{ID: "s1", X: 100, Y: 100}}},
		{ID: "meet", Type: theme.ZoneMeeting, Seats: []theme.Seat{{ID: "s2", X: 600, Y: 400}}},
	}
	a := agent.Agent{ID: "a", Status: agent.StatusWorking}

	ts := NewTracks()
	added, _, _ := ts.Sync(seat.Assign([]agent.Agent{a}, zones))
	assert.Equal(t, []string{"a"}, added)

	a.Status = agent.StatusCollaborating
	_, _, walking := ts.Sync(seat.Assign([]agent.Agent{a}, zones))
	assert.Equal(t, []string{"a"}, walking)

	tr, ok := ts.Get("a")
	require.True(t, ok)
	assert.True(t, tr.Walking)
	assert.Equal(t, vmath.V2(600, 400), tr.Target)
	assert.Equal(t, "meet", tr.ZoneID)

	var arrivedAt int
	for i := 1; i <= 100 && arrivedAt == 0; i++ {
		if arrived := ts.Step(); len(arrived) > 0 {
			assert.Equal(t, []string{"a"}, arrived)
			arrivedAt = i
		}
	}
	require.NotZero(t, arrivedAt, "walk never arrived")
	assert.Less(t, arrivedAt, 60)
	assert.False(t, tr.Walking)
	assert.InDelta(t, 0, tr.Pos.Dist(vmath.V2(600, 400)), Epsilon)
}

func TestOneWalkPerStatusChange(t *testing.T) {
	zones := theme.Builtin().Zones
	a := agent.Agent{ID: "a", Status: agent.StatusWorking}
	ts := NewTracks()
	ts.Sync(seat.Assign([]agent.Agent{a}, zones))

	statuses := []agent.Status{
		agent.StatusWorking, agent.StatusIdle, agent.StatusIdle,
		agent.StatusCollaborating, agent.StatusCollaborating, agent.StatusWorking,
	}
	for _, st := range statuses {
		a.Status = st
		for i := 0; i < 3; i++ {
			ts.Sync(seat.Assign([]agent.Agent{a}, zones))
			ts.Step()
		}
	}
	tr, _ := ts.Get("a")
	assert.Equal(t, 3, tr.Walks)
}

func TestTracksDiff(t *testing.T) {
	ts := NewTracks()
	ts.Sync(map[string]seat.Placement{
		"a": {X: 1, SeatID: "x"},
		"b": {X: 2, SeatID: "y"},
	})
	added, removed, walking := ts.Sync(map[string]seat.Placement{
		"b": {X: 2, SeatID: "y"},
		"c": {X: 3, SeatID: "z"},
	})
	assert.Equal(t, []string{"c"}, added)
	assert.Equal(t, []string{"a"}, removed)
	assert.Empty(t, walking)
	assert.Equal(t, []string{"b", "c"}, ts.IDs())
	assert.Equal(t, 2, ts.Len())
	assert.Equal(t, vmath.V2(3, 0), ts.Positions()["c"])

	ts.Clear()
	assert.Zero(t, ts.Len())
}

func TestHeading(t *testing.T) {
	tr := NewTrack(seat.Placement{X: 100, SeatID: "a"})
	tr.Retarget(seat.Placement{X: 10, SeatID: "b"})
	assert.Equal(t, -1, tr.Heading())
	tr.Retarget(seat.Placement{X: 200, SeatID: "c"})
	assert.Equal(t, 1, tr.Heading())
}
