package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPausableClockFreezes(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewMockClock(start)
	c := NewPausableClock(src)

	src.Advance(10 * time.Second)
	assert.Equal(t, start.Add(10*time.Second), c.Now())

	c.Pause()
	c.Pause()
	assert.True(t, c.Paused())
	src.Advance(5 * time.Second)
	assert.Equal(t, start.Add(10*time.Second), c.Now(), "frozen while paused")
	assert.Equal(t, 5*time.Second, c.PausedFor())

	src.Advance(5 * time.Second)
	c.Resume()
	c.Resume()
	assert.False(t, c.Paused())
	assert.Equal(t, start.Add(10*time.Second), c.Now(), "resumes where it froze")

	src.Advance(time.Second)
	assert.Equal(t, start.Add(11*time.Second), c.Now())
	assert.Equal(t, 10*time.Second, c.PausedFor())
}

func TestPausableClockSpans(t *testing.T) {
	tests := []struct {
		name   string
		spans  []time.Duration // alternating run, pause
		wantAt time.Duration
	}{
		{"no pause", []time.Duration{3 * time.Second}, 3 * time.Second},
		{"one pause", []time.Duration{time.Second, 4 * time.Second, time.Second}, 2 * time.Second},
		{"two pauses", []time.Duration{time.Second, time.Second, time.Second, time.Second, time.Second}, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Unix(0, 0)
			src := NewMockClock(start)
			c := NewPausableClock(src)
			for i, d := range tt.spans {
				if i%2 == 1 {
					c.Pause()
				}
				src.Advance(d)
				c.Resume()
			}
			assert.Equal(t, start.Add(tt.wantAt), c.Now())
		})
	}
}

func TestPausableClockDefaultsToSystem(t *testing.T) {
	c := NewPausableClock(nil)
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
