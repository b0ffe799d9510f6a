package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMockClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	got := c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), got)
	assert.Equal(t, got, c.Now())

	next := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c.Set(next)
	assert.Equal(t, next, c.Now())
}

func TestSystemClockMonotonic(t *testing.T) {
	var c Clock = SystemClock{}
	a := c.Now()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Now().Sub(a), 5*time.Millisecond)
}

func TestFrameLoopInterval(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{60, time.Second / 60},
		{0, time.Second / DefaultFPS},
		{-5, time.Second / DefaultFPS},
		{1000, time.Millisecond},
	}
	for _, tt := range tests {
		l := NewFrameLoop(tt.fps, nil, func(time.Time) {}, nil)
		assert.Equal(t, tt.want, l.Interval(), "fps %d", tt.fps)
	}
}

func TestFrameLoopDeliversAndStops(t *testing.T) {
	var n atomic.Int64
	l := NewFrameLoop(200, nil, func(time.Time) { n.Add(1) }, zaptest.NewLogger(t))

	l.Start()
	l.Start()
	require.Eventually(t, func() bool { return n.Load() >= 5 }, 2*time.Second, time.Millisecond)
	assert.True(t, l.Running())

	l.Stop()
	assert.False(t, l.Running())
	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no frames after Stop returns")
	assert.Equal(t, uint64(after), l.Frames())

	assert.NotPanics(t, l.Stop)
	l.Start()
	assert.False(t, l.Running(), "stopped loop does not restart")
}

func TestFrameLoopStopBeforeStart(t *testing.T) {
	l := NewFrameLoop(60, nil, func(time.Time) { t.Error("frame after stop") }, nil)
	l.Stop()
	l.Start()
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, l.Frames())
}

func TestFrameLoopPause(t *testing.T) {
	var n atomic.Int64
	l := NewFrameLoop(200, nil, func(time.Time) { n.Add(1) }, nil)
	l.SetPaused(true)
	l.Start()
	defer l.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, n.Load())
	assert.True(t, l.Paused())

	l.SetPaused(false)
	require.Eventually(t, func() bool { return n.Load() > 0 }, 2*time.Second, time.Millisecond)
}

func TestFrameLoopRecoversPanics(t *testing.T) {
	var n atomic.Int64
	l := NewFrameLoop(200, nil, func(time.Time) {
		if n.Add(1) == 1 {
			panic("bad frame")
		}
	}, zaptest.NewLogger(t))
	l.Start()
	defer l.Stop()

	require.Eventually(t, func() bool { return n.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, uint64(1), l.Panics())
}
