package engine

import (
	"sync"
	"time"
)

// PausableClock is stage time: the source clock minus every paused span
// While paused Now stays frozen at the pause point
type PausableClock struct {
	mu          sync.RWMutex
	source      Clock
	paused      bool
	pausedAt    time.Time     // source time the current pause began
	pausedTotal time.Duration // completed pauses
}

// NewPausableClock wraps source, nil uses the system clock
func NewPausableClock(source Clock) *PausableClock {
	if source == nil {
		source = SystemClock{}
	}
	return &PausableClock{source: source}
}

// Now returns stage time
func (c *PausableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.paused {
		return c.pausedAt.Add(-c.pausedTotal)
	}
	return c.source.Now().Add(-c.pausedTotal)
}

// Pause freezes stage time, repeated calls are no-ops
func (c *PausableClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.source.Now()
}

// Resume continues from where Pause froze
func (c *PausableClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.pausedTotal += c.source.Now().Sub(c.pausedAt)
	c.pausedAt = time.Time{}
}

func (c *PausableClock) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// PausedFor is the total paused duration including a pause in progress
func (c *PausableClock) PausedFor() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.pausedTotal
	if c.paused {
		total += c.source.Now().Sub(c.pausedAt)
	}
	return total
}
