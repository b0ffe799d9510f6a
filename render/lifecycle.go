package render

import (
	"context"
	"sync"
)

// Lifecycle is a generation token shared by Init and Destroy
// Work started under one generation is applied only while that generation is live
type Lifecycle struct {
	mu     sync.Mutex
	gen    uint64
	live   bool
	ended  bool
	cancel context.CancelFunc
}

// Begin opens a new generation bound to a cancellable child of parent
// After End, Begin returns an already cancelled context and a dead generation
func (l *Lifecycle) Begin(parent context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	ctx, cancel := context.WithCancel(parent)
	if l.ended {
		cancel()
		return ctx, l.gen
	}
	l.cancel = cancel
	l.live = true
	return ctx, l.gen
}

// Valid reports whether gen is the current live generation
func (l *Lifecycle) Valid(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live && gen == l.gen
}

// End kills the current generation permanently
// Returns true only on the first call
func (l *Lifecycle) End() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ended {
		return false
	}
	l.ended = true
	l.live = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// Ended reports whether End ran
func (l *Lifecycle) Ended() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ended
}
