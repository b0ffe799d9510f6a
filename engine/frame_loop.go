package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultFPS is the frame rate used when none is configured
const DefaultFPS = 60

// FrameFunc renders one frame stamped with now
type FrameFunc func(now time.Time)

// FrameLoop calls a frame callback on a fixed interval with drift correction
// Start and Stop are idempotent, a stopped loop cannot be restarted
type FrameLoop struct {
	clock    Clock
	interval time.Duration
	frame    FrameFunc
	logger   *zap.Logger

	paused  atomic.Bool
	frames  atomic.Uint64
	panics  atomic.Uint64
	running atomic.Bool
	stopped atomic.Bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFrameLoop creates a loop at fps frames per second, fps <= 0 uses DefaultFPS
// A nil clock reads the system clock
func NewFrameLoop(fps int, clock Clock, frame FrameFunc, logger *zap.Logger) *FrameLoop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameLoop{
		clock:    clock,
		interval: time.Second / time.Duration(fps),
		frame:    frame,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Interval returns the target frame period
func (l *FrameLoop) Interval() time.Duration {
	return l.interval
}

// Start launches the loop goroutine
func (l *FrameLoop) Start() {
	if l.stopped.Load() {
		return
	}
	if l.running.CompareAndSwap(false, true) {
		l.wg.Add(1)
		go l.run()
	}
}

// Stop cancels the next scheduled frame and waits for the loop to exit
func (l *FrameLoop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopChan)
		l.wg.Wait()
		l.running.Store(false)
	})
}

// Running reports whether the loop goroutine is active
func (l *FrameLoop) Running() bool {
	return l.running.Load()
}

// SetPaused suspends frame callbacks without stopping the loop
func (l *FrameLoop) SetPaused(p bool) {
	l.paused.Store(p)
}

// Paused reports whether frames are suspended
func (l *FrameLoop) Paused() bool {
	return l.paused.Load()
}

// Frames returns the number of frames delivered
func (l *FrameLoop) Frames() uint64 {
	return l.frames.Load()
}

// Panics returns the number of recovered frame panics
func (l *FrameLoop) Panics() uint64 {
	return l.panics.Load()
}

func (l *FrameLoop) run() {
	defer l.wg.Done()

	next := l.clock.Now().Add(l.interval)
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-timer.C:
		}

		now := l.clock.Now()
		if l.paused.Load() {
			// idle slower while paused
			next = now.Add(l.interval * 2)
			timer.Reset(l.interval * 2)
			continue
		}

		if !now.Before(next) {
			l.deliver(now)
			next = next.Add(l.interval)
			// drop frames instead of bursting after a stall
			if now.Sub(next) > l.interval*2 {
				next = now.Add(l.interval)
			}
		}

		wait := next.Sub(l.clock.Now())
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer.Reset(wait)
	}
}

// deliver runs one frame, a panicking frame is logged and the loop keeps going
func (l *FrameLoop) deliver(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("frame panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	l.frame(now)
	l.frames.Add(1)
}
