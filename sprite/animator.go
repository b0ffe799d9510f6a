package sprite

import (
	"image"
	"time"
)

// Animator plays one Set at a time
type Animator struct {
	set      *Set
	frame    int
	elapsed  time.Duration
	switches int
}

// NewAnimator starts playing set
func NewAnimator(set *Set) *Animator {
	a := &Animator{}
	a.Play(set)
	return a
}

// Play switches to set unless it is already playing
// Returns true when a switch happened
func (a *Animator) Play(set *Set) bool {
	if set == nil || set == a.set {
		return false
	}
	a.set = set
	a.frame = 0
	a.elapsed = 0
	a.switches++
	return true
}

// Advance steps frames by dt at the set's fps
func (a *Animator) Advance(dt time.Duration) {
	n := a.set.Len()
	if n <= 1 || dt <= 0 {
		return
	}
	fps := a.set.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	step := time.Duration(float64(time.Second) / fps)
	a.elapsed += dt
	for a.elapsed >= step {
		a.elapsed -= step
		a.frame = (a.frame + 1) % n
	}
}

// Frame returns the current image, nil before any Play
func (a *Animator) Frame() image.Image {
	if a.set.Len() == 0 {
		return nil
	}
	return a.set.Frames[a.frame]
}

// Index returns the current frame number
func (a *Animator) Index() int { return a.frame }

// Current returns the playing set
func (a *Animator) Current() *Set { return a.set }

// Switches counts effective Play calls
func (a *Animator) Switches() int { return a.switches }
