// Package sprite slices character atlases into frame sets and animates them
package sprite

import (
	"errors"
	"fmt"
	"image"

	"github.com/lixenwraith/vi-office/theme"
)

// State names one animation row of a character atlas
type State string

const (
	StateIdle      State = "idle"
	StateWorking   State = "working"
	StateWalkRight State = "walk-right"
	StateWalkLeft  State = "walk-left"
)

// States lists atlas rows in sheet order
var States = []State{StateIdle, StateWorking, StateWalkRight, StateWalkLeft}

const (
	DefaultFrames = 4
	DefaultFPS    = 8.0
)

var (
	ErrSheetTooSmall = errors.New("sprite sheet smaller than frame grid")
	ErrNoSubImage    = errors.New("sprite sheet does not support sub-images")
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Set is one animation: frames are views into the shared sheet
type Set struct {
	Name   State
	Frames []image.Image
	Rects  []image.Rectangle
	FPS    float64
}

// Len returns the frame count
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// FrameSet holds every animation of one atlas, shared read-only across agents
type FrameSet struct {
	FrameWidth  int
	FrameHeight int
	sets        map[State]*Set
}

// Get returns the set for state, nil when absent
func (fs *FrameSet) Get(state State) *Set {
	if fs == nil {
		return nil
	}
	return fs.sets[state]
}

// Extract slices a 4x4 sheet: rows idle, working, walk-right, walk-left
func Extract(sheet image.Image, frameW, frameH int) (*FrameSet, error) {
	return ExtractWithDefs(sheet, frameW, frameH, nil)
}

// ExtractWithDefs slices sheet honouring per-state row, count and fps overrides
func ExtractWithDefs(sheet image.Image, frameW, frameH int, defs map[string]theme.FrameDef) (*FrameSet, error) {
	if sheet == nil {
		return nil, fmt.Errorf("extract: nil sheet")
	}
	if frameW <= 0 || frameH <= 0 {
		return nil, fmt.Errorf("extract: frame size %dx%d: %w", frameW, frameH, ErrSheetTooSmall)
	}
	si, ok := sheet.(subImager)
	if !ok {
		return nil, ErrNoSubImage
	}

	b := sheet.Bounds()
	cols := b.Dx() / frameW
	rows := b.Dy() / frameH

	fs := &FrameSet{FrameWidth: frameW, FrameHeight: frameH, sets: make(map[State]*Set, len(States))}
	for i, st := range States {
		def := theme.FrameDef{Row: i, Count: DefaultFrames, FPS: DefaultFPS}
		if d, ok := defs[string(st)]; ok {
			def.Row = d.Row
			if d.Count > 0 {
				def.Count = d.Count
			}
			if d.FPS > 0 {
				def.FPS = d.FPS
			}
		}
		if def.Row >= rows || def.Count > cols {
			return nil, fmt.Errorf("extract %s: row %d count %d on %dx%d grid: %w",
				st, def.Row, def.Count, cols, rows, ErrSheetTooSmall)
		}

		set := &Set{Name: st, FPS: def.FPS}
		for f := 0; f < def.Count; f++ {
			r := image.Rect(f*frameW, def.Row*frameH, (f+1)*frameW, (def.Row+1)*frameH).Add(b.Min)
			set.Rects = append(set.Rects, r)
			set.Frames = append(set.Frames, si.SubImage(r))
		}
		fs.sets[st] = set
	}
	return fs, nil
}
