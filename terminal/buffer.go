// Package terminal presents draw lists on a tcell screen and translates terminal input
package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-office/render"
)

// Cell is one terminal character with true colors
type Cell struct {
	Rune rune
	Fg   render.RGB
	Bg   render.RGB
	Bold bool
}

func (c Cell) style() tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(c.Fg.R), int32(c.Fg.G), int32(c.Fg.B))).
		Background(tcell.NewRGBColor(int32(c.Bg.R), int32(c.Bg.G), int32(c.Bg.B))).
		Bold(c.Bold)
}

// Buffer is a cell grid with a front copy for diffed flushes
type Buffer struct {
	cells  []Cell
	front  []Cell
	width  int
	height int
	valid  bool // front reflects the screen
}

// NewBuffer creates a buffer of the given size
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Size returns the buffer dimensions in cells
func (b *Buffer) Size() (int, int) {
	return b.width, b.height
}

// Resize adjusts dimensions, reallocating only when capacity is short
func (b *Buffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
		b.front = make([]Cell, size)
	} else {
		b.cells = b.cells[:size]
		b.front = b.front[:size]
	}
	b.width, b.height = width, height
	b.valid = false
	b.Clear(render.RgbBackground)
}

// Clear fills every cell with a blank of color bg
func (b *Buffer) Clear(bg render.RGB) {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = Cell{Rune: ' ', Fg: render.RgbLabel, Bg: bg}
	// exponential copy
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the cell at x, y
func (b *Buffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return Cell{}
	}
	return b.cells[y*b.width+x]
}

// Set writes a full cell
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = c
}

// SetFgOnly writes rune and foreground, keeping the background
func (b *Buffer) SetFgOnly(x, y int, r rune, fg render.RGB, bold bool) {
	if !b.inBounds(x, y) {
		return
	}
	dst := &b.cells[y*b.width+x]
	dst.Rune = r
	dst.Fg = fg
	dst.Bold = bold
}

// Invalidate forces the next Flush to rewrite every cell
func (b *Buffer) Invalidate() {
	b.valid = false
}

// Flush writes changed cells to screen and returns how many were written
func (b *Buffer) Flush(screen tcell.Screen) int {
	written := 0
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			i := y*b.width + x
			c := b.cells[i]
			if b.valid && c == b.front[i] {
				continue
			}
			if c.Rune == 0 {
				// trailing half of a wide rune
				b.front[i] = c
				continue
			}
			screen.SetContent(x, y, c.Rune, nil, c.style())
			b.front[i] = c
			written++
		}
	}
	b.valid = true
	return written
}
