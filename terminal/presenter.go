package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/vmath"
	"github.com/mattn/go-runewidth"
)

// Viewport units covered by one terminal cell
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// Presenter rasterizes frames onto a tcell screen, reserving the last row for a footer
type Presenter struct {
	screen tcell.Screen
	raster *Raster
	buf    *Buffer
	footer string
}

// NewPresenter wraps an initialized screen
func NewPresenter(screen tcell.Screen) *Presenter {
	p := &Presenter{
		screen: screen,
		raster: NewRaster(0, 0),
		buf:    NewBuffer(0, 0),
	}
	p.Sync()
	return p
}

// Sync picks up the current screen size and forces a full redraw
func (p *Presenter) Sync() {
	cols, rows := p.screen.Size()
	p.buf.Resize(cols, rows)
	p.raster.Resize(cols, max(rows-1, 0))
	p.buf.Invalidate()
}

// Viewport returns the stage size matching the drawable cell area
func (p *Presenter) Viewport() (float64, float64) {
	cols, rows := p.screen.Size()
	return float64(max(cols, 1)) * CellWidth, float64(max(rows-1, 1)) * CellHeight
}

// StagePoint maps a cell to the viewport point at its center
func (p *Presenter) StagePoint(col, row int) vmath.Vec2 {
	return vmath.V2((float64(col)+0.5)*CellWidth, (float64(row)+0.5)*CellHeight)
}

// SetFooter sets the status text shown on the last row
func (p *Presenter) SetFooter(s string) {
	p.footer = s
}

// Present draws dl and the footer, flushing only changed cells
func (p *Presenter) Present(dl *render.DrawList) int {
	cols, rows := p.screen.Size()
	if w, h := p.buf.Size(); w != cols || h != rows {
		p.Sync()
	}
	p.raster.Draw(dl)
	p.raster.Compose(p.buf)
	p.drawFooter(cols, rows)
	n := p.buf.Flush(p.screen)
	p.screen.Show()
	return n
}

func (p *Presenter) drawFooter(cols, rows int) {
	if rows == 0 {
		return
	}
	y := rows - 1
	bg := render.RgbBackground.Shade(0.6)
	for x := 0; x < cols; x++ {
		p.buf.Set(x, y, Cell{Rune: ' ', Fg: render.RgbLabelDim, Bg: bg})
	}
	text := runewidth.Truncate(p.footer, cols, "…")
	x := 0
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		p.buf.Set(x, y, Cell{Rune: ch, Fg: render.RgbLabelDim, Bg: bg})
		if w == 2 && x+1 < cols {
			p.buf.Set(x+1, y, Cell{Rune: 0, Bg: bg})
		}
		x += w
	}
}
