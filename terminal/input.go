package terminal

import (
	"github.com/gdamore/tcell/v2"
)

// Action is a host command decoded from a terminal event
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionNextTheme
	ActionCycleSelection
	ActionClearSelection
	ActionClick
	ActionPan
	ActionZoomIn
	ActionZoomOut
	ActionResize
	ActionPause
)

var actionNames = map[Action]string{
	ActionNone:           "none",
	ActionQuit:           "quit",
	ActionNextTheme:      "next-theme",
	ActionCycleSelection: "cycle-selection",
	ActionClearSelection: "clear-selection",
	ActionClick:          "click",
	ActionPan:            "pan",
	ActionZoomIn:         "zoom-in",
	ActionZoomOut:        "zoom-out",
	ActionResize:         "resize",
	ActionPause:          "pause",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// PanStep is the viewport distance one arrow key pans
const PanStep = 40.0

// Input is a decoded event; Col/Row are set for clicks, DX/DY for pans
type Input struct {
	Action Action
	Col    int
	Row    int
	DX, DY float64
}

// Translate decodes a tcell event into a host action
func Translate(ev tcell.Event) Input {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		return Input{Action: ActionResize}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return Input{}
		}
		x, y := ev.Position()
		return Input{Action: ActionClick, Col: x, Row: y}
	case *tcell.EventKey:
		return translateKey(ev)
	}
	return Input{}
}

func translateKey(ev *tcell.EventKey) Input {
	var r rune
	if ev.Key() == tcell.KeyRune {
		r = ev.Rune()
	}
	return keyAction(ev.Key(), r)
}

// keyAction maps a key, or a rune when key is KeyRune
func keyAction(key tcell.Key, r rune) Input {
	switch key {
	case tcell.KeyCtrlC:
		return Input{Action: ActionQuit}
	case tcell.KeyTab:
		return Input{Action: ActionCycleSelection}
	case tcell.KeyEscape:
		return Input{Action: ActionClearSelection}
	case tcell.KeyLeft:
		return Input{Action: ActionPan, DX: PanStep}
	case tcell.KeyRight:
		return Input{Action: ActionPan, DX: -PanStep}
	case tcell.KeyUp:
		return Input{Action: ActionPan, DY: PanStep}
	case tcell.KeyDown:
		return Input{Action: ActionPan, DY: -PanStep}
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return Input{Action: ActionQuit}
		case 't', 'T':
			return Input{Action: ActionNextTheme}
		case '+', '=':
			return Input{Action: ActionZoomIn}
		case '-', '_':
			return Input{Action: ActionZoomOut}
		case 'p', ' ':
			return Input{Action: ActionPause}
		}
	}
	return Input{}
}
