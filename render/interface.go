// Package render defines the stage backend contract and the draw list backends emit
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap"
)

// ErrInvalidViewport is the only error Init reports
var ErrInvalidViewport = errors.New("invalid viewport")

// Backend draws the office stage for one theme
// Destroy is safe at any time, including while Init is running, and idempotent
type Backend interface {
	Init(ctx context.Context, width, height float64, m *theme.Manifest, themeID string) error
	Resize(width, height float64)
	UpdateAgents(agents []agent.Agent)
	SelectAgent(id string)
	PointerDown(x, y float64)
	Tick(now time.Time)
	Render(dl *DrawList)
	Destroy()
}

// Callbacks carry selection out of a backend, invoked outside backend locks
type Callbacks struct {
	OnAgentClick     func(id string)
	OnCharacterClick func()
}

// AgentClick invokes OnAgentClick when set
func (c Callbacks) AgentClick(id string) {
	if c.OnAgentClick != nil {
		c.OnAgentClick(id)
	}
}

// CharacterClick invokes OnCharacterClick when set
func (c Callbacks) CharacterClick() {
	if c.OnCharacterClick != nil {
		c.OnCharacterClick()
	}
}

// Options configure a backend at construction
type Options struct {
	Callbacks Callbacks
	Logger    *zap.Logger
	// Assets is the shared cache, nil gives the backend a private one over no source
	Assets *asset.Cache
}

// Pannable is optionally implemented by backends with a movable camera
type Pannable interface {
	Drag(dx, dy float64)
	Zoom(factor, cx, cy float64)
}

// CheckViewport validates Init dimensions
func CheckViewport(width, height float64) error {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidViewport, width, height)
	}
	return nil
}
