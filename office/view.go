// Package office wires theme loading, backend selection and agent updates into one stage view
package office

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/registry"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap"

	// backends register themselves
	_ "github.com/lixenwraith/vi-office/render/canvas"
	_ "github.com/lixenwraith/vi-office/render/iso"
	_ "github.com/lixenwraith/vi-office/render/solo"
)

// CueFunc is notified when an agent's status changes between snapshots
type CueFunc func(id string, from, to agent.Status)

// Options configure a View
type Options struct {
	Logger    *zap.Logger
	Loader    *theme.Loader
	Assets    *asset.Cache
	Callbacks render.Callbacks
	OnCue     CueFunc
}

// NewBackend builds the backend selected by the manifest, nil selects the 2D stage
func NewBackend(m *theme.Manifest, opts render.Options) (render.Backend, error) {
	kind := m.Kind()
	factory, ok := registry.GetBackend(kind)
	if !ok {
		return nil, fmt.Errorf("no backend registered for renderer %q", kind)
	}
	return factory(opts), nil
}

// View owns exactly one backend at a time and replays state into replacements
type View struct {
	logger *zap.Logger
	loader *theme.Loader
	assets *asset.Cache
	cb     render.Callbacks
	onCue  CueFunc

	mu       sync.Mutex
	backend  render.Backend
	manifest *theme.Manifest
	themeID  string
	gen      uint64
	width    float64
	height   float64
	agents   []agent.Agent
	statuses map[string]agent.Status
	selected string
	closed   bool
}

// NewView creates a view for a width by height viewport
func NewView(width, height float64, opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	assets := opts.Assets
	if assets == nil {
		assets = asset.NewCache(nil, logger)
	}
	loader := opts.Loader
	if loader == nil {
		loader = theme.NewLoader(nil, nil, logger)
	}
	return &View{
		logger:   logger.Named("office"),
		loader:   loader,
		assets:   assets,
		cb:       opts.Callbacks,
		onCue:    opts.OnCue,
		width:    width,
		height:   height,
		statuses: make(map[string]agent.Status),
	}
}

// SetTheme loads themeID and swaps in a freshly initialized backend
// A theme that fails to load falls back to the legacy layout, an empty id selects it directly
func (v *View) SetTheme(ctx context.Context, themeID string) error {
	var m *theme.Manifest
	if themeID != "" {
		loaded, err := v.loader.Load(ctx, themeID)
		if err != nil {
			v.logger.Warn("theme load failed, using legacy layout", zap.String("theme", themeID), zap.Error(err))
		} else {
			m = loaded
		}
	}

	b, err := NewBackend(m, render.Options{
		Callbacks: v.cb,
		Logger:    v.logger,
		Assets:    v.assets,
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		b.Destroy()
		return nil
	}
	v.gen++
	gen := v.gen
	width, height := v.width, v.height
	v.mu.Unlock()

	if err := b.Init(ctx, width, height, m, themeID); err != nil {
		b.Destroy()
		return err
	}

	v.mu.Lock()
	if v.closed || v.gen != gen {
		// a newer SetTheme or Close won the race
		v.mu.Unlock()
		b.Destroy()
		return nil
	}
	old := v.backend
	v.backend = b
	v.manifest = m
	v.themeID = themeID
	if v.width != width || v.height != height {
		b.Resize(v.width, v.height)
	}
	b.UpdateAgents(v.agents)
	b.SelectAgent(v.selected)
	v.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
	v.logger.Info("theme active",
		zap.String("theme", themeID),
		zap.String("renderer", string(m.Kind())),
		zap.Bool("legacy", m == nil),
	)
	return nil
}

// Resize forwards the viewport size, invalid sizes are ignored
func (v *View) Resize(width, height float64) {
	if render.CheckViewport(width, height) != nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width, v.height = width, height
	if v.backend != nil {
		v.backend.Resize(width, height)
	}
}

// UpdateAgents forwards a snapshot and reports status changes to the cue hook
func (v *View) UpdateAgents(agents []agent.Agent) {
	v.mu.Lock()
	v.agents = agent.CloneAll(agents)
	type change struct {
		id       string
		from, to agent.Status
	}
	var changes []change
	next := make(map[string]agent.Status, len(agents))
	for _, a := range agents {
		next[a.ID] = a.Status
		if prev, ok := v.statuses[a.ID]; ok && prev != a.Status {
			changes = append(changes, change{a.ID, prev, a.Status})
		}
	}
	v.statuses = next
	if v.backend != nil {
		v.backend.UpdateAgents(v.agents)
	}
	v.mu.Unlock()

	if v.onCue != nil {
		for _, c := range changes {
			v.onCue(c.id, c.from, c.to)
		}
	}
}

// Select highlights an agent, empty clears
func (v *View) Select(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = id
	if v.backend != nil {
		v.backend.SelectAgent(id)
	}
}

// Selected returns the highlighted agent id
func (v *View) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// PointerDown forwards a click; callbacks run without the view lock held
func (v *View) PointerDown(x, y float64) {
	if b := v.Backend(); b != nil {
		b.PointerDown(x, y)
	}
}

// Tick advances the active backend
func (v *View) Tick(now time.Time) {
	if b := v.Backend(); b != nil {
		b.Tick(now)
	}
}

// Render draws the active backend, or an empty frame before the first theme
func (v *View) Render(dl *render.DrawList) {
	b := v.Backend()
	if b == nil {
		v.mu.Lock()
		dl.Reset(v.width, v.height, render.RgbBackground)
		v.mu.Unlock()
		return
	}
	b.Render(dl)
}

// Backend returns the active backend
func (v *View) Backend() render.Backend {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.backend
}

// Pannable returns the active backend's pan/zoom capability
func (v *View) Pannable() (render.Pannable, bool) {
	p, ok := v.Backend().(render.Pannable)
	return p, ok
}

// Manifest returns the active manifest, nil in legacy mode
func (v *View) Manifest() *theme.Manifest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manifest
}

// ThemeID returns the requested theme of the active backend
func (v *View) ThemeID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.themeID
}

// Close destroys the active backend, later SetTheme calls are discarded
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	b := v.backend
	v.backend = nil
	v.mu.Unlock()
	if b != nil {
		b.Destroy()
	}
	v.logger.Debug("view closed", zap.String("stats", v.assets.Stats().String()))
}
