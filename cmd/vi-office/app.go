package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/audio"
	"github.com/lixenwraith/vi-office/config"
	"github.com/lixenwraith/vi-office/engine"
	"github.com/lixenwraith/vi-office/office"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/status"
	"github.com/lixenwraith/vi-office/terminal"
	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap"
)

const (
	themeTimeout = 10 * time.Second
	zoomStep     = 1.25
)

// app owns the stage view and everything that feeds or presents it
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	view    *office.View
	assets  *asset.Cache
	mock    *agent.MockSource
	tracker *agent.Tracker
	updates <-chan []agent.Agent
	unsub   func()
	player  *audio.Player
	clock   *engine.PausableClock
	loop    *engine.FrameLoop
	stats   *status.Registry

	// mu serializes presenter access between the frame loop and input
	mu        sync.Mutex
	pres      *terminal.Presenter
	dl        *render.DrawList
	nextStep  time.Time
	lastFrame time.Time
	lastFlush int
}

// newApp wires the view to screen, the loop is created but not started
// A nil tracker drives the stage from scripted mock agents
func newApp(cfg config.Config, screen tcell.Screen, src asset.Source, clock engine.Clock, tracker *agent.Tracker, player *audio.Player, logger *zap.Logger) *app {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		tracker: tracker,
		player:  player,
		pres:    terminal.NewPresenter(screen),
		stats:   status.NewRegistry(),
		clock:   engine.NewPausableClock(clock),
	}

	a.assets = asset.NewCache(src, logger)
	loader := theme.NewLoader(src, nil, logger)
	loader.Cache().Seed(theme.Builtin())

	w, h := a.pres.Viewport()
	a.dl = render.NewDrawList(w, h)
	opts := office.Options{
		Logger: logger,
		Loader: loader,
		Assets: a.assets,
		Callbacks: render.Callbacks{
			OnAgentClick:     func(id string) { a.view.Select(id) },
			OnCharacterClick: func() { a.logger.Debug("character clicked") },
		},
	}
	cues := a.stats.Counter("cues")
	opts.OnCue = func(id string, from, to agent.Status) {
		cues.Add(1)
		if player != nil {
			player.Cue(id, from, to)
		}
	}
	a.view = office.NewView(w, h, opts)
	if tracker != nil {
		a.updates, a.unsub = tracker.Subscribe()
	} else {
		a.mock = agent.NewMockSource(cfg.Agents)
	}
	a.loop = engine.NewFrameLoop(cfg.FPS, a.clock, a.frame, logger)
	return a
}

// start loads the first theme and begins drawing
func (a *app) start() {
	a.setTheme(a.cfg.Theme)
	a.view.UpdateAgents(a.agents())
	a.loop.Start()
}

func (a *app) close() {
	a.loop.Stop()
	if a.unsub != nil {
		a.unsub()
	}
	a.view.Close()
	if a.player != nil {
		a.player.Close()
	}
	a.stats.Label("assets").Set(a.assets.Stats().String())
	a.logger.Info("stopped", a.stats.Fields()...)
}

func (a *app) setTheme(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), themeTimeout)
	defer cancel()
	if err := a.view.SetTheme(ctx, id); err != nil {
		a.stats.Counter("theme_errors").Add(1)
		a.logger.Error("theme switch failed", zap.String("theme", id), zap.Error(err))
		return
	}
	a.stats.Counter("theme_switches").Add(1)
	a.stats.Label("theme").Set(a.view.ThemeID())
}

// frame advances the mock roster on its own cadence, then ticks and presents
func (a *app) frame(now time.Time) {
	if a.nextStep.IsZero() {
		a.nextStep = now.Add(a.cfg.Step)
	} else if !now.Before(a.nextStep) {
		a.view.UpdateAgents(a.step())
		a.nextStep = now.Add(a.cfg.Step)
		a.stats.Counter("steps").Add(1)
	}
	select {
	case snap, ok := <-a.updates:
		if ok {
			a.view.UpdateAgents(snap)
		}
	default:
	}
	if dt := now.Sub(a.lastFrame); !a.lastFrame.IsZero() && dt > 0 {
		fps := a.stats.Gauge("fps")
		fps.Set(fps.Get()*0.9 + 0.1/dt.Seconds())
	}
	a.lastFrame = now
	a.stats.Counter("frames").Add(1)
	a.view.Tick(now)
	a.present()
}

// present draws the current view state without advancing it
func (a *app) present() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Render(a.dl)
	a.pres.SetFooter(a.footer())
	a.lastFlush = a.pres.Present(a.dl)
	a.stats.Gauge("cells").Set(float64(a.lastFlush))
}

func (a *app) footer() string {
	id := a.view.ThemeID()
	if a.view.Manifest() == nil {
		id += " (legacy)"
	}
	sel := a.view.Selected()
	if sel == "" {
		sel = "-"
	}
	parts := []string{
		" " + id,
		fmt.Sprintf("%d agents", len(a.agents())),
		"sel " + sel,
		"frame " + humanize.Comma(a.stats.Counter("frames").Load()),
		fmt.Sprintf("%.0f fps", a.stats.Gauge("fps").Get()),
	}
	if a.loop.Paused() {
		parts = append(parts, "paused")
	}
	parts = append(parts, "q quit  t theme  tab select  arrows pan  +/- zoom")
	return strings.Join(parts, " | ")
}

// handle applies one input, true means quit
func (a *app) handle(in terminal.Input) bool {
	switch in.Action {
	case terminal.ActionQuit:
		return true
	case terminal.ActionNextTheme:
		a.setTheme(a.cfg.NextTheme(a.view.ThemeID()))
	case terminal.ActionCycleSelection:
		a.view.Select(nextSelection(a.agents(), a.view.Selected()))
	case terminal.ActionClearSelection:
		a.view.Select("")
	case terminal.ActionClick:
		a.mu.Lock()
		p := a.pres.StagePoint(in.Col, in.Row)
		a.mu.Unlock()
		a.view.PointerDown(p.X, p.Y)
	case terminal.ActionPan:
		if pn, ok := a.view.Pannable(); ok {
			pn.Drag(in.DX, in.DY)
		}
	case terminal.ActionZoomIn, terminal.ActionZoomOut:
		if pn, ok := a.view.Pannable(); ok {
			f := zoomStep
			if in.Action == terminal.ActionZoomOut {
				f = 1 / zoomStep
			}
			a.mu.Lock()
			w, h := a.pres.Viewport()
			a.mu.Unlock()
			pn.Zoom(f, w/2, h/2)
		}
	case terminal.ActionResize:
		a.mu.Lock()
		a.pres.Sync()
		w, h := a.pres.Viewport()
		a.mu.Unlock()
		a.view.Resize(w, h)
		a.present()
	case terminal.ActionPause:
		if a.clock.Paused() {
			a.clock.Resume()
		} else {
			a.clock.Pause()
		}
		a.loop.SetPaused(a.clock.Paused())
		a.present()
	}
	return false
}

// agents is the current roster
func (a *app) agents() []agent.Agent {
	if a.tracker != nil {
		return a.tracker.Snapshot()
	}
	return a.mock.Agents()
}

// step ages the live roster or advances the mock script
func (a *app) step() []agent.Agent {
	if a.tracker != nil {
		a.tracker.Tick()
		return a.tracker.Snapshot()
	}
	return a.mock.Advance()
}

// nextSelection returns the id after current, wrapping, or the first when current is gone
func nextSelection(agents []agent.Agent, current string) string {
	if len(agents) == 0 {
		return ""
	}
	for i, ag := range agents {
		if ag.ID == current {
			return agents[(i+1)%len(agents)].ID
		}
	}
	return agents[0].ID
}

// newSource chains the configured asset origins, nil when none are set
func newSource(cfg config.Config) (asset.Source, func()) {
	var chain asset.Chain
	var bundles *asset.BundleSource
	if cfg.ThemesDir != "" {
		chain = append(chain, asset.DirSource{Root: cfg.ThemesDir})
	}
	if cfg.BundleDir != "" {
		bundles = asset.NewBundleSource(cfg.BundleDir)
		chain = append(chain, bundles)
	}
	if cfg.BaseURL != "" {
		chain = append(chain, asset.NewHTTPSource(cfg.BaseURL))
	}
	cleanup := func() {
		if bundles != nil {
			_ = bundles.Close()
		}
	}
	if len(chain) == 0 {
		return nil, cleanup
	}
	return chain, cleanup
}
