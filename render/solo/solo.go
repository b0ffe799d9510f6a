// Package solo is the single-character scene backend
package solo

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/registry"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	registry.RegisterBackend(theme.RendererSprite, func(opts render.Options) render.Backend {
		return New(opts)
	})
}

// State is the mood of the scene
type State string

const (
	StateWorking  State = "working"
	StateIdle     State = "idle"
	StateSleeping State = "sleeping"
)

// States lists scene states in background load order
var States = []State{StateWorking, StateIdle, StateSleeping}

const (
	// FadeDuration is the background cross-fade length
	FadeDuration = 600 * time.Millisecond
	// DefaultSleepAfter is the idle time before the character falls asleep
	DefaultSleepAfter = 30 * time.Second
	MaxZoom           = 4.0

	maxFrameStep  = 250 * time.Millisecond
	defaultWidth  = 1280.0
	defaultHeight = 720.0
)

// Renderer shows one character in a full-screen scene that follows its status
type Renderer struct {
	cb      render.Callbacks
	logger  *zap.Logger
	tracker *asset.Tracker
	life    render.Lifecycle

	mu          sync.Mutex
	width       float64
	height      float64
	manifest    *theme.Manifest
	scene       theme.Scene
	backgrounds map[State]image.Image
	agent       *agent.Agent
	state       State
	prev        State
	fadeStart   time.Time
	fading      bool
	idleSince   time.Time
	sleepy      bool // idle status, eligible to fall asleep
	now         time.Time
	elapsed     time.Duration
	zoom        float64
	xf          render.Transform
	selected    string
	ready       bool
}

// New creates an uninitialized renderer
func New(opts render.Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", "solo"), zap.String("instance", uuid.NewString()))
	cache := opts.Assets
	if cache == nil {
		cache = asset.NewCache(nil, logger)
	}
	return &Renderer{
		cb:          opts.Callbacks,
		logger:      logger,
		tracker:     asset.NewTracker(cache),
		backgrounds: make(map[State]image.Image),
		state:       StateSleeping,
		zoom:        1,
		xf:          render.Identity,
	}
}

// Init loads every state background up front so switches never wait on I/O
func (r *Renderer) Init(ctx context.Context, width, height float64, m *theme.Manifest, themeID string) error {
	if err := render.CheckViewport(width, height); err != nil {
		return err
	}
	if r.life.Ended() {
		return nil
	}
	ctx, gen := r.life.Begin(ctx)

	r.mu.Lock()
	r.width, r.height = width, height
	r.manifest = m
	r.scene = sceneOf(m)
	r.zoom = 1
	r.updateView(true)
	r.mu.Unlock()

	loaded := r.loadBackgrounds(ctx, r.scene, themeID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.life.Valid(gen) {
		r.logger.Debug("init finished after teardown, discarding")
		return nil
	}
	for s, img := range loaded {
		r.backgrounds[s] = img
	}
	r.ready = true
	r.logger.Debug("solo ready", zap.String("theme", themeID), zap.Int("backgrounds", len(loaded)))
	return nil
}

func sceneOf(m *theme.Manifest) theme.Scene {
	var s theme.Scene
	if m != nil && m.Scene != nil {
		s = *m.Scene
	}
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = defaultWidth, defaultHeight
	}
	return s
}

func (r *Renderer) loadBackgrounds(ctx context.Context, s theme.Scene, themeID string) map[State]image.Image {
	out := make(map[State]image.Image)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, st := range States {
		rel, ok := s.Backgrounds[string(st)]
		if !ok || !theme.IsImagePath(rel) {
			continue
		}
		st := st
		url := theme.AssetURL(themeID, rel)
		g.Go(func() error {
			img, err := r.tracker.LoadImage(gctx, url)
			if err != nil {
				if !errors.Is(err, asset.ErrDiscarded) && !errors.Is(err, context.Canceled) {
					r.logger.Warn("background load failed, using color", zap.String("url", url), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			out[st] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Resize keeps the zoom level and re-clamps the view
func (r *Renderer) Resize(width, height float64) {
	if render.CheckViewport(width, height) != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.updateView(false)
}

// UpdateAgents shows the first agent by id, none puts the scene to sleep
func (r *Renderer) UpdateAgents(agents []agent.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.life.Ended() {
		return
	}
	if len(agents) == 0 {
		r.agent = nil
		r.sleepy = false
		r.setState(StateSleeping)
		return
	}
	sorted := agent.CloneAll(agents)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	a := sorted[0]

	wasIdle := r.agent != nil && r.agent.ID == a.ID && r.agent.Status == agent.StatusIdle
	r.agent = &a
	r.sleepy = a.Status == agent.StatusIdle
	if !r.sleepy || !wasIdle {
		r.idleSince = r.now
	}

	switch a.Status {
	case agent.StatusWorking, agent.StatusCollaborating:
		r.setState(StateWorking)
	default:
		// a continuously idle character stays asleep
		if !(r.state == StateSleeping && wasIdle && r.sleepy) {
			r.setState(StateIdle)
		}
	}
}

// setState starts a cross-fade when the state changes, caller holds mu
func (r *Renderer) setState(s State) {
	if s == r.state {
		return
	}
	r.prev, r.state = r.state, s
	r.fadeStart = r.now
	r.fading = true
	r.logger.Debug("scene state", zap.String("from", string(r.prev)), zap.String("to", string(s)))
}

// SelectAgent highlights the character when id matches it
func (r *Renderer) SelectAgent(id string) {
	r.mu.Lock()
	r.selected = id
	r.mu.Unlock()
}

// PointerDown raises both click callbacks inside the character's hit area
func (r *Renderer) PointerDown(x, y float64) {
	r.mu.Lock()
	hit := !r.life.Ended() && r.hitRect().Contains(vmath.V2(x, y))
	id := ""
	if r.agent != nil {
		id = r.agent.ID
	}
	r.mu.Unlock()
	if !hit {
		return
	}
	if id != "" {
		r.cb.AgentClick(id)
	}
	r.cb.CharacterClick()
}

// Tick advances the sleep timer, the cross-fade and overlay animation
func (r *Renderer) Tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dt time.Duration
	if !r.now.IsZero() {
		dt = min(max(now.Sub(r.now), 0), maxFrameStep)
	}
	if r.now.IsZero() {
		// timers armed before the first tick start now
		if r.idleSince.IsZero() {
			r.idleSince = now
		}
		if r.fading && r.fadeStart.IsZero() {
			r.fadeStart = now
		}
	}
	r.now = now
	r.elapsed += dt

	if r.sleepy && r.state == StateIdle && now.Sub(r.idleSince) >= r.sleepAfter() {
		r.setState(StateSleeping)
	}
	if r.fading && now.Sub(r.fadeStart) >= FadeDuration {
		r.fading = false
	}
}

func (r *Renderer) sleepAfter() time.Duration {
	if r.scene.SleepAfterSeconds > 0 {
		return time.Duration(r.scene.SleepAfterSeconds * float64(time.Second))
	}
	return DefaultSleepAfter
}

// fade returns the cross-fade progress in [0,1]
func (r *Renderer) fade() float64 {
	if !r.fading {
		return 1
	}
	return vmath.Clamp(float64(r.now.Sub(r.fadeStart))/float64(FadeDuration), 0, 1)
}

// Destroy releases this instance's backgrounds, safe to call repeatedly
func (r *Renderer) Destroy() {
	if !r.life.End() {
		return
	}
	r.mu.Lock()
	r.ready = false
	r.agent = nil
	r.backgrounds = make(map[State]image.Image)
	r.mu.Unlock()

	released := r.tracker.Close()
	r.logger.Debug("solo destroyed", zap.Int("released", released))
}

// State returns the current scene state
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Ready reports whether Init completed
func (r *Renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// View returns the current scene to viewport transform
func (r *Renderer) View() render.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.xf
}

// ===== PAN / ZOOM =====

// pannable reports whether the viewport is narrower than the scene
func (r *Renderer) pannable() bool {
	return r.width < r.scene.Width
}

// updateView recomputes the cover transform, recentering when asked, caller holds mu
func (r *Renderer) updateView(recenter bool) {
	if !r.pannable() {
		r.zoom = 1
		recenter = true
	}
	base := render.Cover(r.scene.Width, r.scene.Height, r.width, r.height)
	scale := base.Scale * r.zoom
	if recenter {
		r.xf = render.Transform{
			Scale:   scale,
			OffsetX: (r.width - r.scene.Width*scale) / 2,
			OffsetY: (r.height - r.scene.Height*scale) / 2,
		}
		return
	}
	// keep the viewport center fixed
	c := r.xf.Inverse(vmath.V2(r.width/2, r.height/2))
	r.xf = render.Transform{Scale: scale, OffsetX: r.width/2 - c.X*scale, OffsetY: r.height/2 - c.Y*scale}
	r.clampView()
}

// clampView keeps the scene covering the whole viewport
func (r *Renderer) clampView() {
	w, h := r.scene.Width*r.xf.Scale, r.scene.Height*r.xf.Scale
	r.xf.OffsetX = vmath.Clamp(r.xf.OffsetX, min(r.width-w, 0), 0)
	r.xf.OffsetY = vmath.Clamp(r.xf.OffsetY, min(r.height-h, 0), 0)
}

// Drag pans the scene on small viewports
func (r *Renderer) Drag(dx, dy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pannable() {
		return
	}
	r.xf.OffsetX += dx
	r.xf.OffsetY += dy
	r.clampView()
}

// Zoom scales around (cx, cy) on small viewports, clamped to [1, MaxZoom]
func (r *Renderer) Zoom(factor, cx, cy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pannable() || factor <= 0 {
		return
	}
	zoom := vmath.Clamp(r.zoom*factor, 1, MaxZoom)
	if zoom == r.zoom {
		return
	}
	anchor := r.xf.Inverse(vmath.V2(cx, cy))
	r.zoom = zoom
	scale := render.Cover(r.scene.Width, r.scene.Height, r.width, r.height).Scale * zoom
	r.xf = render.Transform{Scale: scale, OffsetX: cx - anchor.X*scale, OffsetY: cy - anchor.Y*scale}
	r.clampView()
}

// ===== HIT AREA =====

// percentRect maps a percentage rectangle to viewport coordinates
func (r *Renderer) percentRect(p theme.PercentRect) vmath.Rect {
	s := r.scene
	return r.xf.Rect(vmath.Rect{X: p.X / 100 * s.Width, Y: p.Y / 100 * s.Height, W: p.Width / 100 * s.Width, H: p.Height / 100 * s.Height})
}

// hitRect is the character area for the current state, falling back to the whole scene
func (r *Renderer) hitRect() vmath.Rect {
	if p, ok := r.scene.HitArea[string(r.state)]; ok {
		return r.percentRect(p)
	}
	if p, ok := r.scene.HitArea["default"]; ok {
		return r.percentRect(p)
	}
	return r.percentRect(theme.PercentRect{Width: 100, Height: 100})
}
