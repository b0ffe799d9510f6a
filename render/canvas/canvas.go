// Package canvas is the 2D layered stage backend
package canvas

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
	"github.com/lixenwraith/vi-office/motion"
	"github.com/lixenwraith/vi-office/registry"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/seat"
	"github.com/lixenwraith/vi-office/sprite"
	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	registry.RegisterBackend(theme.RendererPixi, func(opts render.Options) render.Backend {
		return New(opts)
	})
}

// maxFrameStep caps the animation delta after a stall
const maxFrameStep = 250 * time.Millisecond

type agentVisual struct {
	agent agent.Agent
	anim  *sprite.Animator // nil without an atlas
	phase float64
}

// Renderer draws zones, agents and collaboration lines onto a layered 2D stage
type Renderer struct {
	cb      render.Callbacks
	logger  *zap.Logger
	tracker *asset.Tracker
	life    render.Lifecycle

	mu          sync.Mutex
	width       float64
	height      float64
	manifest    *theme.Manifest
	themeID     string
	layers      *render.LayerStack
	xf          render.Transform
	background  image.Image
	layerImages map[string]image.Image
	frames      *sprite.FrameSet
	agents      []agent.Agent
	visuals     map[string]*agentVisual
	tracks      *motion.Tracks
	selected    string
	last        time.Time
	elapsed     time.Duration
	ready       bool
}

// New creates an uninitialized renderer
func New(opts render.Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", "canvas"), zap.String("instance", uuid.NewString()))
	cache := opts.Assets
	if cache == nil {
		cache = asset.NewCache(nil, logger)
	}
	return &Renderer{
		cb:          opts.Callbacks,
		logger:      logger,
		tracker:     asset.NewTracker(cache),
		layers:      render.NewLayerStack(nil),
		xf:          render.Identity,
		layerImages: make(map[string]image.Image),
		visuals:     make(map[string]*agentVisual),
		tracks:      motion.NewTracks(),
	}
}

// Init sets up the stage and loads theme images
// Missing or broken images degrade to flat colors and circles
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
	r.themeID = themeID
	if m != nil {
		r.layers = render.NewLayerStack(m.Layers)
	} else {
		r.layers = render.NewLayerStack(nil)
	}
	r.updateTransform()
	r.relayout()
	r.mu.Unlock()

	loaded := r.loadImages(ctx, m, themeID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.life.Valid(gen) {
		r.logger.Debug("init finished after teardown, discarding")
		return nil
	}
	r.background = loaded.background
	for id, img := range loaded.layers {
		r.layerImages[id] = img
	}
	if loaded.atlas != nil {
		r.frames = r.extractFrames(loaded.atlas, m)
	}
	if r.frames != nil {
		for _, v := range r.visuals {
			r.attachAnimator(v)
		}
	}
	r.ready = true
	r.logger.Debug("canvas ready",
		zap.String("theme", themeID),
		zap.Bool("background", r.background != nil),
		zap.Bool("atlas", r.frames != nil),
	)
	return nil
}

type loadedImages struct {
	mu         sync.Mutex
	background image.Image
	layers     map[string]image.Image
	atlas      image.Image
}

func (r *Renderer) loadImages(ctx context.Context, m *theme.Manifest, themeID string) *loadedImages {
	out := &loadedImages{layers: make(map[string]image.Image)}
	if m == nil {
		return out
	}
	g, gctx := errgroup.WithContext(ctx)
	load := func(rel string, apply func(image.Image)) {
		url := theme.AssetURL(themeID, rel)
		g.Go(func() error {
			img, err := r.tracker.LoadImage(gctx, url)
			if err != nil {
				r.loadFailed(url, err)
				return nil
			}
			out.mu.Lock()
			apply(img)
			out.mu.Unlock()
			return nil
		})
	}

	if theme.IsImagePath(m.Canvas.Background) {
		load(m.Canvas.Background, func(img image.Image) { out.background = img })
	}
	for _, l := range m.Layers {
		if l.Image == "" {
			continue
		}
		id := l.ID
		load(l.Image, func(img image.Image) { out.layers[id] = img })
	}
	if m.Characters.Atlas != "" {
		load(m.Characters.Atlas, func(img image.Image) { out.atlas = img })
	}
	_ = g.Wait()
	return out
}

func (r *Renderer) loadFailed(url string, err error) {
	if errors.Is(err, asset.ErrDiscarded) || errors.Is(err, context.Canceled) {
		return
	}
	r.logger.Warn("asset load failed, degrading", zap.String("url", url), zap.Error(err))
}

func (r *Renderer) extractFrames(atlas image.Image, m *theme.Manifest) *sprite.FrameSet {
	c := m.Characters
	fw, fh := c.FrameWidth, c.FrameHeight
	if fw <= 0 || fh <= 0 {
		b := atlas.Bounds()
		fw, fh = b.Dx()/sprite.DefaultFrames, b.Dy()/len(sprite.States)
	}
	fs, err := sprite.ExtractWithDefs(atlas, fw, fh, c.Frames)
	if err != nil {
		r.logger.Warn("atlas unusable, using circles", zap.String("atlas", c.Atlas), zap.Error(err))
		return nil
	}
	return fs
}

// Resize re-fits the stage, agents ease to their new positions without walking
func (r *Renderer) Resize(width, height float64) {
	if render.CheckViewport(width, height) != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.updateTransform()
	r.relayout()
}

// UpdateAgents replaces the agent snapshot
func (r *Renderer) UpdateAgents(agents []agent.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.life.Ended() {
		return
	}
	r.agents = agent.CloneAll(agents)
	r.relayout()
}

// SelectAgent highlights id, empty clears
func (r *Renderer) SelectAgent(id string) {
	r.mu.Lock()
	r.selected = id
	r.mu.Unlock()
}

// PointerDown selects the topmost agent under the pointer
func (r *Renderer) PointerDown(x, y float64) {
	r.mu.Lock()
	hit := r.hitTest(x, y)
	r.mu.Unlock()
	if hit != "" {
		r.cb.AgentClick(hit)
	}
}

// Tick advances interpolation and sprite animation
func (r *Renderer) Tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dt time.Duration
	if !r.last.IsZero() {
		dt = min(max(now.Sub(r.last), 0), maxFrameStep)
	}
	r.last = now
	r.elapsed += dt

	for _, id := range r.tracks.Step() {
		if v, ok := r.visuals[id]; ok && v.anim != nil {
			v.anim.Play(r.frames.Get(restState(v.agent.Status)))
		}
	}
	for _, v := range r.visuals {
		if v.anim != nil {
			v.anim.Advance(dt)
		}
	}
}

// Destroy releases this instance's assets, safe to call repeatedly
func (r *Renderer) Destroy() {
	if !r.life.End() {
		return
	}
	r.mu.Lock()
	r.ready = false
	r.visuals = make(map[string]*agentVisual)
	r.tracks.Clear()
	r.agents = nil
	r.frames = nil
	r.background = nil
	r.layerImages = make(map[string]image.Image)
	r.mu.Unlock()

	released := r.tracker.Close()
	r.logger.Debug("canvas destroyed", zap.Int("released", released))
}

// Ready reports whether Init completed
func (r *Renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// HasAnimator reports whether the agent renders as an animated sprite
func (r *Renderer) HasAnimator(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visuals[id]
	return ok && v.anim != nil
}

// Track returns a copy of an agent's interpolation state
func (r *Renderer) Track(id string) (motion.Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tr, ok := r.tracks.Get(id)
	if !ok {
		return motion.Track{}, false
	}
	return *tr, true
}

// ===== LAYOUT =====

func (r *Renderer) themed() bool {
	return r.manifest != nil && seat.HasSeats(r.manifest.Zones)
}

func (r *Renderer) updateTransform() {
	if r.themed() {
		r.xf = render.Fit(r.manifest.Canvas.Width, r.manifest.Canvas.Height, r.width, r.height)
		return
	}
	r.xf = render.Identity
}

// relayout recomputes placements and diffs visuals, caller holds mu
func (r *Renderer) relayout() {
	var placements map[string]seat.Placement
	if r.themed() {
		placements = seat.Assign(r.agents, r.manifest.Zones)
	} else {
		placements = seat.Legacy(r.agents, r.width, r.height)
	}

	added, removed, walking := r.tracks.Sync(placements)
	for _, id := range removed {
		delete(r.visuals, id)
	}
	byID := agent.Index(r.agents)
	for _, id := range added {
		v := &agentVisual{phase: phaseOf(id)}
		r.visuals[id] = v
	}
	for id, v := range r.visuals {
		if i, ok := byID[id]; ok {
			v.agent = r.agents[i]
		}
		if v.anim == nil {
			r.attachAnimator(v)
		}
	}

	walkingSet := make(map[string]bool, len(walking))
	for _, id := range walking {
		walkingSet[id] = true
	}
	for id, v := range r.visuals {
		if v.anim == nil {
			continue
		}
		tr, _ := r.tracks.Get(id)
		switch {
		case walkingSet[id] || (tr != nil && tr.Walking):
			v.anim.Play(r.frames.Get(walkState(tr)))
		default:
			v.anim.Play(r.frames.Get(restState(v.agent.Status)))
		}
	}
}

func (r *Renderer) attachAnimator(v *agentVisual) {
	if r.frames == nil {
		return
	}
	v.anim = sprite.NewAnimator(r.frames.Get(restState(v.agent.Status)))
}

func restState(s agent.Status) sprite.State {
	if s == agent.StatusWorking || s == agent.StatusCollaborating {
		return sprite.StateWorking
	}
	return sprite.StateIdle
}

func walkState(tr *motion.Track) sprite.State {
	if tr != nil && tr.Heading() < 0 {
		return sprite.StateWalkLeft
	}
	return sprite.StateWalkRight
}

// phaseOf spreads per-agent animation phases deterministically
func phaseOf(id string) float64 {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return float64(h%1000) / 1000
}

// ===== HIT TESTING =====

// radius is the agent visual radius in viewport units
func (r *Renderer) radius() float64 {
	rad := seat.AvatarRadius
	if r.frames != nil && r.manifest != nil {
		s := r.manifest.Characters.Scale
		if s <= 0 {
			s = 1
		}
		rad = max(rad, float64(max(r.frames.FrameWidth, r.frames.FrameHeight))*s/2)
	}
	return r.xf.Len(rad)
}

// drawOrder sorts agents back to front: lower on screen draws later
func (r *Renderer) drawOrder() []string {
	ids := r.tracks.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := r.tracks.Get(ids[i])
		b, _ := r.tracks.Get(ids[j])
		return a.Pos.Y < b.Pos.Y
	})
	return ids
}

func (r *Renderer) hitTest(x, y float64) string {
	if r.life.Ended() {
		return ""
	}
	rad := r.radius()
	order := r.drawOrder()
	for i := len(order) - 1; i >= 0; i-- {
		tr, _ := r.tracks.Get(order[i])
		p := r.xf.Point(tr.Pos)
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy <= rad*rad {
			return order[i]
		}
	}
	return ""
}
