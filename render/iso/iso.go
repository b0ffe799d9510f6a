// Package iso is the orthographic 3D stage backend
package iso

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/motion"
	"github.com/lixenwraith/vi-office/registry"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/seat"
	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	registry.RegisterBackend(theme.RendererThreeJS, func(opts render.Options) render.Backend {
		return New(opts)
	})
}

const (
	// unitsPerWorld converts manifest units to world units
	unitsPerWorld = 40.0
	botHeight     = 1.0
	bodyRadius    = 0.35
	statusRadius  = 0.12

	// legacy stage used when the manifest has no seats
	legacyWidth  = 1200.0
	legacyHeight = 800.0
)

type agentVisual struct {
	agent agent.Agent
	model *asset.Model // per-agent clone, nil renders a sphere
	label *image.RGBA
	name  string // text the label was rendered from
}

// Renderer draws the office as a shaded isometric scene
type Renderer struct {
	cb      render.Callbacks
	logger  *zap.Logger
	tracker *asset.Tracker
	life    render.Lifecycle

	mu       sync.Mutex
	width    float64
	height   float64
	manifest *theme.Manifest
	themeID  string
	layers   *render.LayerStack
	cam      *camera
	light    *lights
	bot      *asset.Model // shared, never mutated
	statics  []*node      // room and furniture meshes
	agents   []agent.Agent
	visuals  map[string]*agentVisual
	tracks   *motion.Tracks
	selected string
	ready    bool
}

// New creates an uninitialized renderer
func New(opts render.Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", "iso"), zap.String("instance", uuid.NewString()))
	cache := opts.Assets
	if cache == nil {
		cache = asset.NewCache(nil, logger)
	}
	return &Renderer{
		cb:      opts.Callbacks,
		logger:  logger,
		tracker: asset.NewTracker(cache),
		layers:  render.NewLayerStack(nil),
		cam:     newCamera(nil),
		light:   newLights(nil),
		visuals: make(map[string]*agentVisual),
		tracks:  motion.NewTracks(),
	}
}

// Init sets up camera and lights and loads the room, furniture and bot models
// Failed models are skipped, a failed bot model renders agents as spheres
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
		r.cam = newCamera(m.Camera)
		r.light = newLights(m.Lighting)
	}
	r.fitCamera()
	r.relayout()
	r.mu.Unlock()

	loaded := r.loadModels(ctx, m, themeID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.life.Valid(gen) {
		r.logger.Debug("init finished after teardown, discarding")
		return nil
	}
	r.statics = r.staticMeshes(loaded.placed)
	r.bot = loaded.bot
	for _, v := range r.visuals {
		r.attachModel(v)
	}
	r.ready = true
	r.logger.Debug("iso ready",
		zap.String("theme", themeID),
		zap.Int("static_meshes", len(r.statics)),
		zap.Bool("bot_model", r.bot != nil),
	)
	return nil
}

type placedModel struct {
	model    *asset.Model
	pos      [2]float64 // manifest coordinates
	rotation float64    // degrees
	scale    float64
	origin   bool // room model, centered at the world origin
}

type loadedModels struct {
	mu     sync.Mutex
	placed []placedModel
	bot    *asset.Model
}

func (r *Renderer) loadModels(ctx context.Context, m *theme.Manifest, themeID string) *loadedModels {
	out := &loadedModels{}
	if m == nil || m.Room == nil {
		return out
	}
	g, gctx := errgroup.WithContext(ctx)
	load := func(rel string, apply func(*asset.Model)) {
		url := theme.AssetURL(themeID, rel)
		g.Go(func() error {
			model, err := r.tracker.LoadModel(gctx, url)
			if err != nil {
				r.loadFailed(url, err)
				return nil
			}
			out.mu.Lock()
			apply(model)
			out.mu.Unlock()
			return nil
		})
	}

	room := m.Room
	if room.Model != "" {
		scale := room.Scale
		if scale <= 0 {
			scale = 1
		}
		load(room.Model, func(model *asset.Model) {
			out.placed = append(out.placed, placedModel{model: model, scale: scale, origin: true})
		})
	}
	for _, f := range room.Furniture {
		f := f
		scale := f.Scale
		if scale <= 0 {
			scale = 1
		}
		load(f.Model, func(model *asset.Model) {
			out.placed = append(out.placed, placedModel{
				model:    model,
				pos:      [2]float64{f.X, f.Y},
				rotation: f.Rotation,
				scale:    scale,
			})
		})
	}
	if room.BotModel != "" {
		load(room.BotModel, func(model *asset.Model) { out.bot = model })
	}
	_ = g.Wait()
	return out
}

func (r *Renderer) loadFailed(url string, err error) {
	if errors.Is(err, asset.ErrDiscarded) || errors.Is(err, context.Canceled) {
		return
	}
	r.logger.Warn("model load failed, skipping", zap.String("url", url), zap.Error(err))
}

// Resize refits the camera to the new viewport
func (r *Renderer) Resize(width, height float64) {
	if render.CheckViewport(width, height) != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.fitCamera()
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

// PointerDown casts a ray into the scene and reports the nearest agent hit
func (r *Renderer) PointerDown(x, y float64) {
	r.mu.Lock()
	hit := r.pick(x, y)
	r.mu.Unlock()
	if hit != "" {
		r.cb.AgentClick(hit)
	}
}

// Tick advances agent interpolation
func (r *Renderer) Tick(time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks.Step()
}

// Destroy releases this instance's models, safe to call repeatedly
func (r *Renderer) Destroy() {
	if !r.life.End() {
		return
	}
	r.mu.Lock()
	r.ready = false
	r.visuals = make(map[string]*agentVisual)
	r.tracks.Clear()
	r.agents = nil
	r.statics = nil
	r.bot = nil
	r.mu.Unlock()

	released := r.tracker.Close()
	r.logger.Debug("iso destroyed", zap.Int("released", released))
}

// Ready reports whether Init completed
func (r *Renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// HasModel reports whether the agent renders with the bot model
func (r *Renderer) HasModel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visuals[id]
	return ok && v.model != nil
}

// Project maps a manifest point on the floor to viewport coordinates
func (r *Renderer) Project(x, y float64) (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.cam.project(r.toWorld(x, y, 0))
	return p.X, p.Y
}

// ===== LAYOUT =====

func (r *Renderer) themed() bool {
	return r.manifest != nil && seat.HasSeats(r.manifest.Zones)
}

// stageSize is the manifest extent mapped onto the floor
func (r *Renderer) stageSize() (float64, float64) {
	if r.themed() && r.manifest.Canvas.Width > 0 && r.manifest.Canvas.Height > 0 {
		return r.manifest.Canvas.Width, r.manifest.Canvas.Height
	}
	return legacyWidth, legacyHeight
}

// fitCamera sizes the projection so the floor fills the viewport, caller holds mu
func (r *Renderer) fitCamera() {
	r.cam.fit(r.floorCorners(), r.width, r.height)
}

func (r *Renderer) relayout() {
	var placements map[string]seat.Placement
	if r.themed() {
		placements = seat.Assign(r.agents, r.manifest.Zones)
	} else {
		w, h := r.stageSize()
		placements = seat.Legacy(r.agents, w, h)
	}

	_, removed, _ := r.tracks.Sync(placements)
	for _, id := range removed {
		delete(r.visuals, id)
	}
	byID := agent.Index(r.agents)
	for id := range placements {
		v, ok := r.visuals[id]
		if !ok {
			v = &agentVisual{}
			r.visuals[id] = v
		}
		if i, ok := byID[id]; ok {
			v.agent = r.agents[i]
		}
		r.attachModel(v)
		if name := v.agent.DisplayName(); v.label == nil || v.name != name {
			v.name = name
			v.label = render.Label(name, render.RgbLabel, render.RGBBlack, 160)
		}
	}
}

// attachModel clones the bot model so tinting one agent leaves the others alone
func (r *Renderer) attachModel(v *agentVisual) {
	if r.bot == nil {
		return
	}
	if v.model == nil {
		v.model = r.bot.Clone()
	}
	v.model.Tint(render.AgentColor(v.agent, r.manifest).NRGBA(255))
}
