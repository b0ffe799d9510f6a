package iso

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// cubeGLTF is a single unit cube part with an orange material
const cubeGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "cube", "nodes": [0]}],
  "nodes": [{"name": "body", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"name": "paint", "pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0, 1]}}],
  "accessors": [{"componentType": 5126, "count": 8, "type": "VEC3", "min": [-0.5, 0, -0.5], "max": [0.5, 1, 0.5]}]
}`

func isoManifest() *theme.Manifest {
	m := theme.Builtin()
	m.ID = "iso-office"
	m.Renderer = theme.RendererThreeJS
	m.Room = &theme.Room{
		Model:    "models/room.gltf",
		BotModel: "models/bot.gltf",
		Furniture: []theme.Furniture{
			{ID: "desk-a", Model: "models/desk.gltf", X: 160, Y: 100},
			{ID: "desk-b", Model: "models/desk.gltf", X: 390, Y: 100, Rotation: 90},
		},
	}
	return m
}

func url(m *theme.Manifest, rel string) string {
	return theme.AssetURL(m.ID, rel)
}

type harness struct {
	r      *Renderer
	src    *asset.MemSource
	cache  *asset.Cache
	clicks []string
}

func newHarness(t *testing.T) *harness {
	h := &harness{src: asset.NewMemSource()}
	h.cache = asset.NewCache(h.src, zaptest.NewLogger(t))
	h.r = New(render.Options{
		Logger: zaptest.NewLogger(t),
		Assets: h.cache,
		Callbacks: render.Callbacks{
			OnAgentClick: func(id string) { h.clicks = append(h.clicks, id) },
		},
	})
	return h
}

func (h *harness) putModels(m *theme.Manifest) {
	for _, rel := range []string{"models/room.gltf", "models/bot.gltf", "models/desk.gltf"} {
		h.src.Put(url(m, rel), []byte(cubeGLTF))
	}
}

func frame(r *Renderer) *render.DrawList {
	dl := render.NewDrawList(0, 0)
	r.Render(dl)
	return dl
}

func count(cmds []render.Cmd, k render.Kind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// screenAt projects a manifest point lifted h world units off the floor
func screenAt(r *Renderer, x, y, h float64) vmath.Vec2 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cam.project(r.toWorld(x, y, h))
}

func TestCameraRoundTrip(t *testing.T) {
	cam := newCamera(nil)
	cam.fit([]vmath.Vec3F{{X: -10, Z: -10}, {X: 10, Z: -10}, {X: 10, Z: 10}, {X: -10, Z: 10}}, 800, 600)

	assert.InDelta(t, 1, vmath.V3FMag(cam.forward), 1e-9)
	assert.InDelta(t, 0, vmath.V3FDot(cam.forward, cam.right), 1e-9)
	assert.InDelta(t, 0, vmath.V3FDot(cam.forward, cam.up), 1e-9)

	c := cam.project(cam.target)
	assert.InDelta(t, 400, c.X, 1e-9)
	assert.InDelta(t, 300, c.Y, 1e-9)

	// any point on the pick ray projects back onto the pointer
	ray := cam.ray(123, 456)
	for _, d := range []float64{10, 1000, 1500} {
		p := cam.project(ray.At(d))
		assert.InDelta(t, 123, p.X, 1e-6)
		assert.InDelta(t, 456, p.Y, 1e-6)
	}
}

func TestCameraFromManifest(t *testing.T) {
	cam := newCamera(&theme.Camera{Position: [3]float64{0, 10, 0.001}, Target: [3]float64{0, 0, 0}, Zoom: 2})
	assert.Equal(t, 2.0, cam.zoom)
	assert.InDelta(t, -1, cam.forward.Y, 1e-3)

	degenerate := newCamera(&theme.Camera{})
	assert.Equal(t, defaultCameraPos, degenerate.pos)
	assert.Equal(t, 1.0, degenerate.zoom)
}

func TestLightsShadeFaces(t *testing.T) {
	l := newLights(nil)
	base := render.RGB{R: 200, G: 200, B: 200}
	top := l.shade(base, vmath.Vec3F{Y: 1})
	bottom := l.shade(base, vmath.Vec3F{Y: -1})
	assert.Greater(t, top.R, bottom.R)

	dark := newLights(&theme.Lighting{
		Ambient:     &theme.Light{Color: "#ffffff", Intensity: 0},
		Hemisphere:  &theme.Light{Intensity: 0},
		Directional: &theme.Light{Intensity: 0},
	})
	assert.Equal(t, render.RGBBlack, dark.shade(base, vmath.Vec3F{Y: 1}))
}

func TestBoxFacesVisible(t *testing.T) {
	cam := newCamera(nil)
	faces := boxFaces(vmath.Box{Max: vmath.Vec3F{X: 1, Y: 1, Z: 1}}, cam.forward)
	// default camera looks down from +X +Y +Z
	require.Len(t, faces, 3)
	for _, f := range faces {
		assert.Less(t, vmath.V3FDot(f.normal, cam.forward), 0.0)
	}
}

func TestRotateBox(t *testing.T) {
	b := vmath.Box{Min: vmath.Vec3F{X: -2, Z: -1}, Max: vmath.Vec3F{X: 2, Y: 1, Z: 1}}
	r := rotateBox(b, vmath.Vec3F{}, vmath.Deg2Rad(90))
	assert.InDelta(t, 1, r.Max.X, 1e-9)
	assert.InDelta(t, 2, r.Max.Z, 1e-9)
	assert.Equal(t, b, rotateBox(b, vmath.Vec3F{}, 0))
}

func TestInitRejectsInvalidViewport(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.r.Init(context.Background(), 800, -1, nil, ""), render.ErrInvalidViewport)
}

func TestModelsLoadAndDestroyReleasesOnce(t *testing.T) {
	h := newHarness(t)
	m := isoManifest()
	h.putModels(m)

	other := asset.NewTracker(h.cache)
	_, err := other.LoadModel(context.Background(), url(m, "models/bot.gltf"))
	require.NoError(t, err)

	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	require.True(t, h.r.Ready())
	assert.Equal(t, 1, h.cache.Refs(url(m, "models/room.gltf")))
	assert.Equal(t, 2, h.cache.Refs(url(m, "models/desk.gltf")))
	assert.Equal(t, 2, h.cache.Refs(url(m, "models/bot.gltf")))

	h.r.UpdateAgents([]agent.Agent{{ID: "a", Name: "Ada", Status: agent.StatusWorking}})
	assert.True(t, h.r.HasModel("a"))
	cmds := frame(h.r).Tagged("a")
	assert.Positive(t, count(cmds, render.KindPolygon))
	assert.Equal(t, 1, count(cmds, render.KindImage), "name sprite")

	h.r.Destroy()
	assert.Zero(t, h.cache.Refs(url(m, "models/room.gltf")))
	assert.Zero(t, h.cache.Refs(url(m, "models/desk.gltf")))
	assert.Equal(t, 1, h.cache.Refs(url(m, "models/bot.gltf")))

	assert.NotPanics(t, h.r.Destroy)
	assert.Equal(t, 1, h.cache.Refs(url(m, "models/bot.gltf")), "second destroy must not release again")
	assert.Zero(t, frame(h.r).Len())
}

func TestTintIsPerAgent(t *testing.T) {
	h := newHarness(t)
	m := isoManifest()
	h.putModels(m)
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{
		{ID: "a", Color: "#ff0000", Status: agent.StatusWorking},
		{ID: "b", Color: "#0000ff", Status: agent.StatusWorking},
	})

	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	a, b := h.r.visuals["a"].model, h.r.visuals["b"].model
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, uint8(255), a.Materials[0].Color.R)
	assert.Equal(t, uint8(255), b.Materials[0].Color.B)
	assert.Zero(t, a.Materials[0].Color.B)

	// the cached model keeps its original color
	shared := h.r.bot.Materials[0].Color
	assert.Equal(t, uint8(255), shared.R)
	assert.Equal(t, uint8(128), shared.G)
}

func TestBotFailureFallsBackToSpheres(t *testing.T) {
	h := newHarness(t)
	m := isoManifest()
	h.putModels(m)
	h.src.Fail(url(m, "models/bot.gltf"), errors.New("404"))
	h.src.Fail(url(m, "models/room.gltf"), errors.New("timeout"))

	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusBlocked}})
	assert.False(t, h.r.HasModel("a"))

	cmds := frame(h.r).Tagged("a")
	assert.Zero(t, count(cmds, render.KindPolygon))
	assert.Equal(t, 2, count(cmds, render.KindCircle), "body and status spheres")
	assert.Zero(t, h.cache.Refs(url(m, "models/bot.gltf")))

	// furniture still renders
	assert.Positive(t, count(frame(h.r).Tagged(""), render.KindPolygon))
}

func TestPickWalksToAgent(t *testing.T) {
	tests := []struct {
		name   string
		models bool
	}{
		{"model parts", true},
		{"spheres", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			m := isoManifest()
			if tt.models {
				h.putModels(m)
			}
			require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
			h.r.UpdateAgents([]agent.Agent{
				{ID: "a", Status: agent.StatusWorking},
				{ID: "b", Status: agent.StatusIdle},
			})
			assert.Equal(t, tt.models, h.r.HasModel("a"))

			// desk-1 at (160,150), sofa-1 at (200,630)
			p := screenAt(h.r, 160, 150, bodyRadius)
			h.r.PointerDown(p.X, p.Y)
			p = screenAt(h.r, 200, 630, bodyRadius)
			h.r.PointerDown(p.X, p.Y)
			p = screenAt(h.r, 600, 480, 0)
			h.r.PointerDown(p.X, p.Y)
			assert.Equal(t, []string{"a", "b"}, h.clicks)
		})
	}
}

func TestNodeOwner(t *testing.T) {
	group := &node{name: "agent:x", agentID: "x"}
	mid := &node{name: "arm", parent: group}
	leaf := &node{name: "hand", parent: mid}
	assert.Equal(t, "x", leaf.owner())
	assert.Empty(t, (&node{name: "desk"}).owner())
}

func TestRenderZonesLinesAndSelection(t *testing.T) {
	h := newHarness(t)
	m := isoManifest()
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{
		{ID: "a", Status: agent.StatusCollaborating, CollaboratingWith: []string{"b"}},
		{ID: "b", Status: agent.StatusCollaborating, CollaboratingWith: []string{"a"}},
	})

	dl := frame(h.r)
	assert.Len(t, dl.Tagged("ground"), 1)
	for _, z := range m.Zones {
		cmds := dl.Tagged(z.ID)
		assert.Equal(t, 1, count(cmds, render.KindPolygon), z.ID)
		assert.Equal(t, 1, count(cmds, render.KindText), z.ID)
	}
	assert.Len(t, dl.Tagged("a|b"), 1)

	before := len(dl.Tagged("a"))
	h.r.SelectAgent("a")
	assert.Len(t, frame(h.r).Tagged("a"), before+2)
	h.r.SelectAgent("")
	assert.Len(t, frame(h.r).Tagged("a"), before)
}

func TestLegacyLayoutWithoutManifest(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.r.Init(context.Background(), 800, 600, nil, ""))
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusIdle}})
	h.r.Tick(time.Now())

	dl := frame(h.r)
	assert.Len(t, dl.Tagged("ground"), 1)
	assert.Equal(t, 2, count(dl.Tagged("a"), render.KindCircle))
}

func TestDestroyDuringInitDiscardsLoads(t *testing.T) {
	m := isoManifest()
	release := make(chan struct{})
	started := make(chan struct{}, 8)
	src := asset.SourceFunc(func(ctx context.Context, u string) ([]byte, error) {
		started <- struct{}{}
		<-release
		return []byte(cubeGLTF), nil
	})
	cache := asset.NewCache(src, zaptest.NewLogger(t))
	r := New(render.Options{Logger: zaptest.NewLogger(t), Assets: cache})

	done := make(chan error, 1)
	go func() { done <- r.Init(context.Background(), 1200, 800, m, m.ID) }()
	<-started
	r.Destroy()
	close(release)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("init did not return")
	}
	assert.False(t, r.Ready())
	for _, rel := range []string{"models/room.gltf", "models/bot.gltf", "models/desk.gltf"} {
		assert.Zero(t, cache.Refs(url(m, rel)), rel)
	}
}
