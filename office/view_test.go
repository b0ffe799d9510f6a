package office

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/render/canvas"
	"github.com/lixenwraith/vi-office/render/iso"
	"github.com/lixenwraith/vi-office/render/solo"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	view   *View
	src    *asset.MemSource
	assets *asset.Cache
	loader *theme.Loader
	clicks []string
	cues   []string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{src: asset.NewMemSource()}
	logger := zaptest.NewLogger(t)
	f.assets = asset.NewCache(f.src, logger)
	f.loader = theme.NewLoader(f.src, nil, logger)
	f.view = NewView(1200, 800, Options{
		Logger: logger,
		Loader: f.loader,
		Assets: f.assets,
		Callbacks: render.Callbacks{
			OnAgentClick: func(id string) { f.clicks = append(f.clicks, id) },
		},
		OnCue: func(id string, from, to agent.Status) {
			f.cues = append(f.cues, id+":"+string(from)+">"+string(to))
		},
	})
	t.Cleanup(f.view.Close)
	return f
}

// putManifest publishes m as theme.json, dropping the named top-level keys
func (f *fixture) putManifest(t *testing.T, m *theme.Manifest, drop ...string) {
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, k := range drop {
		delete(doc, k)
	}
	raw, err = json.Marshal(doc)
	require.NoError(t, err)
	f.src.Put(theme.ManifestURL(m.ID), raw)
}

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func soloManifest() *theme.Manifest {
	m := theme.Builtin()
	m.ID = "solo-cat"
	m.Renderer = theme.RendererSprite
	m.Scene = &theme.Scene{
		Width:       1600,
		Height:      900,
		Backgrounds: map[string]string{"working": "bg/work.png", "idle": "bg/idle.png", "sleeping": "bg/sleep.png"},
	}
	return m
}

func frame(v *View) *render.DrawList {
	dl := render.NewDrawList(0, 0)
	v.Render(dl)
	return dl
}

func TestNewBackendSelectsByRenderer(t *testing.T) {
	tests := []struct {
		name string
		kind theme.RendererKind
		nilM bool
		want any
	}{
		{"nil manifest", "", true, &canvas.Renderer{}},
		{"pixi", theme.RendererPixi, false, &canvas.Renderer{}},
		{"unset", "", false, &canvas.Renderer{}},
		{"threejs", theme.RendererThreeJS, false, &iso.Renderer{}},
		{"sprite", theme.RendererSprite, false, &solo.Renderer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m *theme.Manifest
			if !tt.nilM {
				m = theme.Builtin()
				m.Renderer = tt.kind
			}
			b, err := NewBackend(m, render.Options{Logger: zaptest.NewLogger(t)})
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			b.Destroy()
		})
	}
}

func TestMissingZonesFallsBackToLegacy(t *testing.T) {
	f := newFixture(t)
	m := theme.Builtin()
	m.ID = "no-zones"
	f.putManifest(t, m, "zones")

	require.NoError(t, f.view.SetTheme(context.Background(), "no-zones"))
	assert.Nil(t, f.view.Manifest())
	assert.IsType(t, &canvas.Renderer{}, f.view.Backend())

	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}})
	dl := frame(f.view)
	assert.NotEmpty(t, dl.Tagged("band:work"), "legacy bands drawn")
	assert.NotEmpty(t, dl.Tagged("a"))
	for _, z := range theme.Builtin().Zones {
		assert.Empty(t, dl.Tagged(z.ID))
	}
}

func TestCachedThemeSkipsFetch(t *testing.T) {
	f := newFixture(t)
	m := theme.Builtin()
	f.loader.CacheTheme(m)

	require.NoError(t, f.view.SetTheme(context.Background(), m.ID))
	assert.Same(t, m, f.view.Manifest())
	assert.Zero(t, f.src.Fetches(theme.ManifestURL(m.ID)))
}

func TestSetThemeSwapsAndReleases(t *testing.T) {
	f := newFixture(t)
	m := soloManifest()
	f.putManifest(t, m)
	for _, rel := range m.Scene.Backgrounds {
		f.src.Put(theme.AssetURL(m.ID, rel), pngBytes(t))
	}
	work := theme.AssetURL(m.ID, "bg/work.png")

	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}})
	f.view.Select("a")
	require.NoError(t, f.view.SetTheme(context.Background(), m.ID))
	first := f.view.Backend()
	require.IsType(t, &solo.Renderer{}, first)
	assert.Equal(t, 1, f.assets.Refs(work))
	assert.Equal(t, solo.StateWorking, first.(*solo.Renderer).State(), "agents replayed into the new backend")
	_, pannable := f.view.Pannable()
	assert.True(t, pannable)

	require.NoError(t, f.view.SetTheme(context.Background(), ""))
	assert.NotSame(t, first, f.view.Backend())
	assert.Zero(t, f.assets.Refs(work), "previous backend destroyed")
	assert.Equal(t, "a", f.view.Selected())
	_, pannable = f.view.Pannable()
	assert.False(t, pannable)

	f.view.Tick(time.Now())
	assert.NotEmpty(t, frame(f.view).Tagged("a"))
}

func TestPointerDownReachesCallbacks(t *testing.T) {
	f := newFixture(t)
	m := theme.Builtin()
	f.loader.CacheTheme(m)
	require.NoError(t, f.view.SetTheme(context.Background(), m.ID))
	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}})

	f.view.PointerDown(160, 150)
	assert.Equal(t, []string{"a"}, f.clicks)
}

func TestStatusCues(t *testing.T) {
	f := newFixture(t)
	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusIdle}, {ID: "b", Status: agent.StatusIdle}})
	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}, {ID: "b", Status: agent.StatusIdle}})
	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusBlocked}})
	f.view.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusBlocked}, {ID: "b", Status: agent.StatusWorking}})
	assert.Equal(t, []string{"a:idle>working", "a:working>blocked"}, f.cues)
}

func TestRenderBeforeTheme(t *testing.T) {
	f := newFixture(t)
	dl := frame(f.view)
	assert.Zero(t, dl.Len())
	assert.Equal(t, 1200.0, dl.Width)
	assert.NotPanics(t, func() { f.view.PointerDown(1, 1) })
}

func TestCloseDiscardsLaterThemes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.view.SetTheme(context.Background(), ""))
	f.view.Close()
	assert.Nil(t, f.view.Backend())
	require.NoError(t, f.view.SetTheme(context.Background(), ""))
	assert.Nil(t, f.view.Backend())
	assert.NotPanics(t, f.view.Close)
}

func TestInvalidViewportSurfaces(t *testing.T) {
	f := newFixture(t)
	v := NewView(0, 0, Options{Logger: zaptest.NewLogger(t), Assets: f.assets})
	err := v.SetTheme(context.Background(), "")
	assert.ErrorIs(t, err, render.ErrInvalidViewport)
	assert.Nil(t, v.Backend())
}
