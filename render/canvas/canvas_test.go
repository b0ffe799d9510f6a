package canvas

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/asset"
	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/sprite"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const atlasRel = "sprites/bots.png"

func atlasPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func atlasManifest() *theme.Manifest {
	m := theme.Builtin()
	m.Characters.Atlas = atlasRel
	m.Characters.FrameWidth = 8
	m.Characters.FrameHeight = 8
	return m
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

func atlasURL(m *theme.Manifest) string {
	return theme.AssetURL(m.ID, atlasRel)
}

func frame(r *Renderer) *render.DrawList {
	dl := render.NewDrawList(0, 0)
	r.Render(dl)
	return dl
}

func kinds(cmds []render.Cmd, k render.Kind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func TestInitRejectsInvalidViewport(t *testing.T) {
	h := newHarness(t)
	err := h.r.Init(context.Background(), 0, 600, nil, "")
	assert.ErrorIs(t, err, render.ErrInvalidViewport)
}

func TestAtlasLoadsAndDestroyReleasesOnce(t *testing.T) {
	h := newHarness(t)
	m := atlasManifest()
	h.src.Put(atlasURL(m), atlasPNG(t))

	other := asset.NewTracker(h.cache)
	_, err := other.LoadImage(context.Background(), atlasURL(m))
	require.NoError(t, err)

	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	assert.True(t, h.r.Ready())
	assert.Equal(t, 2, h.cache.Refs(atlasURL(m)))

	h.r.UpdateAgents([]agent.Agent{{ID: "a", Name: "Ada", Status: agent.StatusWorking}})
	assert.True(t, h.r.HasAnimator("a"))
	images := kinds(frame(h.r).Tagged("a"), render.KindImage)
	assert.Equal(t, 1, images)

	h.r.Destroy()
	assert.Equal(t, 1, h.cache.Refs(atlasURL(m)))
	assert.NotPanics(t, h.r.Destroy)
	assert.Equal(t, 1, h.cache.Refs(atlasURL(m)), "second destroy must not release again")
	assert.Zero(t, frame(h.r).Len())
}

func TestAtlasFailureFallsBackToCircles(t *testing.T) {
	h := newHarness(t)
	m := atlasManifest()
	h.src.Fail(atlasURL(m), errors.New("connection reset"))

	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Emoji: "🦊", Status: agent.StatusWorking}})
	assert.False(t, h.r.HasAnimator("a"))

	// a status change walks, but there is no animator to switch
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Emoji: "🦊", Status: agent.StatusIdle}})
	tr, ok := h.r.Track("a")
	require.True(t, ok)
	assert.True(t, tr.Walking)
	assert.False(t, h.r.HasAnimator("a"))

	cmds := frame(h.r).Tagged("a")
	assert.Zero(t, kinds(cmds, render.KindImage))
	assert.Positive(t, kinds(cmds, render.KindCircle))
	var emoji bool
	for _, c := range cmds {
		emoji = emoji || (c.Kind == render.KindText && c.Text == "🦊")
	}
	assert.True(t, emoji)
	assert.Zero(t, h.cache.Refs(atlasURL(m)))
}

func TestBlockedBadgeAndEmojiColors(t *testing.T) {
	h := newHarness(t)
	m := theme.Builtin()
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{{ID: "b", Emoji: "🐢", Status: agent.StatusBlocked}})

	var badge, emoji *render.Cmd
	cmds := frame(h.r).Tagged("b")
	for i := range cmds {
		switch {
		case cmds[i].Kind == render.KindText && cmds[i].Text == "!":
			badge = &cmds[i]
		case cmds[i].Kind == render.KindText && cmds[i].Text == "🐢":
			emoji = &cmds[i]
		}
	}
	require.NotNil(t, badge)
	require.NotNil(t, emoji)
	assert.Equal(t, render.RGBBlack, badge.Color)
	assert.Equal(t, render.RGBWhite, emoji.Color)
}

func TestDestroyDuringInitDiscardsLoads(t *testing.T) {
	m := atlasManifest()
	data := atlasPNG(t)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	src := asset.SourceFunc(func(ctx context.Context, url string) ([]byte, error) {
		started <- struct{}{}
		<-release
		return data, nil
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
	assert.Zero(t, cache.Refs(atlasURL(m)))
	assert.NotPanics(t, r.Destroy)
}

func TestPointerDownHitsAgent(t *testing.T) {
	h := newHarness(t)
	m := theme.Builtin()
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{
		{ID: "a", Status: agent.StatusWorking},
		{ID: "b", Status: agent.StatusIdle},
	})

	// desk-1 sits at (160,150) on an unscaled stage
	h.r.PointerDown(165, 152)
	h.r.PointerDown(600, 20)
	h.r.PointerDown(200, 632)
	assert.Equal(t, []string{"a", "b"}, h.clicks)
}

func TestSelectionGlow(t *testing.T) {
	h := newHarness(t)
	m := theme.Builtin()
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}})

	glows := func() int {
		n := 0
		for _, c := range frame(h.r).Tagged("a") {
			if c.Blend == render.BlendAdd {
				n++
			}
		}
		return n
	}
	assert.Zero(t, glows())
	h.r.SelectAgent("a")
	assert.Equal(t, 1, glows())
	h.r.SelectAgent("")
	assert.Zero(t, glows())
}

func TestCollaborationLinesOncePerPair(t *testing.T) {
	h := newHarness(t)
	m := theme.Builtin()
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.UpdateAgents([]agent.Agent{
		{ID: "b", Status: agent.StatusCollaborating, CollaboratingWith: []string{"a"}},
		{ID: "a", Status: agent.StatusCollaborating, CollaboratingWith: []string{"b", "c"}},
		{ID: "c", Status: agent.StatusWorking},
	})
	dl := frame(h.r)
	lines := dl.Filter(func(c render.Cmd) bool { return c.Kind == render.KindLine && c.Z == h.r.layers.Z(render.LayerLines) })
	require.Len(t, lines, 2)
	assert.Equal(t, "a|b", lines[0].Tag)
	assert.Equal(t, "a|c", lines[1].Tag)
}

func TestLegacyLayoutWithoutManifest(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.r.Init(context.Background(), 800, 600, nil, ""))
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusIdle}})

	tr, ok := h.r.Track("a")
	require.True(t, ok)
	assert.Equal(t, "legacy:break:0", tr.SeatID)
	assert.Greater(t, tr.Pos.Y, 600*0.7)

	bands := frame(h.r).Filter(func(c render.Cmd) bool { return c.Kind == render.KindRect && len(c.Tag) > 5 && c.Tag[:5] == "band:" })
	assert.Len(t, bands, 3)

	// resizing eases without a walk
	h.r.Resize(1600, 1200)
	tr, _ = h.r.Track("a")
	assert.False(t, tr.Walking)
	assert.Greater(t, tr.Target.Y, 1200*0.7)
}

func TestWalkSwitchesSpriteSetsOnce(t *testing.T) {
	h := newHarness(t)
	m := atlasManifest()
	h.src.Put(atlasURL(m), atlasPNG(t))
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))

	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusWorking}})
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusCollaborating}})

	anim := h.r.visuals["a"].anim
	require.NotNil(t, anim)
	assert.Contains(t, []sprite.State{sprite.StateWalkLeft, sprite.StateWalkRight}, anim.Current().Name)
	switches := anim.Switches()

	// repeated identical updates neither re-walk nor restart the walk
	h.r.UpdateAgents([]agent.Agent{{ID: "a", Status: agent.StatusCollaborating}})
	assert.Equal(t, switches, anim.Switches())

	now := time.Unix(0, 0)
	for i := 0; i < 200; i++ {
		now = now.Add(16 * time.Millisecond)
		h.r.Tick(now)
	}
	tr, _ := h.r.Track("a")
	assert.False(t, tr.Walking)
	assert.Equal(t, tr.Target, tr.Pos)
	assert.Equal(t, sprite.StateWorking, anim.Current().Name)
	assert.Equal(t, switches+1, anim.Switches())
	assert.Equal(t, 1, tr.Walks)
}

func TestEffects(t *testing.T) {
	h := newHarness(t)
	m := theme.Builtin()
	m.Effects = []theme.Effect{
		{ID: "warm", Type: "tint", Color: "#ff8800", Intensity: 0.1},
		{ID: "motes", Type: "dust", Count: 5},
		{ID: "odd", Type: "unknown"},
	}
	require.NoError(t, h.r.Init(context.Background(), 1200, 800, m, m.ID))
	h.r.Tick(time.Unix(0, 0))
	h.r.Tick(time.Unix(1, 0))
	dl := frame(h.r)
	assert.Len(t, dl.Tagged("warm"), 1)
	assert.Len(t, dl.Tagged("motes"), 5)
	assert.Empty(t, dl.Tagged("odd"))
}
