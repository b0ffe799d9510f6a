package render

import (
	"context"
	"image/color"
	"testing"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/lixenwraith/vi-office/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawListStableZOrder(t *testing.T) {
	dl := NewDrawList(100, 100)
	dl.FillRect(2, vmath.Rect{}, RGBWhite, 1, "a")
	dl.FillRect(0, vmath.Rect{}, RGBWhite, 1, "b")
	dl.FillRect(2, vmath.Rect{}, RGBWhite, 1, "c")
	dl.FillRect(1, vmath.Rect{}, RGBWhite, 1, "d")
	dl.FillRect(0, vmath.Rect{}, RGBWhite, 1, "e")

	var tags []string
	for _, c := range dl.Cmds() {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"b", "e", "d", "a", "c"}, tags)

	dl.Reset(50, 40, RGBBlack)
	assert.Zero(t, dl.Len())
	assert.Equal(t, 50.0, dl.Width)
}

func TestDrawListHelpers(t *testing.T) {
	dl := NewDrawList(10, 10)
	dl.StrokeCircle(1, vmath.V2(1, 1), 3, RGBWhite, 1, 2, "x")
	dl.Glow(1, vmath.V2(1, 1), 3, RGBWhite, 0.5, "x")
	dl.Line(0, vmath.V2(0, 0), vmath.V2(5, 5), RGBWhite, 1, 1, "")
	dl.Image(0, vmath.Rect{}, nil, 1, "skipped")
	dl.Text(3, vmath.V2(2, 2), "hi", RGBWhite, 12, AlignLeft, "x")

	assert.Equal(t, 4, dl.Len())
	tagged := dl.Tagged("x")
	require.Len(t, tagged, 3)
	assert.False(t, tagged[0].Filled())
	assert.Equal(t, BlendAdd, tagged[1].Blend)
	assert.Equal(t, KindText, tagged[2].Kind)
	assert.Equal(t, "line", dl.Cmds()[0].Kind.String())
}

func TestLayerStack(t *testing.T) {
	s := NewLayerStack([]theme.Layer{
		{ID: "characters", ZIndex: 5},
		{ID: "floor", ZIndex: 0},
		{ID: "decor", ZIndex: 5},
	})
	assert.Equal(t, []string{"floor", "characters", "decor", "background", "zones", "furniture", "lines", "overlay"}, s.IDs())
	assert.Less(t, s.Z("floor"), s.Z("characters"))
	assert.Less(t, s.Z("characters"), s.Z("decor"))
	assert.Equal(t, len(s.Layers()), s.Z("nope"))

	def := NewLayerStack(nil)
	assert.Equal(t, []string{"background", "zones", "furniture", "lines", "characters", "overlay"}, def.IDs())
}

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	ctx1, g1 := l.Begin(context.Background())
	assert.True(t, l.Valid(g1))

	_, g2 := l.Begin(context.Background())
	assert.False(t, l.Valid(g1))
	assert.Error(t, ctx1.Err(), "superseded generation is cancelled")
	assert.True(t, l.Valid(g2))

	assert.True(t, l.End())
	assert.False(t, l.End())
	assert.False(t, l.Valid(g2))
	assert.True(t, l.Ended())

	ctx3, g3 := l.Begin(context.Background())
	assert.Error(t, ctx3.Err())
	assert.False(t, l.Valid(g3))
}

func TestCheckViewport(t *testing.T) {
	assert.NoError(t, CheckViewport(800, 600))
	assert.ErrorIs(t, CheckViewport(0, 600), ErrInvalidViewport)
	assert.ErrorIs(t, CheckViewport(800, -1), ErrInvalidViewport)
}

func TestColors(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 128, 0}, c)
	assert.Equal(t, "#ff8000", c.Hex())

	assert.Equal(t, RGBWhite, ParseColor("nope", RGBWhite))
	assert.Equal(t, RGB{0, 0, 255}, ParseColor("0000ff", RGBWhite))
	assert.Equal(t, RGB{10, 20, 30}, FromColor(color.NRGBA{10, 20, 30, 255}))

	assert.Equal(t, RGB{100, 100, 100}, RGBBlack.Blend(RGB{200, 200, 200}, 0.5))
	assert.Equal(t, RGB{255, 200, 10}, RGB{200, 100, 5}.Add(RGB{100, 100, 5}))
	assert.Equal(t, RGBBlack, RGBBlack.Lerp(RGBWhite, 0))
	assert.Equal(t, RGBWhite, RGBBlack.Lerp(RGBWhite, 1))
	assert.Less(t, RGB{200, 100, 50}.Shade(0.5).R, uint8(200))

	m := theme.Builtin()
	m.Characters.StatusBadge.Colors["idle"] = "#010203"
	assert.Equal(t, RGB{1, 2, 3}, StatusColor(m, agent.StatusIdle))
	assert.Equal(t, RgbStatusBlocked, StatusColor(nil, agent.StatusBlocked))
	assert.Equal(t, RgbZoneMeeting, ZoneColor(theme.Zone{Type: theme.ZoneMeeting}))
	assert.Equal(t, RGB{1, 1, 1}, ZoneColor(theme.Zone{Color: "#010101"}))
	assert.Equal(t, RGB{1, 2, 3}, AgentColor(agent.Agent{Status: agent.StatusIdle}, m))
}

func TestBlendModes(t *testing.T) {
	dst := RGB{100, 100, 100}
	src := RGB{200, 50, 0}
	assert.Equal(t, dst, BlendAlpha.Apply(dst, src, 0))
	assert.Equal(t, src, BlendReplace.Apply(dst, src, 0.3))
	assert.Equal(t, RGB{200, 100, 100}, BlendMax.Apply(dst, src, 1))
	assert.Equal(t, RGB{200, 125, 100}, BlendAdd.Apply(dst, src, 0.5))
	assert.GreaterOrEqual(t, BlendScreen.Apply(dst, src, 1).R, dst.R)
}

func TestTransform(t *testing.T) {
	tr := Fit(1200, 800, 600, 600)
	assert.InDelta(t, 0.5, tr.Scale, 1e-9)
	assert.InDelta(t, 100, tr.OffsetY, 1e-9)
	p := tr.Point(vmath.V2(600, 400))
	assert.InDelta(t, 300, p.X, 1e-9)
	assert.InDelta(t, 300, p.Y, 1e-9)
	back := tr.Inverse(p)
	assert.InDelta(t, 600, back.X, 1e-9)

	cv := Cover(100, 50, 100, 100)
	assert.InDelta(t, 2, cv.Scale, 1e-9)
	assert.InDelta(t, -50, cv.OffsetX, 1e-9)
	assert.Equal(t, Identity, Fit(0, 1, 1, 1))
}

func TestLabel(t *testing.T) {
	w, h := LabelSize("Ada")
	assert.Equal(t, 3*7+2*labelPad, w)
	assert.Greater(t, h, 13)

	img := Label("Ada", RGBWhite, RGBBlack, 128)
	assert.Equal(t, w, img.Bounds().Dx())
	lit := 0
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0xf000 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 0)
}
