package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/config"
	"github.com/lixenwraith/vi-office/engine"
	"github.com/lixenwraith/vi-office/terminal"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T, cfg config.Config) (*app, tcell.SimulationScreen, *engine.MockClock) {
	t.Helper()
	scr := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, scr.Init())
	t.Cleanup(scr.Fini)
	scr.SetSize(80, 25)

	clock := engine.NewMockClock(time.Unix(1_000, 0))
	a := newApp(cfg, scr, nil, clock, nil, nil, zaptest.NewLogger(t))
	t.Cleanup(a.close)
	a.setTheme(cfg.Theme)
	a.view.UpdateAgents(a.agents())
	return a, scr, clock
}

func footerText(scr tcell.SimulationScreen) string {
	cells, w, h := scr.GetContents()
	var b strings.Builder
	for _, c := range cells[(h-1)*w:] {
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		}
	}
	return b.String()
}

func TestFrameDrawsStageAndFooter(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = 3
	a, scr, clock := newTestApp(t, cfg)

	a.frame(clock.Now())
	assert.Greater(t, a.lastFlush, 0)

	footer := footerText(scr)
	assert.Contains(t, footer, theme.BuiltinID)
	assert.Contains(t, footer, "3 agents")
	assert.NotContains(t, footer, "legacy")
}

func TestFrameAdvancesMockOnStep(t *testing.T) {
	cfg := config.Default()
	cfg.Step = time.Second
	a, _, clock := newTestApp(t, cfg)

	a.frame(clock.Now())
	a.frame(clock.Advance(500 * time.Millisecond))
	assert.Equal(t, 0, a.mock.Step())

	a.frame(clock.Advance(600 * time.Millisecond))
	assert.Equal(t, 1, a.mock.Step())
	a.frame(clock.Advance(100 * time.Millisecond))
	assert.Equal(t, 1, a.mock.Step())

	assert.Equal(t, int64(1), a.stats.Counter("steps").Load())
	assert.Equal(t, int64(4), a.stats.Counter("frames").Load())
	assert.Greater(t, a.stats.Gauge("fps").Get(), 0.0)
	assert.Equal(t, int64(1), a.stats.Counter("theme_switches").Load())
	assert.Equal(t, theme.BuiltinID, a.stats.Label("theme").Get())
}

func TestHandleActions(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = 2
	cfg.Themes = []string{theme.BuiltinID, "missing-theme"}
	a, scr, _ := newTestApp(t, cfg)

	assert.False(t, a.handle(terminal.Input{Action: terminal.ActionCycleSelection}))
	assert.Equal(t, "agent-01", a.view.Selected())
	a.handle(terminal.Input{Action: terminal.ActionCycleSelection})
	assert.Equal(t, "agent-02", a.view.Selected())
	a.handle(terminal.Input{Action: terminal.ActionClearSelection})
	assert.Empty(t, a.view.Selected())

	a.handle(terminal.Input{Action: terminal.ActionNextTheme})
	assert.Equal(t, "missing-theme", a.view.ThemeID())
	assert.Nil(t, a.view.Manifest(), "unknown theme falls back to the legacy layout")
	a.handle(terminal.Input{Action: terminal.ActionNextTheme})
	assert.Equal(t, theme.BuiltinID, a.view.ThemeID())

	a.handle(terminal.Input{Action: terminal.ActionPause})
	assert.True(t, a.loop.Paused())
	assert.True(t, a.clock.Paused())
	assert.Contains(t, footerText(scr), "paused")
	a.handle(terminal.Input{Action: terminal.ActionPause})
	assert.False(t, a.loop.Paused())

	scr.SetSize(60, 20)
	a.handle(terminal.Input{Action: terminal.ActionResize})
	w, h := a.pres.Viewport()
	assert.Equal(t, 60*terminal.CellWidth, w)
	assert.Equal(t, 19*terminal.CellHeight, h)

	assert.NotPanics(t, func() {
		a.handle(terminal.Input{Action: terminal.ActionClick, Col: 10, Row: 5})
		a.handle(terminal.Input{Action: terminal.ActionPan, DX: terminal.PanStep})
		a.handle(terminal.Input{Action: terminal.ActionZoomIn})
		a.handle(terminal.Input{Action: terminal.ActionNone})
	})
	assert.True(t, a.handle(terminal.Input{Action: terminal.ActionQuit}))
}

func TestNextSelection(t *testing.T) {
	agents := []agent.Agent{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	tests := []struct {
		name    string
		agents  []agent.Agent
		current string
		want    string
	}{
		{"first", agents, "", "a"},
		{"next", agents, "a", "b"},
		{"wrap", agents, "c", "a"},
		{"gone", agents, "zzz", "a"},
		{"empty", nil, "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextSelection(tt.agents, tt.current))
		})
	}
}

func TestNewSource(t *testing.T) {
	src, cleanup := newSource(config.Default())
	assert.Nil(t, src)
	cleanup()

	dir := t.TempDir()
	themeDir := filepath.Join(dir, "demo")
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "bg.png"), []byte("png"), 0o644))

	cfg := config.Default()
	cfg.ThemesDir = dir
	cfg.BundleDir = t.TempDir()
	src, cleanup = newSource(cfg)
	defer cleanup()
	require.NotNil(t, src)

	data, err := src.Fetch(t.Context(), "/themes/demo/bg.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestTrackerDrivesRoster(t *testing.T) {
	scr := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, scr.Init())
	t.Cleanup(scr.Fini)
	scr.SetSize(80, 25)

	clock := engine.NewMockClock(time.Unix(1_000, 0))
	tracker := agent.NewTracker(clock, zaptest.NewLogger(t))
	cfg := config.Default()
	a := newApp(cfg, scr, nil, clock, tracker, nil, zaptest.NewLogger(t))
	t.Cleanup(a.close)
	a.setTheme(cfg.Theme)
	assert.Nil(t, a.mock)
	assert.Empty(t, a.agents())

	tracker.Ingest(agent.Event{Type: agent.EventSessionStart, AgentID: "writer", SessionID: "s1"})
	a.frame(clock.Now())
	assert.Contains(t, footerText(scr), "1 agents")

	a.handle(terminal.Input{Action: terminal.ActionCycleSelection})
	assert.Equal(t, "writer", a.view.Selected())

	a.frame(clock.Advance(agent.IdleTimeout + cfg.Step))
	snap := a.agents()
	require.Len(t, snap, 1)
	assert.Equal(t, agent.StatusIdle, snap[0].Status)
}
