package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/vi-office/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, theme.BuiltinID, cfg.Theme)
	assert.Equal(t, DefaultFPS, cfg.FPS)
	assert.False(t, cfg.Sound.Enabled)
}

func TestParse(t *testing.T) {
	data := []byte(`
theme: pixel-loft
themes: [classic-office, pixel-loft, iso-hq]
base_url: https://office.example.com/
agents: 3
step: 1500ms
fps: 60
sound:
  enabled: true
  volume: -1
log:
  file: /tmp/office.log
  level: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "pixel-loft", cfg.Theme)
	assert.Equal(t, []string{"pixel-loft", "classic-office", "iso-hq"}, cfg.Themes)
	assert.Equal(t, "https://office.example.com", cfg.BaseURL)
	assert.Equal(t, 3, cfg.Agents)
	assert.Equal(t, 1500*time.Millisecond, cfg.Step)
	assert.Equal(t, 60, cfg.FPS)
	assert.True(t, cfg.Sound.Enabled)
	assert.Equal(t, -1.0, cfg.Sound.Volume)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "colour: red", "colour"},
		{"fps", "fps: 0", "fps"},
		{"agents", "agents: 500", "agents"},
		{"step", "step: -1s", "step"},
		{"level", "log: {level: loud}", "log level"},
		{"volume", "sound: {volume: 9}", "volume"},
		{"scheme", "base_url: ftp://x", "base url"},
		{"syntax", "fps: [", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "office.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents: 2\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Agents)
}

func TestNextTheme(t *testing.T) {
	cfg := Config{Themes: []string{"a", "b", "c"}}
	tests := []struct{ current, want string }{
		{"a", "b"},
		{"c", "a"},
		{"zzz", "a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.NextTheme(tt.current), tt.current)
	}
	assert.Equal(t, "x", Config{}.NextTheme("x"))
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents: 2\nfps: 20\nsound: {enabled: true}\n"), 0o644))

	f := NewFlags("vi-office")
	cfg, err := f.Parse([]string{"--config", path, "--fps", "45", "--theme", "iso-hq", "--log-level=warn", "--listen", "127.0.0.1:7070"})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Agents, "file value kept when flag not given")
	assert.Equal(t, 45, cfg.FPS)
	assert.True(t, cfg.Sound.Enabled)
	assert.Equal(t, "iso-hq", cfg.Theme)
	assert.Equal(t, []string{"iso-hq", theme.BuiltinID}, cfg.Themes)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:7070", cfg.Listen)
}

func TestFlagsErrors(t *testing.T) {
	_, err := NewFlags("vi-office").Parse([]string{"--fps", "0"})
	assert.ErrorContains(t, err, "fps")

	_, err = NewFlags("vi-office").Parse([]string{"--nope"})
	assert.Error(t, err)

	f := NewFlags("vi-office")
	_, err = f.Parse([]string{"-h"})
	require.NoError(t, err)
	assert.True(t, f.Help())
}
