// Package config holds the demo host settings, loaded from YAML and overridden by flags
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/vi-office/theme"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS     = 30
	DefaultAgents  = 6
	DefaultStep    = 3 * time.Second
	DefaultLogFile = "vi-office.log"
	MaxFPS         = 240
	MaxAgents      = 64
)

// Sound configures status cues
type Sound struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

// Log configures the JSON log file
type Log struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Config is the full host configuration
type Config struct {
	Theme     string        `yaml:"theme"`
	Themes    []string      `yaml:"themes"`
	ThemesDir string        `yaml:"themes_dir"`
	BundleDir string        `yaml:"bundle_dir"`
	BaseURL   string        `yaml:"base_url"`
	Listen    string        `yaml:"listen"`
	Agents    int           `yaml:"agents"`
	Step      time.Duration `yaml:"step"`
	FPS       int           `yaml:"fps"`
	Sound     Sound         `yaml:"sound"`
	Log       Log           `yaml:"log"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Theme:  theme.BuiltinID,
		Themes: []string{theme.BuiltinID},
		Agents: DefaultAgents,
		Step:   DefaultStep,
		FPS:    DefaultFPS,
		Log:    Log{File: DefaultLogFile, Level: "info"},
	}
}

// Load reads path over the defaults, an empty path returns the defaults
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, unknown keys are rejected
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Theme = strings.TrimSpace(c.Theme)
	if c.Theme == "" {
		c.Theme = theme.BuiltinID
	}
	seen := make(map[string]bool, len(c.Themes)+1)
	themes := make([]string, 0, len(c.Themes)+1)
	for _, id := range append([]string{c.Theme}, c.Themes...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		themes = append(themes, id)
	}
	c.Themes = themes
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Validate checks ranges and the log level
func (c Config) Validate() error {
	var errs []error
	if c.FPS < 1 || c.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("fps %d out of range 1..%d", c.FPS, MaxFPS))
	}
	if c.Agents < 0 || c.Agents > MaxAgents {
		errs = append(errs, fmt.Errorf("agents %d out of range 0..%d", c.Agents, MaxAgents))
	}
	if c.Step <= 0 {
		errs = append(errs, fmt.Errorf("step must be positive, got %s", c.Step))
	}
	if c.Sound.Volume < -8 || c.Sound.Volume > 2 {
		errs = append(errs, fmt.Errorf("sound volume %g out of range -8..2", c.Sound.Volume))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base url %q must be http or https", c.BaseURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses the log level
func (c Config) Level() (zapcore.Level, error) {
	if c.Log.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// NextTheme returns the theme after current in the rotation
func (c Config) NextTheme(current string) string {
	if len(c.Themes) == 0 {
		return current
	}
	for i, id := range c.Themes {
		if id == current {
			return c.Themes[(i+1)%len(c.Themes)]
		}
	}
	return c.Themes[0]
}
