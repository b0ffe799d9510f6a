package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags layers command line overrides over a YAML file
type Flags struct {
	fs         *pflag.FlagSet
	configPath string
	over       Config
	help       bool
}

// NewFlags registers the host flags on a fresh set named name
func NewFlags(name string) *Flags {
	f := &Flags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	def := Default()
	fs := f.fs
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&f.over.Theme, "theme", def.Theme, "theme id to show first")
	fs.StringSliceVar(&f.over.Themes, "themes", def.Themes, "theme rotation for the t key")
	fs.StringVar(&f.over.ThemesDir, "themes-dir", "", "directory holding <theme>/manifest.json trees")
	fs.StringVar(&f.over.BundleDir, "bundle-dir", "", "directory holding <theme>.zip bundles")
	fs.StringVar(&f.over.BaseURL, "base-url", "", "http base the /themes/... urls resolve against")
	fs.StringVar(&f.over.Listen, "listen", "", "accept agent hook events on this address instead of mock agents")
	fs.IntVarP(&f.over.Agents, "agents", "n", def.Agents, "number of mock agents")
	fs.DurationVar(&f.over.Step, "step", def.Step, "mock status advance interval")
	fs.IntVar(&f.over.FPS, "fps", def.FPS, "frames per second")
	fs.BoolVar(&f.over.Sound.Enabled, "sound", def.Sound.Enabled, "play status change cues")
	fs.Float64Var(&f.over.Sound.Volume, "volume", def.Sound.Volume, "cue volume, log2 gain")
	fs.StringVar(&f.over.Log.File, "log-file", def.Log.File, "JSON log file, empty disables logging")
	fs.StringVar(&f.over.Log.Level, "log-level", def.Log.Level, "debug, info, warn or error")
	fs.BoolVarP(&f.help, "help", "h", false, "show usage")
	return f
}

// FlagSet exposes the underlying set for usage output
func (f *Flags) FlagSet() *pflag.FlagSet {
	return f.fs
}

// Help reports whether -h was given
func (f *Flags) Help() bool {
	return f.help
}

// Parse reads args, loads --config and applies every flag set explicitly
func (f *Flags) Parse(args []string) (Config, error) {
	if err := f.fs.Parse(args); err != nil {
		return Config{}, err
	}
	if f.help {
		return Default(), nil
	}
	cfg, err := Load(f.configPath)
	if err != nil {
		return Config{}, err
	}

	changed := func(name string) bool { return f.fs.Changed(name) }
	if changed("theme") {
		cfg.Theme = f.over.Theme
	}
	if changed("themes") {
		cfg.Themes = f.over.Themes
	}
	if changed("themes-dir") {
		cfg.ThemesDir = f.over.ThemesDir
	}
	if changed("bundle-dir") {
		cfg.BundleDir = f.over.BundleDir
	}
	if changed("base-url") {
		cfg.BaseURL = f.over.BaseURL
	}
	if changed("listen") {
		cfg.Listen = f.over.Listen
	}
	if changed("agents") {
		cfg.Agents = f.over.Agents
	}
	if changed("step") {
		cfg.Step = f.over.Step
	}
	if changed("fps") {
		cfg.FPS = f.over.FPS
	}
	if changed("sound") {
		cfg.Sound.Enabled = f.over.Sound.Enabled
	}
	if changed("volume") {
		cfg.Sound.Volume = f.over.Sound.Volume
	}
	if changed("log-file") {
		cfg.Log.File = f.over.Log.File
	}
	if changed("log-level") {
		cfg.Log.Level = f.over.Log.Level
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
