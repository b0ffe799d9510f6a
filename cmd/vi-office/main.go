// Command vi-office renders a live virtual office in the terminal
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/audio"
	"github.com/lixenwraith/vi-office/config"
	"github.com/lixenwraith/vi-office/engine"
	"github.com/lixenwraith/vi-office/network"
	"github.com/lixenwraith/vi-office/terminal"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := config.NewFlags("vi-office")
	cfg, err := flags.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-office: %v\n", err)
		return 2
	}
	if flags.Help() {
		fmt.Fprintf(os.Stderr, "usage: vi-office [flags]\n%s", flags.FlagSet().FlagUsages())
		return 0
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-office: logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-office: terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "vi-office: terminal: %v\n", err)
		return 1
	}
	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()

	// restore the terminal before reporting a crash
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			logger.Error("crashed", zap.Any("panic", r))
			fmt.Fprintf(os.Stderr, "vi-office crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	var player *audio.Player
	if cfg.Sound.Enabled {
		player = audio.NewPlayer(audio.Options{Logger: logger, Volume: cfg.Sound.Volume})
		if err := player.Initialize(); err != nil {
			logger.Warn("audio unavailable, continuing without cues", zap.Error(err))
			player = nil
		}
	}

	src, closeSrc := newSource(cfg)
	defer closeSrc()

	clock := engine.SystemClock{}
	var tracker *agent.Tracker
	if cfg.Listen != "" {
		tracker = agent.NewTracker(clock, logger)
		feed := network.NewServer(network.DefaultConfig(cfg.Listen), tracker, logger)
		if err := feed.Start(); err != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "vi-office: listen %s: %v\n", cfg.Listen, err)
			return 1
		}
		defer func() {
			_ = feed.Stop()
			logger.Info("event feed stopped", zap.Uint64("received", feed.Received()), zap.Uint64("rejected", feed.Rejected()))
		}()
	}

	a := newApp(cfg, screen, src, clock, tracker, player, logger)
	defer a.close()
	logger.Info("starting",
		zap.String("theme", cfg.Theme),
		zap.Strings("themes", cfg.Themes),
		zap.Int("agents", cfg.Agents),
		zap.String("listen", cfg.Listen),
		zap.Int("fps", cfg.FPS),
	)
	a.start()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return 0
		}
		if a.handle(terminal.Translate(ev)) {
			logger.Info("quit")
			return 0
		}
	}
}
