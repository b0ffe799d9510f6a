package main

import (
	"os"
	"path/filepath"

	"github.com/lixenwraith/vi-office/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setupLogging builds a JSON file logger, the terminal belongs to tcell so nothing goes to stderr
func setupLogging(cfg config.Config) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), nil
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Log.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    enc,
		OutputPaths:      []string{cfg.Log.File},
		ErrorOutputPaths: []string{cfg.Log.File},
	}
	return zc.Build(zap.AddCaller())
}
