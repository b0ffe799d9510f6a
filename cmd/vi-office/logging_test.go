package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/vi-office/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = ""
	logger, err := setupLogging(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))
}

func TestSetupLoggingWritesJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "logs", "office.log")
	cfg.Log.Level = "warn"

	logger, err := setupLogging(cfg)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"shown"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestSetupLoggingBadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "office.log")
	cfg.Log.Level = "loud"
	_, err := setupLogging(cfg)
	assert.Error(t, err)
}
