package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/orbitview/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-config", "a.toml", "-log-level", "debug", "-fallback-adapter", "-present-mode", "uncapped"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, options{configPath: "a.toml", logLevel: "debug", fallback: true, presentMode: "uncapped"}, opts)

	_, err = parseFlags([]string{"-nope"}, &stderr)
	assert.Error(t, err)

	_, err = parseFlags([]string{"extra"}, &stderr)
	assert.Error(t, err)
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nframe:\n  slots: 2\n"), 0o600))

	cfg, err := loadConfig(options{configPath: path, presentMode: "uncapped", profiling: true})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Frame.Slots)
	assert.Equal(t, "uncapped", cfg.Renderer.PresentMode)
	assert.True(t, cfg.Profiling.Enabled)

	cfg, err = loadConfig(options{logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = loadConfig(options{logLevel: "chatty"})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-bogus"}, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-config", "missing.ini"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-dump-config", "json"}, &stdout, &stderr))
}

func TestDumpConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-dump-config", "yaml", "-log-level", "debug"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "log_level: debug")

	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, stdout.Bytes(), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}
