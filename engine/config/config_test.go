package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, camera.DefaultState(), c.Camera.State())
	assert.Equal(t, 3, c.Frame.Slots)
	assert.Equal(t, uint32(3), c.Frame.VertexCount)
	assert.Equal(t, float32(0.002), c.Gesture.Sensitivity)
	assert.Equal(t, "vsync", c.Renderer.PresentMode)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadTOMLLayersOverDefaults(t *testing.T) {
	path := writeFile(t, "orbitview.toml", `
log_level = "debug"

[camera]
distance = 4.5
pivot = [1.0, 0.0, -2.0]

[frame]
slots = 2

[renderer]
present_mode = "uncapped"
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, float32(4.5), c.Camera.Distance)
	assert.Equal(t, [3]float32{1, 0, -2}, c.Camera.Pivot)
	assert.Equal(t, camera.DefaultAzimuth, c.Camera.Azimuth, "unset keys keep defaults")
	assert.Equal(t, 2, c.Frame.Slots)
	assert.Equal(t, "uncapped", c.Renderer.PresentMode)
	assert.Equal(t, 1280, c.Window.Width)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "orbitview.yml", `
window:
  title: demo
  width: 800
  height: 600
gesture:
  sensitivity: 0.004
profiling:
  enabled: true
  interval: 500ms
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", c.Window.Title)
	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, float32(0.004), c.Gesture.Sensitivity)
	assert.Equal(t, float32(1.1), c.Gesture.ScrollZoomBase)
	assert.True(t, c.Profiling.Enabled)

	interval, err := c.Profiling.IntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, interval)
}

func TestLoadEmptyYAMLKeepsDefaults(t *testing.T) {
	c, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "orbitview.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "unknown.toml", "[camera]\nfov = 60\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeFile(t, "unknown.yaml", "camera:\n  fov: 60\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeFile(t, "bad.toml", "[frame]\nslots = 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	c := Default()
	c.LogLevel = "loud"
	c.Window.Width = 0
	c.Camera.Distance = -1
	c.Camera.MinDistance = 10
	c.Camera.MaxDistance = 1
	c.Gesture.Sensitivity = 0
	c.Frame.Slots = 0
	c.Frame.VertexCount = 0
	c.Renderer.PresentMode = "mailbox"
	c.Renderer.PipelineCacheSize = 0
	c.Profiling.Interval = "soon"

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{
		"log_level", "window size", "camera distance must be positive", "distance bounds",
		"sensitivity", "slots", "vertex_count", "present_mode", "pipeline_cache_size", "interval",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestEncodeWritesLoadableFile(t *testing.T) {
	c := Default()
	c.Frame.Slots = 5

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, c))
	assert.Contains(t, buf.String(), "present_mode: vsync")

	got, err := Load(writeFile(t, "dump.yaml", buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 5, got.Frame.Slots)
}

func TestLoadShader(t *testing.T) {
	body, err := RendererConfig{}.LoadShader()
	require.NoError(t, err)
	assert.Empty(t, body)

	path := writeFile(t, "body.wgsl", "fn fs_main() {}")
	body, err = RendererConfig{ShaderPath: path}.LoadShader()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body, "fn fs_main"))

	_, err = RendererConfig{ShaderPath: path + ".missing"}.LoadShader()
	assert.Error(t, err)
}
