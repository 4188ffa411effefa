// Package config loads orbitview settings from TOML or YAML files layered over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/Carmen-Shannon/orbitview/engine/frame"
	"github.com/Carmen-Shannon/orbitview/engine/gesture"
	"github.com/Carmen-Shannon/orbitview/engine/renderer"
	"github.com/Carmen-Shannon/orbitview/engine/renderer/pipeline"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")

	// ErrUnsupportedFormat is returned for file extensions other than .toml, .yaml and .yml.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
)

// Format is a configuration file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFromPath picks the encoding from a file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the encoding
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

type Config struct {
	LogLevel  string          `toml:"log_level" yaml:"log_level"`
	Window    WindowConfig    `toml:"window" yaml:"window"`
	Camera    CameraConfig    `toml:"camera" yaml:"camera"`
	Gesture   GestureConfig   `toml:"gesture" yaml:"gesture"`
	Frame     FrameConfig     `toml:"frame" yaml:"frame"`
	Renderer  RendererConfig  `toml:"renderer" yaml:"renderer"`
	Profiling ProfilingConfig `toml:"profiling" yaml:"profiling"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

type CameraConfig struct {
	Azimuth     float32    `toml:"azimuth" yaml:"azimuth"`
	Elevation   float32    `toml:"elevation" yaml:"elevation"`
	Distance    float32    `toml:"distance" yaml:"distance"`
	Pivot       [3]float32 `toml:"pivot" yaml:"pivot"`
	MinDistance float32    `toml:"min_distance" yaml:"min_distance"`
	MaxDistance float32    `toml:"max_distance" yaml:"max_distance"`
}

// State returns the initial camera state.
func (c CameraConfig) State() camera.CameraState {
	return camera.CameraState{
		Azimuth:   c.Azimuth,
		Elevation: c.Elevation,
		Distance:  c.Distance,
		Pivot:     c.Pivot,
	}
}

type GestureConfig struct {
	// Sensitivity is radians of rotation per dragged pixel.
	Sensitivity    float32 `toml:"sensitivity" yaml:"sensitivity"`
	ScrollZoomBase float32 `toml:"scroll_zoom_base" yaml:"scroll_zoom_base"`
}

type FrameConfig struct {
	Slots       int    `toml:"slots" yaml:"slots"`
	VertexCount uint32 `toml:"vertex_count" yaml:"vertex_count"`
}

type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode          string `toml:"present_mode" yaml:"present_mode"`
	ForceFallbackAdapter bool   `toml:"force_fallback_adapter" yaml:"force_fallback_adapter"`

	// ShaderPath optionally replaces the embedded full-screen shader body.
	ShaderPath        string     `toml:"shader_path" yaml:"shader_path"`
	PipelineCacheSize int        `toml:"pipeline_cache_size" yaml:"pipeline_cache_size"`
	ClearColor        [4]float64 `toml:"clear_color" yaml:"clear_color"`
}

// LoadShader reads ShaderPath.
//
// Returns:
//   - string: the shader body, empty when no path is configured
//   - error: an error if the file cannot be read
func (r RendererConfig) LoadShader() (string, error) {
	if r.ShaderPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(r.ShaderPath)
	if err != nil {
		return "", fmt.Errorf("read shader: %w", err)
	}
	return string(data), nil
}

type ProfilingConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// Interval is a time.ParseDuration string.
	Interval string `toml:"interval" yaml:"interval"`
}

// IntervalDuration parses Interval, falling back to one second when empty.
func (p ProfilingConfig) IntervalDuration() (time.Duration, error) {
	if p.Interval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(p.Interval)
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: defaults for every section
func Default() Config {
	state := camera.DefaultState()
	return Config{
		LogLevel: "info",
		Window: WindowConfig{
			Title:  "orbitview",
			Width:  1280,
			Height: 720,
		},
		Camera: CameraConfig{
			Azimuth:     state.Azimuth,
			Elevation:   state.Elevation,
			Distance:    state.Distance,
			Pivot:       state.Pivot,
			MinDistance: camera.DefaultMinDistance,
			MaxDistance: camera.DefaultMaxDistance,
		},
		Gesture: GestureConfig{
			Sensitivity:    gesture.DefaultSensitivity,
			ScrollZoomBase: gesture.DefaultScrollZoomBase,
		},
		Frame: FrameConfig{
			Slots:       frame.DefaultSlots,
			VertexCount: frame.DefaultVertexCount,
		},
		Renderer: RendererConfig{
			PresentMode:       renderer.PresentModeVSync.String(),
			PipelineCacheSize: pipeline.DefaultCacheSize,
			ClearColor:        [4]float64{0.05, 0.05, 0.08, 1},
		},
		Profiling: ProfilingConfig{
			Interval: "1s",
		},
	}
}

// Load reads path, layers it over Default and validates the result.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - Config: the merged configuration
//   - error: ErrUnsupportedFormat, a read or decode error, or ErrInvalid
func Load(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := Decode(bytes.NewReader(data), format, &c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads r into c. Fields absent from the input keep their current values; unknown keys are errors.
//
// Parameters:
//   - r: the encoded configuration
//   - format: the encoding
//   - c: the configuration to update
//
// Returns:
//   - error: a decode error
func Decode(r io.Reader, format Format, c *Config) error {
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(c); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedFormat, format)
	}
	return nil
}

// Encode writes c in the given format.
//
// Parameters:
//   - w: the destination
//   - format: the encoding
//   - c: the configuration
//
// Returns:
//   - error: an encode error
func Encode(w io.Writer, format Format, c Config) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(c)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedFormat, format)
	}
}

// Validate reports every problem in c at once.
//
// Returns:
//   - error: ErrInvalid joined with each problem, nil if c is usable
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, err := c.Level()
	check(err == nil, "log_level %q: %v", c.LogLevel, err)

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)

	cam := c.Camera
	check(common.IsFinite(cam.Azimuth, cam.Elevation, cam.Pivot[0], cam.Pivot[1], cam.Pivot[2]), "camera angles and pivot must be finite")
	check(common.IsFinite(cam.MinDistance, cam.MaxDistance) && cam.MinDistance > 0 && cam.MaxDistance >= cam.MinDistance,
		"camera distance bounds [%g, %g] are invalid", cam.MinDistance, cam.MaxDistance)
	check(common.IsFinite(cam.Distance) && cam.Distance > 0, "camera distance must be positive, got %g", cam.Distance)

	g := c.Gesture
	check(common.IsFinite(g.Sensitivity) && g.Sensitivity > 0, "gesture sensitivity must be positive, got %g", g.Sensitivity)
	check(common.IsFinite(g.ScrollZoomBase) && g.ScrollZoomBase > 0, "gesture scroll_zoom_base must be positive, got %g", g.ScrollZoomBase)

	check(c.Frame.Slots >= 1, "frame slots must be >= 1, got %d", c.Frame.Slots)
	check(c.Frame.VertexCount > 0, "frame vertex_count must be > 0")

	_, err = renderer.ParsePresentMode(c.Renderer.PresentMode)
	check(err == nil, "renderer present_mode: %v", err)
	check(c.Renderer.PipelineCacheSize > 0, "renderer pipeline_cache_size must be > 0, got %d", c.Renderer.PipelineCacheSize)

	interval, err := c.Profiling.IntervalDuration()
	check(err == nil && interval > 0, "profiling interval %q is invalid", c.Profiling.Interval)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
